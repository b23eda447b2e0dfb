package inventory

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// MovementType classifies a stock movement by the document that posted it.
type MovementType string

const (
	MovementReceipt MovementType = "RECEIPT"
	MovementSale    MovementType = "SALE"
	MovementReturn  MovementType = "RETURN"
	MovementAdjust  MovementType = "ADJUST"
)

// Movement is one posted stock change. Qty is positive for receipts and
// returns, negative for sales.
type Movement struct {
	ID         int64        `json:"id"`
	Code       string       `json:"code"`
	Type       MovementType `json:"type"`
	ProductID  int64        `json:"product_id"`
	Qty        float64      `json:"qty"`
	UnitCost   float64      `json:"unit_cost"`
	RefDocType string       `json:"ref_doc_type"`
	RefDocID   int64        `json:"ref_doc_id"`
	Note       string       `json:"note"`
	PostedAt   time.Time    `json:"posted_at"`
	CreatedBy  int64        `json:"created_by"`
}

// Balance is the running on-hand quantity and moving-average cost per product.
type Balance struct {
	ProductID int64     `json:"product_id"`
	Qty       float64   `json:"qty"`
	AvgCost   float64   `json:"avg_cost"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SerialStatus tracks whether a registered serial can still be sold.
type SerialStatus string

const (
	SerialAvailable SerialStatus = "available"
	SerialSold      SerialStatus = "sold"
)

// SerialNumber is one unit of a serialized product. Serials are stored
// normalized, with punctuation and whitespace stripped.
type SerialNumber struct {
	ID            int64        `json:"id"`
	ProductID     int64        `json:"product_id"`
	Serial        string       `json:"serial"`
	Status        SerialStatus `json:"status"`
	ReceivedDocID int64        `json:"received_doc_id"`
	SoldDocID     *int64       `json:"sold_doc_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// SerialConflict reports a serial registered more than once for a product.
type SerialConflict struct {
	ProductID int64  `json:"product_id"`
	Serial    string `json:"serial"`
	Count     int    `json:"count"`
}

// StockLine is one document line as seen by inventory posting.
type StockLine struct {
	ProductID int64
	Qty       float64
	UnitCost  float64
	Serials   []string
}

// DocumentInput ties a batch of stock lines back to the posting document.
type DocumentInput struct {
	DocType string
	DocID   int64
	DocCode string
	ActorID int64
	Lines   []StockLine
}

// MovementFilter narrows movement listings.
type MovementFilter struct {
	ProductID int64
	Type      MovementType
	From      time.Time
	To        time.Time
	Limit     int
}

// Posting failures wrap the httpx validation sentinel so document handlers
// surface them as user-facing errors rather than blank 500s.
var (
	ErrNegativeStock      = fmt.Errorf("inventory: insufficient stock: %w", httpx.ErrValidation)
	ErrInvalidQuantity    = fmt.Errorf("inventory: quantity must not be zero: %w", httpx.ErrValidation)
	ErrInvalidUnitCost    = fmt.Errorf("inventory: unit cost must not be negative: %w", httpx.ErrValidation)
	ErrSerialNotFound     = fmt.Errorf("inventory: serial not found: %w", httpx.ErrValidation)
	ErrSerialNotAvailable = fmt.Errorf("inventory: serial not available: %w", httpx.ErrValidation)
)
