package procurement

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/documents"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Purchase order lifecycle statuses.
type POStatus string

const (
	POStatusDraft     POStatus = "DRAFT"
	POStatusApproved  POStatus = "APPROVED"
	POStatusClosed    POStatus = "CLOSED"
	POStatusCancelled POStatus = "CANCELLED"
)

// Goods receipt statuses. Posting moves stock; a posted receipt is frozen.
type GRNStatus string

const (
	GRNStatusDraft     GRNStatus = "DRAFT"
	GRNStatusPosted    GRNStatus = "POSTED"
	GRNStatusCancelled GRNStatus = "CANCELLED"
)

// PurchaseOrder is a planning document. It never carries serials and its
// discount is only settable through the configure flow.
type PurchaseOrder struct {
	ID           int64      `json:"id"`
	Number       string     `json:"number"`
	SupplierID   int64      `json:"supplier_id"`
	OrderDate    time.Time  `json:"order_date"`
	ExpectedDate *time.Time `json:"expected_date,omitempty"`
	Status       POStatus   `json:"status"`
	Notes        string     `json:"notes,omitempty"`

	documents.Totals

	CreatedBy   int64      `json:"created_by"`
	ApprovedBy  *int64     `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	CancelledBy *int64     `json:"cancelled_by,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Lines []documents.Line `json:"lines,omitempty"`
}

// GoodsReceipt records physical receipt of stock, either standalone or
// against an approved purchase order.
type GoodsReceipt struct {
	ID         int64     `json:"id"`
	Number     string    `json:"number"`
	SupplierID int64     `json:"supplier_id"`
	POID       *int64    `json:"purchase_order_id,omitempty"`
	IsDirect   bool      `json:"is_direct"`
	ReceivedAt time.Time `json:"received_at"`
	Status     GRNStatus `json:"status"`
	Notes      string    `json:"notes,omitempty"`

	documents.Totals

	CreatedBy int64      `json:"created_by"`
	PostedBy  *int64     `json:"posted_by,omitempty"`
	PostedAt  *time.Time `json:"posted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Lines []documents.Line `json:"lines,omitempty"`
}

var (
	// ErrInvalidState occurs when an action violates the status workflow.
	ErrInvalidState = fmt.Errorf("procurement: %w", httpx.ErrInvalidState)
	// ErrNotFound indicates a missing record.
	ErrNotFound = fmt.Errorf("procurement: %w", httpx.ErrNotFound)
	// ErrValidation indicates invalid input.
	ErrValidation = fmt.Errorf("procurement: %w", httpx.ErrValidation)
)
