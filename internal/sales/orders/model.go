package orders

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/documents"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

type SalesOrderStatus string

const (
	SalesOrderStatusDraft     SalesOrderStatus = "DRAFT"
	SalesOrderStatusConfirmed SalesOrderStatus = "CONFIRMED"
	SalesOrderStatusCancelled SalesOrderStatus = "CANCELLED"
	SalesOrderStatusCompleted SalesOrderStatus = "COMPLETED"
)

// SalesOrder is a planning document on the sale side. Prices come from the
// sale price with the MRP as a clamping ceiling; serials are never captured
// here, they are entered on the invoice that consumes stock.
type SalesOrder struct {
	ID           int64            `json:"id"`
	Number       string           `json:"number"`
	CustomerID   int64            `json:"customer_id"`
	OrderDate    time.Time        `json:"order_date"`
	DeliveryDate *time.Time       `json:"delivery_date,omitempty"`
	Status       SalesOrderStatus `json:"status"`
	Notes        string           `json:"notes,omitempty"`

	documents.Totals

	CreatedBy   int64      `json:"created_by"`
	ConfirmedBy *int64     `json:"confirmed_by,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CancelledBy *int64     `json:"cancelled_by,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Lines []documents.Line `json:"lines,omitempty"`
}

var (
	ErrInvalidState = fmt.Errorf("orders: %w", httpx.ErrInvalidState)
	ErrNotFound     = fmt.Errorf("orders: %w", httpx.ErrNotFound)
	ErrValidation   = fmt.Errorf("orders: %w", httpx.ErrValidation)
)
