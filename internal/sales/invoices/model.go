package invoices

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/documents"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusPosted    InvoiceStatus = "POSTED"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// SaleInvoice bills a customer, either standalone or against a confirmed
// sales order. Linked invoices inherit quantity and discount read-only from
// the order; only serial selection remains editable. Posting consumes serials
// from the available pool and moves stock out.
type SaleInvoice struct {
	ID          int64         `json:"id"`
	Number      string        `json:"number"`
	CustomerID  int64         `json:"customer_id"`
	SOID        *int64        `json:"sales_order_id,omitempty"`
	IsDirect    bool          `json:"is_direct"`
	InvoiceDate time.Time     `json:"invoice_date"`
	Status      InvoiceStatus `json:"status"`
	Notes       string        `json:"notes,omitempty"`

	documents.Totals

	CreatedBy int64      `json:"created_by"`
	PostedBy  *int64     `json:"posted_by,omitempty"`
	PostedAt  *time.Time `json:"posted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Lines []documents.Line `json:"lines,omitempty"`
}

var (
	ErrInvalidState = fmt.Errorf("invoices: %w", httpx.ErrInvalidState)
	ErrNotFound     = fmt.Errorf("invoices: %w", httpx.ErrNotFound)
	ErrValidation   = fmt.Errorf("invoices: %w", httpx.ErrValidation)
)
