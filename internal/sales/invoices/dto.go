package invoices

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/documents"
)

// CreateInvoiceRequest creates an invoice. Exactly one of Lines (direct) or
// SalesOrderID+LinkedLines (linked) applies; the mode is fixed at creation.
type CreateInvoiceRequest struct {
	CustomerID   int64                         `json:"customer_id" validate:"required,gt=0"`
	SalesOrderID *int64                        `json:"sales_order_id,omitempty"`
	InvoiceDate  time.Time                     `json:"invoice_date" validate:"required"`
	Notes        string                        `json:"notes,omitempty"`
	Lines        []documents.LineRequest       `json:"lines,omitempty" validate:"omitempty,dive"`
	LinkedLines  []documents.LinkedLineRequest `json:"linked_lines,omitempty" validate:"omitempty,dive"`
}

type UpdateInvoiceRequest struct {
	InvoiceDate *time.Time                     `json:"invoice_date,omitempty"`
	Notes       *string                        `json:"notes,omitempty"`
	Lines       *[]documents.LineRequest       `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
	LinkedLines *[]documents.LinkedLineRequest `json:"linked_lines,omitempty" validate:"omitempty,dive"`
}

type ListInvoicesRequest struct {
	CustomerID   *int64         `json:"customer_id,omitempty"`
	SalesOrderID *int64         `json:"sales_order_id,omitempty"`
	Status       *InvoiceStatus `json:"status,omitempty"`
	DateFrom     *time.Time     `json:"date_from,omitempty"`
	DateTo       *time.Time     `json:"date_to,omitempty"`
	Limit        int            `json:"limit" validate:"gte=0,lte=1000"`
	Offset       int            `json:"offset" validate:"gte=0"`
}
