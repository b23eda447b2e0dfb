package procurement

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/documents"
)

type CreatePurchaseOrderRequest struct {
	SupplierID   int64                   `json:"supplier_id" validate:"required,gt=0"`
	OrderDate    time.Time               `json:"order_date" validate:"required"`
	ExpectedDate *time.Time              `json:"expected_date,omitempty"`
	Notes        string                  `json:"notes,omitempty"`
	Lines        []documents.LineRequest `json:"lines" validate:"required,min=1,dive"`
}

type UpdatePurchaseOrderRequest struct {
	OrderDate    *time.Time               `json:"order_date,omitempty"`
	ExpectedDate *time.Time               `json:"expected_date,omitempty"`
	Notes        *string                  `json:"notes,omitempty"`
	Lines        *[]documents.LineRequest `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
}

type ListPurchaseOrdersRequest struct {
	SupplierID *int64     `json:"supplier_id,omitempty"`
	Status     *POStatus  `json:"status,omitempty"`
	DateFrom   *time.Time `json:"date_from,omitempty"`
	DateTo     *time.Time `json:"date_to,omitempty"`
	Limit      int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int        `json:"offset" validate:"gte=0"`
}

// CreateGoodsReceiptRequest creates a GRN. Exactly one of Lines (direct) or
// PurchaseOrderID+LinkedLines (linked) applies; the mode is fixed at creation.
type CreateGoodsReceiptRequest struct {
	SupplierID      int64                         `json:"supplier_id" validate:"required,gt=0"`
	PurchaseOrderID *int64                        `json:"purchase_order_id,omitempty"`
	ReceivedAt      time.Time                     `json:"received_at" validate:"required"`
	Notes           string                        `json:"notes,omitempty"`
	Lines           []documents.LineRequest       `json:"lines,omitempty" validate:"omitempty,dive"`
	LinkedLines     []documents.LinkedLineRequest `json:"linked_lines,omitempty" validate:"omitempty,dive"`
}

type UpdateGoodsReceiptRequest struct {
	ReceivedAt  *time.Time                     `json:"received_at,omitempty"`
	Notes       *string                        `json:"notes,omitempty"`
	Lines       *[]documents.LineRequest       `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
	LinkedLines *[]documents.LinkedLineRequest `json:"linked_lines,omitempty" validate:"omitempty,dive"`
}

type ListGoodsReceiptsRequest struct {
	SupplierID      *int64     `json:"supplier_id,omitempty"`
	PurchaseOrderID *int64     `json:"purchase_order_id,omitempty"`
	Status          *GRNStatus `json:"status,omitempty"`
	DateFrom        *time.Time `json:"date_from,omitempty"`
	DateTo          *time.Time `json:"date_to,omitempty"`
	Limit           int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset          int        `json:"offset" validate:"gte=0"`
}
