package orders

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/documents"
)

type CreateSalesOrderRequest struct {
	CustomerID   int64                   `json:"customer_id" validate:"required,gt=0"`
	OrderDate    time.Time               `json:"order_date" validate:"required"`
	DeliveryDate *time.Time              `json:"delivery_date,omitempty"`
	Notes        string                  `json:"notes,omitempty"`
	Lines        []documents.LineRequest `json:"lines" validate:"required,min=1,dive"`
}

type UpdateSalesOrderRequest struct {
	OrderDate    *time.Time               `json:"order_date,omitempty"`
	DeliveryDate *time.Time               `json:"delivery_date,omitempty"`
	Notes        *string                  `json:"notes,omitempty"`
	Lines        *[]documents.LineRequest `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
}

type ListSalesOrdersRequest struct {
	CustomerID *int64            `json:"customer_id,omitempty"`
	Status     *SalesOrderStatus `json:"status,omitempty"`
	DateFrom   *time.Time        `json:"date_from,omitempty"`
	DateTo     *time.Time        `json:"date_to,omitempty"`
	Limit      int               `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int               `json:"offset" validate:"gte=0"`
}
