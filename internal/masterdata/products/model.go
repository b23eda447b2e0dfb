package products

import (
	"time"
)

// Product represents a sellable or purchasable item. Purchase and sales tax
// configurations are independent so a product can be taxed differently on
// each side of the ledger.
type Product struct {
	ID                 int64         `json:"id"`
	SKU                string        `json:"sku"`
	Name               string        `json:"name"`
	HSNCode            string        `json:"hsn_code"`
	CostPrice          *float64      `json:"cost_price,omitempty"`
	SalePrice          *float64      `json:"sale_price,omitempty"`
	MRP                *float64      `json:"mrp,omitempty"`
	PurchaseTaxID      *int64        `json:"purchase_tax_id,omitempty"`
	SalesTaxID         *int64        `json:"sales_tax_id,omitempty"`
	Serialized         bool          `json:"serialized"`
	AllowOverridePrice bool          `json:"allow_override_price"`
	IsActive           bool          `json:"is_active"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	Units              []ProductUnit `json:"units,omitempty"`
}

// ProductUnit is an alternate unit of measure with its multiplier back to
// the base unit. The base unit itself is implied with multiplier 1.
type ProductUnit struct {
	ID         int64   `json:"id"`
	ProductID  int64   `json:"product_id"`
	Label      string  `json:"label"`
	Multiplier float64 `json:"multiplier"`
}
