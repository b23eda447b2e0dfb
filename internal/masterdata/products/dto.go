package products

type ProductForm struct {
	SKU                string            `json:"sku"`
	Name               string            `json:"name"`
	HSNCode            string            `json:"hsn_code"`
	CostPrice          *float64          `json:"cost_price,omitempty"`
	SalePrice          *float64          `json:"sale_price,omitempty"`
	MRP                *float64          `json:"mrp,omitempty"`
	PurchaseTaxID      *int64            `json:"purchase_tax_id,omitempty"`
	SalesTaxID         *int64            `json:"sales_tax_id,omitempty"`
	Serialized         bool              `json:"serialized"`
	AllowOverridePrice bool              `json:"allow_override_price"`
	IsActive           bool              `json:"is_active"`
	Units              []ProductUnitForm `json:"units,omitempty"`
}

type ProductUnitForm struct {
	Label      string  `json:"label"`
	Multiplier float64 `json:"multiplier"`
}

func (f ProductForm) toProduct() Product {
	p := Product{
		SKU:                f.SKU,
		Name:               f.Name,
		HSNCode:            f.HSNCode,
		CostPrice:          f.CostPrice,
		SalePrice:          f.SalePrice,
		MRP:                f.MRP,
		PurchaseTaxID:      f.PurchaseTaxID,
		SalesTaxID:         f.SalesTaxID,
		Serialized:         f.Serialized,
		AllowOverridePrice: f.AllowOverridePrice,
		IsActive:           f.IsActive,
	}
	for _, u := range f.Units {
		p.Units = append(p.Units, ProductUnit{Label: u.Label, Multiplier: u.Multiplier})
	}
	return p
}
