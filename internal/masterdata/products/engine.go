package products

import (
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/docengine"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/taxes"
)

// EngineInfo converts a catalog product plus its resolved tax rows into the
// view the document engine consumes. Tax rates are stored as percentages and
// the engine takes fractions. A nil tax leaves the direction unconfigured,
// which the engine reports when a line is built for that direction.
func EngineInfo(p Product, purchaseTax, salesTax *taxes.Tax) docengine.ProductInfo {
	info := docengine.ProductInfo{
		ID:                 p.ID,
		Name:               p.Name,
		SKU:                p.SKU,
		HSNCode:            p.HSNCode,
		Serialized:         p.Serialized,
		AllowOverridePrice: p.AllowOverridePrice,
	}
	if p.CostPrice != nil {
		d := decimal.NewFromFloat(*p.CostPrice)
		info.CostPrice = &d
	}
	if p.SalePrice != nil {
		d := decimal.NewFromFloat(*p.SalePrice)
		info.SalePrice = &d
	}
	if p.MRP != nil {
		d := decimal.NewFromFloat(*p.MRP)
		info.MRP = &d
	}
	if purchaseTax != nil {
		rate := decimal.NewFromFloat(purchaseTax.Rate).Div(decimal.NewFromInt(100))
		info.PurchaseTaxType = docengine.TaxType(purchaseTax.Type)
		info.PurchaseTaxRate = &rate
	}
	if salesTax != nil {
		rate := decimal.NewFromFloat(salesTax.Rate).Div(decimal.NewFromInt(100))
		info.SaleTaxType = docengine.TaxType(salesTax.Type)
		info.SaleTaxRate = &rate
	}
	if len(p.Units) > 0 {
		info.UnitConversions = make(map[string]decimal.Decimal, len(p.Units))
		for _, u := range p.Units {
			info.UnitConversions[u.Label] = decimal.NewFromFloat(u.Multiplier)
		}
	}
	return info
}
