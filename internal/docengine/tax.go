// Package docengine implements the document computation core shared by the
// five transactional documents: per-line tax, document totals, line-item
// construction and mutation under per-document field locks, linked-document
// propagation, and serialized-inventory validation.
package docengine

import "github.com/shopspring/decimal"

// TaxType states whether a unit price already contains tax.
type TaxType string

const (
	TaxInclusive TaxType = "inclusive"
	TaxExclusive TaxType = "exclusive"
)

// TaxConfig is the tax configuration captured from a product for one
// direction. Rate is a fraction (0.18 for 18%). A nil Rate means the product
// has no rate holder for the direction, which is a hard error even though a
// zero rate is fine.
type TaxConfig struct {
	Type    TaxType
	Rate    *decimal.Decimal
	Product string
	SKU     string
}

func (c TaxConfig) validate() error {
	if c.Type == "" || c.Rate == nil {
		return &MissingTaxConfigError{Product: c.Product, SKU: c.SKU}
	}
	return nil
}

var one = decimal.NewFromInt(1)

// ComputeLineTax derives the tax amount for one line. For inclusive tax the
// amount is extracted from the discounted net (the price already contains
// it); for exclusive tax it is added on top. The result is rounded to two
// decimals, half away from zero.
//
// Discount is a flat currency amount. The calculator does not clamp
// discount > gross; callers validate that upstream.
func ComputeLineTax(cfg TaxConfig, quantity int, unitPrice, discount decimal.Decimal) (decimal.Decimal, error) {
	if err := cfg.validate(); err != nil {
		return decimal.Zero, err
	}
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	net := gross.Sub(discount)
	if cfg.Type == TaxInclusive {
		return net.Sub(net.Div(one.Add(*cfg.Rate))).Round(2), nil
	}
	return net.Mul(*cfg.Rate).Round(2), nil
}

// ComputeLineTotal derives the line total. Inclusive lines total to the
// discounted net (tax is embedded, never added again); exclusive lines add
// the tax on top.
func ComputeLineTotal(taxType TaxType, quantity int, unitPrice, discount, tax decimal.Decimal) decimal.Decimal {
	net := unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Sub(discount)
	if taxType == TaxInclusive {
		return net
	}
	return net.Add(tax)
}
