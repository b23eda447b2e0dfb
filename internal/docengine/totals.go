package docengine

import "github.com/shopspring/decimal"

// Totals is the document-level aggregate recomputed after every line-item
// list mutation. TotalAmount is always UnroundedTotal plus
// RoundingAdjustment exactly.
type Totals struct {
	Subtotal           decimal.Decimal
	DiscountAmount     decimal.Decimal
	TaxAmount          decimal.Decimal
	UnroundedTotal     decimal.Decimal
	TotalAmount        decimal.Decimal
	RoundingAdjustment decimal.Decimal
}

// Aggregate reduces the line items into document totals. Inclusive-tax lines
// contribute zero to TaxAmount: their tax is embedded in the line total and
// adding it again would double count.
func Aggregate(lines []LineItem, policy RoundingPolicy) Totals {
	var t Totals
	t.Subtotal = decimal.Zero
	t.DiscountAmount = decimal.Zero
	t.TaxAmount = decimal.Zero
	for _, li := range lines {
		t.Subtotal = t.Subtotal.Add(li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))))
		t.DiscountAmount = t.DiscountAmount.Add(li.Discount)
		if li.TaxType == TaxExclusive {
			t.TaxAmount = t.TaxAmount.Add(li.Tax)
		}
	}
	t.UnroundedTotal = t.Subtotal.Sub(t.DiscountAmount).Add(t.TaxAmount)
	t.TotalAmount = policy.Apply(t.UnroundedTotal)
	t.RoundingAdjustment = t.TotalAmount.Sub(t.UnroundedTotal)
	return t
}
