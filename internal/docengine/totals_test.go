package docengine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func exclusiveLine(t *testing.T, qty int, price, discount float64) LineItem {
	t.Helper()
	li, err := NewLineFromProduct(saleProduct(), DirectionSale, LineOptions{
		Quantity: qty,
		Discount: decimal.NewFromFloat(discount),
	})
	require.NoError(t, err)
	require.NoError(t, li.SetUnitPrice(PolicyFor(DocSaleInvoice, false), decimal.NewFromFloat(price)))
	return li
}

func TestAggregateSingleExclusiveLine(t *testing.T) {
	// sale_price=100, exclusive 18%, qty=2, discount=10.
	li := exclusiveLine(t, 2, 100, 10)

	totals := Aggregate([]LineItem{li}, DefaultRoundingPolicy())
	require.True(t, totals.Subtotal.Equal(decimal.NewFromInt(200)), "subtotal %s", totals.Subtotal)
	require.True(t, totals.DiscountAmount.Equal(decimal.NewFromInt(10)))
	require.True(t, totals.TaxAmount.Equal(decimal.NewFromFloat(34.20)), "tax %s", totals.TaxAmount)
	require.True(t, totals.TotalAmount.Equal(decimal.NewFromFloat(224.20)), "total %s", totals.TotalAmount)
	require.True(t, totals.RoundingAdjustment.IsZero())
}

func TestAggregateInclusiveLinesContributeNoTax(t *testing.T) {
	p := saleProduct()
	p.SaleTaxType = TaxInclusive
	price := decimal.NewFromInt(118)
	p.SalePrice = &price
	p.MRP = nil
	li, err := NewLineFromProduct(p, DirectionSale, LineOptions{Quantity: 1})
	require.NoError(t, err)
	require.True(t, li.Tax.Equal(decimal.NewFromInt(18)))

	totals := Aggregate([]LineItem{li}, DefaultRoundingPolicy())
	require.True(t, totals.TaxAmount.IsZero(), "inclusive tax must not be displayed additively")
	require.True(t, totals.TotalAmount.Equal(decimal.NewFromInt(118)))
}

func TestAggregateExclusiveAdditivity(t *testing.T) {
	lines := []LineItem{
		exclusiveLine(t, 1, 50, 0),
		exclusiveLine(t, 4, 25, 5),
		exclusiveLine(t, 2, 9.99, 0),
	}
	totals := Aggregate(lines, DefaultRoundingPolicy())
	sum := decimal.Zero
	for _, li := range lines {
		sum = sum.Add(li.Tax)
	}
	require.True(t, totals.TaxAmount.Equal(sum))
}

func TestRoundingReconciliation(t *testing.T) {
	lines := []LineItem{exclusiveLine(t, 3, 33.33, 0)}
	policies := []RoundingPolicy{
		{Method: NoRounding, Precision: decimal.NewFromFloat(0.01)},
		{Method: RoundNearest, Precision: decimal.NewFromFloat(0.25)},
		{Method: RoundUp, Precision: decimal.NewFromFloat(0.50)},
		{Method: RoundDown, Precision: decimal.NewFromInt(1)},
	}
	for _, pol := range policies {
		totals := Aggregate(lines, pol)
		recombined := totals.UnroundedTotal.Add(totals.RoundingAdjustment)
		require.True(t, totals.TotalAmount.Equal(recombined), "method=%s", pol.Method)
	}
}

func TestRoundingPolicyApply(t *testing.T) {
	v := decimal.NewFromFloat(224.37)
	cases := []struct {
		method    RoundingMethod
		precision float64
		want      float64
	}{
		{NoRounding, 0.01, 224.37},
		{RoundNearest, 0.25, 224.25},
		{RoundNearest, 0.50, 224.50},
		{RoundUp, 0.50, 224.50},
		{RoundUp, 1.00, 225},
		{RoundDown, 1.00, 224},
		{RoundDown, 0.25, 224.25},
	}
	for _, tc := range cases {
		pol := RoundingPolicy{Method: tc.method, Precision: decimal.NewFromFloat(tc.precision)}
		got := pol.Apply(v)
		require.True(t, got.Equal(decimal.NewFromFloat(tc.want)), "method=%s precision=%v got=%s", tc.method, tc.precision, got)
	}
}
