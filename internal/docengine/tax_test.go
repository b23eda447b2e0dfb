package docengine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func ratePtr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func TestComputeLineTaxExclusive(t *testing.T) {
	cfg := TaxConfig{Type: TaxExclusive, Rate: ratePtr(0.18), Product: "Widget", SKU: "W-1"}

	tax, err := ComputeLineTax(cfg, 2, decimal.NewFromInt(100), decimal.NewFromInt(10))
	require.NoError(t, err)
	require.True(t, tax.Equal(decimal.NewFromFloat(34.20)), "got %s", tax)

	total := ComputeLineTotal(TaxExclusive, 2, decimal.NewFromInt(100), decimal.NewFromInt(10), tax)
	require.True(t, total.Equal(decimal.NewFromFloat(224.20)), "got %s", total)
}

func TestComputeLineTaxInclusive(t *testing.T) {
	cfg := TaxConfig{Type: TaxInclusive, Rate: ratePtr(0.18), Product: "Widget", SKU: "W-1"}

	tax, err := ComputeLineTax(cfg, 1, decimal.NewFromInt(118), decimal.Zero)
	require.NoError(t, err)
	require.True(t, tax.Equal(decimal.NewFromInt(18)), "got %s", tax)

	// Tax is embedded; the total never adds it a second time.
	total := ComputeLineTotal(TaxInclusive, 1, decimal.NewFromInt(118), decimal.Zero, tax)
	require.True(t, total.Equal(decimal.NewFromInt(118)), "got %s", total)
}

func TestComputeLineTaxZeroRateIsLegal(t *testing.T) {
	cfg := TaxConfig{Type: TaxExclusive, Rate: ratePtr(0), Product: "Widget", SKU: "W-1"}
	tax, err := ComputeLineTax(cfg, 3, decimal.NewFromInt(50), decimal.Zero)
	require.NoError(t, err)
	require.True(t, tax.IsZero())
}

func TestComputeLineTaxMissingConfig(t *testing.T) {
	_, err := ComputeLineTax(TaxConfig{Type: TaxExclusive, Product: "Widget", SKU: "W-1"}, 1, decimal.NewFromInt(10), decimal.Zero)
	var missing *MissingTaxConfigError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "Widget", missing.Product)

	_, err = ComputeLineTax(TaxConfig{Rate: ratePtr(0.1)}, 1, decimal.NewFromInt(10), decimal.Zero)
	require.ErrorAs(t, err, &missing)
}

func TestExclusiveRoundTrip(t *testing.T) {
	cases := []struct {
		qty                       int
		unitPrice, discount, rate float64
	}{
		{1, 99.99, 0, 0.05},
		{3, 12.34, 5, 0.18},
		{7, 250, 100, 0.28},
		{2, 0, 0, 0.12},
	}
	for _, tc := range cases {
		cfg := TaxConfig{Type: TaxExclusive, Rate: ratePtr(tc.rate), Product: "P", SKU: "S"}
		price := decimal.NewFromFloat(tc.unitPrice)
		discount := decimal.NewFromFloat(tc.discount)
		tax, err := ComputeLineTax(cfg, tc.qty, price, discount)
		require.NoError(t, err)

		net := price.Mul(decimal.NewFromInt(int64(tc.qty))).Sub(discount)
		total := ComputeLineTotal(TaxExclusive, tc.qty, price, discount, tax)
		require.True(t, total.Equal(net.Add(tax)), "qty=%d price=%v", tc.qty, tc.unitPrice)
	}
}

func TestInclusiveRoundTrip(t *testing.T) {
	cfg := TaxConfig{Type: TaxInclusive, Rate: ratePtr(0.18), Product: "P", SKU: "S"}
	price := decimal.NewFromFloat(236)
	tax, err := ComputeLineTax(cfg, 2, price, decimal.NewFromInt(36))
	require.NoError(t, err)

	net := price.Mul(decimal.NewFromInt(2)).Sub(decimal.NewFromInt(36))
	base := net.Div(decimal.NewFromFloat(1.18))
	// tax + base reconstructs net within rounding tolerance.
	diff := tax.Add(base).Sub(net).Abs()
	require.True(t, diff.LessThanOrEqual(decimal.NewFromFloat(0.01)), "diff %s", diff)
}
