package docengine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func saleProduct() ProductInfo {
	sale := decimal.NewFromInt(100)
	cost := decimal.NewFromInt(70)
	mrp := decimal.NewFromInt(120)
	return ProductInfo{
		ID:      1,
		Name:    "Widget",
		SKU:     "W-1",
		HSNCode: "8471",

		CostPrice: &cost,
		SalePrice: &sale,
		MRP:       &mrp,

		PurchaseTaxType: TaxExclusive,
		PurchaseTaxRate: ratePtr(0.12),
		SaleTaxType:     TaxExclusive,
		SaleTaxRate:     ratePtr(0.18),

		AllowOverridePrice: true,
		UnitConversions: map[string]decimal.Decimal{
			"Box": decimal.NewFromInt(12),
		},
	}
}

func TestNewLineFromProductDefaults(t *testing.T) {
	li, err := NewLineFromProduct(saleProduct(), DirectionSale, LineOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, li.Quantity)
	require.True(t, li.UnitPrice.Equal(decimal.NewFromInt(100)))
	require.Equal(t, TaxExclusive, li.TaxType)
	require.True(t, li.Tax.Equal(decimal.NewFromInt(18)))
	require.True(t, li.Total.Equal(decimal.NewFromInt(118)))
	require.NotEmpty(t, li.ID)
}

func TestNewLineFromProductUnitConversion(t *testing.T) {
	li, err := NewLineFromProduct(saleProduct(), DirectionSale, LineOptions{UnitLabel: "Box"})
	require.NoError(t, err)
	// 100 * 12, below the MRP ceiling of 120 * 12.
	require.True(t, li.UnitPrice.Equal(decimal.NewFromInt(1200)))
	require.True(t, li.UnitMultiplier.Equal(decimal.NewFromInt(12)))

	_, err = NewLineFromProduct(saleProduct(), DirectionSale, LineOptions{UnitLabel: "Crate"})
	var incomplete *IncompleteProductDataError
	require.ErrorAs(t, err, &incomplete)
}

func TestNewLineFromProductMissingTaxHolder(t *testing.T) {
	p := saleProduct()
	p.SaleTaxRate = nil
	_, err := NewLineFromProduct(p, DirectionSale, LineOptions{})
	var incomplete *IncompleteProductDataError
	require.ErrorAs(t, err, &incomplete)
	require.Contains(t, incomplete.Missing, "tax")

	// Purchase direction is unaffected.
	_, err = NewLineFromProduct(p, DirectionPurchase, LineOptions{})
	require.NoError(t, err)
}

func TestNewLineFromProductMissingPrice(t *testing.T) {
	p := saleProduct()
	p.CostPrice = nil
	_, err := NewLineFromProduct(p, DirectionPurchase, LineOptions{})
	var incomplete *IncompleteProductDataError
	require.ErrorAs(t, err, &incomplete)
	require.Equal(t, "cost_price", incomplete.Missing)
}

func TestMRPCeilingClampVsError(t *testing.T) {
	override := decimal.NewFromInt(150)

	// Inline editor silently clamps to MRP.
	li, err := NewLineFromProduct(saleProduct(), DirectionSale, LineOptions{
		PriceOverride: &override,
		PriceCeiling:  CeilingClamp,
	})
	require.NoError(t, err)
	require.True(t, li.UnitPrice.Equal(decimal.NewFromInt(120)))

	// Configure flow reports the violation instead.
	_, err = NewLineFromProduct(saleProduct(), DirectionSale, LineOptions{
		PriceOverride: &override,
		PriceCeiling:  CeilingError,
	})
	var mrpErr *PriceExceedsMRPError
	require.ErrorAs(t, err, &mrpErr)
}

func TestSetQuantityClampForGoodsReceipt(t *testing.T) {
	li, err := NewLineFromProduct(saleProduct(), DirectionPurchase, LineOptions{Quantity: 5})
	require.NoError(t, err)
	ordered := 5
	li.OriginalQuantity = &ordered

	pol := PolicyFor(DocGoodsReceipt, true)
	require.NoError(t, li.SetQuantity(pol, 9))
	require.Equal(t, 5, li.Quantity, "edits above ordered quantity clamp, never error")

	require.NoError(t, li.SetQuantity(pol, 3))
	require.Equal(t, 3, li.Quantity)
}

func TestSetQuantityRejectForCreditNote(t *testing.T) {
	li, err := NewLineFromProduct(saleProduct(), DirectionSale, LineOptions{Quantity: 4})
	require.NoError(t, err)
	orig := 4
	li.OriginalQuantity = &orig

	pol := PolicyFor(DocCreditNote, true)
	err = li.SetQuantity(pol, 6)
	var exceeds *QuantityExceedsOriginalError
	require.ErrorAs(t, err, &exceeds)
	require.Equal(t, 4, li.Quantity, "line must be left unchanged")

	require.NoError(t, li.SetQuantity(pol, 2))
	require.Equal(t, 2, li.Quantity)
}

func TestSetQuantityReadOnlyForLinkedInvoice(t *testing.T) {
	li, err := NewLineFromProduct(saleProduct(), DirectionSale, LineOptions{Quantity: 2})
	require.NoError(t, err)

	pol := PolicyFor(DocSaleInvoice, true)
	err = li.SetQuantity(pol, 3)
	var locked *FieldLockedError
	require.ErrorAs(t, err, &locked)
	require.Equal(t, 2, li.Quantity)
}

func TestSetDiscountLocks(t *testing.T) {
	li, err := NewLineFromProduct(saleProduct(), DirectionSale, LineOptions{Quantity: 2})
	require.NoError(t, err)

	// Linked credit note: rejected with an error.
	err = li.SetDiscount(PolicyFor(DocCreditNote, true), SourceInline, decimal.NewFromInt(5))
	var locked *DiscountLockedError
	require.ErrorAs(t, err, &locked)

	// Sales order: configure flow only.
	pol := PolicyFor(DocSalesOrder, false)
	require.ErrorAs(t, li.SetDiscount(pol, SourceInline, decimal.NewFromInt(5)), &locked)
	require.NoError(t, li.SetDiscount(pol, SourceConfigure, decimal.NewFromInt(5)))
	require.True(t, li.Discount.Equal(decimal.NewFromInt(5)))

	// Direct sale invoice: fully editable.
	require.NoError(t, li.SetDiscount(PolicyFor(DocSaleInvoice, false), SourceInline, decimal.NewFromInt(10)))
}

func TestTaxFailureRevertsMutation(t *testing.T) {
	li, err := NewLineFromProduct(saleProduct(), DirectionSale, LineOptions{Quantity: 2})
	require.NoError(t, err)
	li.TaxRate = nil // simulate a product whose tax holder disappeared

	pol := PolicyFor(DocSaleInvoice, false)
	err = li.SetQuantity(pol, 7)
	var missing *MissingTaxConfigError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, 2, li.Quantity, "failed tax computation must revert the edit")
}

func TestTaxFailureZeroForGoodsReceipt(t *testing.T) {
	li, err := NewLineFromProduct(saleProduct(), DirectionPurchase, LineOptions{Quantity: 2})
	require.NoError(t, err)
	li.TaxRate = nil

	pol := PolicyFor(DocGoodsReceipt, false)
	require.NoError(t, li.SetQuantity(pol, 7))
	require.Equal(t, 7, li.Quantity, "GRN commits the edit")
	require.True(t, li.Tax.IsZero(), "GRN forces tax to zero on failure")
}

func TestChangeProductRederivesOpportunistically(t *testing.T) {
	li, err := NewLineFromProduct(saleProduct(), DirectionSale, LineOptions{Quantity: 2, UnitLabel: "Box"})
	require.NoError(t, err)

	other := saleProduct()
	other.ID = 2
	other.Name = "Gadget"
	other.SKU = "G-1"
	price := decimal.NewFromInt(80)
	other.SalePrice = &price
	other.SaleTaxRate = ratePtr(0.05)

	pol := PolicyFor(DocSaleInvoice, false)
	require.NoError(t, li.ChangeProduct(pol, other))
	require.Equal(t, int64(2), li.ProductID)
	require.Equal(t, "Gadget", li.ProductName)
	require.True(t, li.UnitPrice.Equal(decimal.NewFromInt(80)))
	require.True(t, li.UnitMultiplier.Equal(decimal.NewFromInt(1)), "unit selection resets to base")
	require.True(t, li.Tax.Equal(decimal.NewFromInt(8)))
}

func TestInferLinked(t *testing.T) {
	direct := true
	linked := false
	require.False(t, InferLinked(&direct, 42))
	require.True(t, InferLinked(&linked, 0))
	// Legacy rows without the flag fall back to parent id presence.
	require.True(t, InferLinked(nil, 42))
	require.False(t, InferLinked(nil, 0))
}
