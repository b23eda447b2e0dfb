package docengine

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	parents map[int64]ParentDocument
	err     error
	calls   int
}

func (f *stubFetcher) FetchParent(ctx context.Context, parentID int64) (ParentDocument, error) {
	f.calls++
	if f.err != nil {
		return ParentDocument{}, f.err
	}
	doc, ok := f.parents[parentID]
	if !ok {
		return ParentDocument{}, errors.New("not found")
	}
	return doc, nil
}

func parentWithLines() ParentDocument {
	return ParentDocument{
		ID:     7,
		Number: "SO-2609-0001",
		Lines: []ParentLine{
			{
				ID: 71, ProductID: 1, ProductName: "Widget", SKU: "W-1",
				Quantity: 3, UnitPrice: decimal.NewFromInt(100), Discount: decimal.NewFromInt(10),
				Tax: decimal.NewFromFloat(52.20), Total: decimal.NewFromFloat(342.20),
				TaxType: TaxExclusive, TaxRate: ratePtr(0.18),
			},
			{
				ID: 72, ProductID: 2, ProductName: "Gadget", SKU: "G-1",
				Quantity: 1, UnitPrice: decimal.NewFromInt(50),
				TaxType: TaxExclusive, TaxRate: ratePtr(0.05),
			},
		},
	}
}

func TestSelectParentPopulatesItems(t *testing.T) {
	fetch := &stubFetcher{parents: map[int64]ParentDocument{7: parentWithLines()}}
	p := NewPropagator(DocSaleInvoice, fetch)
	require.Equal(t, StateUnlinked, p.State())

	items, err := p.SelectParent(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, StatePopulated, p.State())
	require.Len(t, items, 2)

	first := items[0]
	require.Equal(t, int64(71), first.ParentLineID, "parent line id kept for backend linkage")
	require.NotEmpty(t, first.ID)
	require.NotEqual(t, "71", first.ID, "child ids are freshly synthesized")
	require.NotNil(t, first.OriginalQuantity)
	require.Equal(t, 3, *first.OriginalQuantity)
	require.NotNil(t, first.OriginalDiscount)
	require.True(t, first.OriginalDiscount.Equal(decimal.NewFromInt(10)))
	require.True(t, first.UnitMultiplier.Equal(decimal.NewFromInt(1)), "zero parent multiplier defaults to base unit")
}

func TestSelectParentFailureClearsItems(t *testing.T) {
	fetch := &stubFetcher{parents: map[int64]ParentDocument{7: parentWithLines()}}
	p := NewPropagator(DocSaleInvoice, fetch)

	_, err := p.SelectParent(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, p.Items(), 2)

	fetch.err = errors.New("boom")
	_, err = p.SelectParent(context.Background(), 9)
	var loadErr *ParentLoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, int64(9), loadErr.ParentID)
	require.Equal(t, StateError, p.State())
	require.Empty(t, p.Items(), "previous items are discarded unconditionally")
}

func TestReselectDiscardsEdits(t *testing.T) {
	fetch := &stubFetcher{parents: map[int64]ParentDocument{7: parentWithLines()}}
	p := NewPropagator(DocGoodsReceipt, fetch)

	items, err := p.SelectParent(context.Background(), 7)
	require.NoError(t, err)
	items[0].Quantity = 1

	fresh, err := p.SelectParent(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 3, fresh[0].Quantity, "no merge with prior edits")
}

func TestAutoLoadRunsOncePerKey(t *testing.T) {
	fetch := &stubFetcher{err: errors.New("down")}
	p := NewPropagator(DocSaleInvoice, fetch)

	_, attempted, err := p.AutoLoad(context.Background(), 11, 7)
	require.True(t, attempted)
	require.Error(t, err)
	require.Equal(t, 1, fetch.calls)

	// Same key: no second attempt, no loop.
	_, attempted, err = p.AutoLoad(context.Background(), 11, 7)
	require.False(t, attempted)
	require.NoError(t, err)
	require.Equal(t, 1, fetch.calls)

	// Distinct parent gets its own single attempt.
	_, attempted, _ = p.AutoLoad(context.Background(), 11, 8)
	require.True(t, attempted)
	require.Equal(t, 2, fetch.calls)
}

func TestAutoLoadSkipsPopulatedList(t *testing.T) {
	fetch := &stubFetcher{parents: map[int64]ParentDocument{7: parentWithLines()}}
	p := NewPropagator(DocSaleInvoice, fetch)
	_, err := p.SelectParent(context.Background(), 7)
	require.NoError(t, err)

	_, attempted, err := p.AutoLoad(context.Background(), 11, 7)
	require.NoError(t, err)
	require.False(t, attempted, "populated lists are never reloaded")
}
