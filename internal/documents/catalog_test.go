package documents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/products"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/taxes"
)

type stubProductRepo struct {
	product products.Product
}

func (r stubProductRepo) List(ctx context.Context, f shared.ListFilters) ([]products.Product, int, error) {
	return nil, 0, nil
}

func (r stubProductRepo) Get(ctx context.Context, id int64) (products.Product, error) {
	if id != r.product.ID {
		return products.Product{}, shared.ErrNotFound
	}
	return r.product, nil
}

func (r stubProductRepo) GetBySKU(ctx context.Context, sku string) (products.Product, error) {
	return products.Product{}, shared.ErrNotFound
}

func (r stubProductRepo) Create(ctx context.Context, p products.Product) (products.Product, error) {
	return p, nil
}

func (r stubProductRepo) Update(ctx context.Context, id int64, p products.Product) error {
	return nil
}

func (r stubProductRepo) Delete(ctx context.Context, id int64) error { return nil }

type stubTaxRepo struct {
	rows map[int64]taxes.Tax
	fail error
}

func (r stubTaxRepo) List(ctx context.Context, f shared.ListFilters) ([]taxes.Tax, int, error) {
	return nil, 0, nil
}

func (r stubTaxRepo) Get(ctx context.Context, id int64) (taxes.Tax, error) {
	if r.fail != nil {
		return taxes.Tax{}, r.fail
	}
	t, ok := r.rows[id]
	if !ok {
		return taxes.Tax{}, shared.ErrNotFound
	}
	return t, nil
}

func (r stubTaxRepo) Create(ctx context.Context, t taxes.Tax) (taxes.Tax, error) { return t, nil }

func (r stubTaxRepo) Update(ctx context.Context, id int64, t taxes.Tax) error { return nil }

func (r stubTaxRepo) Delete(ctx context.Context, id int64) error { return nil }

func catalogProduct() products.Product {
	cost := 200.0
	purchaseTax := int64(7)
	salesTax := int64(8)
	return products.Product{
		ID: 2, SKU: "AP-01", Name: "Access Point",
		CostPrice:     &cost,
		PurchaseTaxID: &purchaseTax,
		SalesTaxID:    &salesTax,
	}
}

func newCatalog(taxRepo stubTaxRepo) *Catalog {
	return NewCatalog(
		products.NewService(stubProductRepo{product: catalogProduct()}),
		taxes.NewService(taxRepo),
	)
}

func TestEngineInfoResolvesTaxRows(t *testing.T) {
	cat := newCatalog(stubTaxRepo{rows: map[int64]taxes.Tax{
		7: {ID: 7, Code: "GST18", Rate: 18, Type: taxes.TaxTypeExclusive},
		8: {ID: 8, Code: "GST12", Rate: 12, Type: taxes.TaxTypeInclusive},
	}})

	info, err := cat.EngineInfo(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, info.PurchaseTaxRate)
	require.Equal(t, "0.18", info.PurchaseTaxRate.String())
	require.NotNil(t, info.SaleTaxRate)
	require.Equal(t, "0.12", info.SaleTaxRate.String())
}

func TestEngineInfoTreatsDanglingTaxAsUnconfigured(t *testing.T) {
	cat := newCatalog(stubTaxRepo{rows: map[int64]taxes.Tax{
		7: {ID: 7, Code: "GST18", Rate: 18, Type: taxes.TaxTypeExclusive},
	}})

	info, err := cat.EngineInfo(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, info.PurchaseTaxRate)
	require.Nil(t, info.SaleTaxRate, "a dangling tax reference leaves the direction unset")
}

func TestEngineInfoPropagatesTaxLookupFailure(t *testing.T) {
	dbErr := errors.New("connection refused")
	cat := newCatalog(stubTaxRepo{fail: dbErr})

	_, err := cat.EngineInfo(context.Background(), 2)
	require.ErrorIs(t, err, dbErr)
}
