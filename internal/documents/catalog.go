package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/docengine"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/products"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/taxes"
)

// Catalog resolves a product and its tax rows into the engine's product view.
// Missing tax references stay unresolved; the engine decides whether that is
// fatal for the direction in play.
type Catalog struct {
	products *products.Service
	taxes    *taxes.Service
}

// NewCatalog builds Catalog.
func NewCatalog(productSvc *products.Service, taxSvc *taxes.Service) *Catalog {
	return &Catalog{products: productSvc, taxes: taxSvc}
}

// EngineInfo loads one product with its purchase and sale tax rows resolved.
func (c *Catalog) EngineInfo(ctx context.Context, productID int64) (docengine.ProductInfo, error) {
	p, err := c.products.Get(ctx, productID)
	if err != nil {
		return docengine.ProductInfo{}, fmt.Errorf("load product %d: %w", productID, err)
	}
	purchaseTax, err := c.resolveTax(ctx, p.PurchaseTaxID)
	if err != nil {
		return docengine.ProductInfo{}, err
	}
	salesTax, err := c.resolveTax(ctx, p.SalesTaxID)
	if err != nil {
		return docengine.ProductInfo{}, err
	}
	return products.EngineInfo(p, purchaseTax, salesTax), nil
}

// resolveTax loads the referenced tax row. A dangling reference resolves to
// nil so the engine can report the product as unconfigured; any other lookup
// failure is an infrastructure error and propagates.
func (c *Catalog) resolveTax(ctx context.Context, id *int64) (*taxes.Tax, error) {
	if id == nil {
		return nil, nil
	}
	t, err := c.taxes.Get(ctx, *id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load tax %d: %w", *id, err)
	}
	return &t, nil
}
