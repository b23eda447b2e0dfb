package docengine

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductInfo is the tax-relevant view of a catalog product the engine
// consumes. Nil pointers model absent configuration; absence is a validation
// error at line-creation time, never a default.
type ProductInfo struct {
	ID      int64
	Name    string
	SKU     string
	HSNCode string

	CostPrice *decimal.Decimal
	SalePrice *decimal.Decimal
	MRP       *decimal.Decimal

	PurchaseTaxType TaxType
	PurchaseTaxRate *decimal.Decimal
	SaleTaxType     TaxType
	SaleTaxRate     *decimal.Decimal

	Serialized         bool
	AllowOverridePrice bool

	// UnitConversions maps an alternate packing unit label to its multiplier
	// over the base unit, e.g. "Box" -> 12.
	UnitConversions map[string]decimal.Decimal
}

func (p ProductInfo) taxConfig(dir Direction) TaxConfig {
	cfg := TaxConfig{Product: p.Name, SKU: p.SKU}
	if dir == DirectionPurchase {
		cfg.Type = p.PurchaseTaxType
		cfg.Rate = p.PurchaseTaxRate
	} else {
		cfg.Type = p.SaleTaxType
		cfg.Rate = p.SaleTaxRate
	}
	return cfg
}

func (p ProductInfo) basePrice(dir Direction) *decimal.Decimal {
	if dir == DirectionPurchase {
		return p.CostPrice
	}
	return p.SalePrice
}

// LineItem is one document line. Tax and Total are always derived from
// (quantity, unit price, discount, captured tax config); TaxType and TaxRate
// are frozen at product-selection time rather than re-read from the catalog
// on every recompute.
type LineItem struct {
	ID          string
	ProductID   int64
	ProductName string
	SKU         string
	HSNCode     string

	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal

	TaxType TaxType
	TaxRate *decimal.Decimal

	UnitLabel      string
	UnitMultiplier decimal.Decimal

	// OriginalQuantity/OriginalDiscount are present only on lines propagated
	// from a parent document; they are validation ceilings, not live values.
	OriginalQuantity *int
	OriginalDiscount *decimal.Decimal

	// ParentLineID keeps the parent document line's id for backend linkage.
	ParentLineID int64

	SerialNumbers []string
}

// PriceCeilingMode selects how a sale price above the MRP ceiling is
// handled. The inline editor clamps silently; the product-configure flow
// reports an error. Both behaviors exist in the field and are preserved
// distinctly.
type PriceCeilingMode int

const (
	CeilingClamp PriceCeilingMode = iota
	CeilingError
)

// LineOptions tune NewLineFromProduct.
type LineOptions struct {
	Quantity      int
	Discount      decimal.Decimal
	UnitLabel     string
	PriceOverride *decimal.Decimal
	PriceCeiling  PriceCeilingMode
}

// NewLineFromProduct builds a line item from a selected product, resolving
// the direction price, unit multiplier, MRP ceiling, and derived tax/total.
func NewLineFromProduct(p ProductInfo, dir Direction, opts LineOptions) (LineItem, error) {
	if p.Name == "" {
		return LineItem{}, &IncompleteProductDataError{Product: p.Name, SKU: p.SKU, Missing: "name"}
	}
	if p.SKU == "" {
		return LineItem{}, &IncompleteProductDataError{Product: p.Name, SKU: p.SKU, Missing: "sku"}
	}
	base := p.basePrice(dir)
	if base == nil {
		missing := "sale_price"
		if dir == DirectionPurchase {
			missing = "cost_price"
		}
		return LineItem{}, &IncompleteProductDataError{Product: p.Name, SKU: p.SKU, Missing: missing}
	}
	cfg := p.taxConfig(dir)
	if cfg.Type == "" || cfg.Rate == nil {
		missing := "sale tax configuration"
		if dir == DirectionPurchase {
			missing = "purchase tax configuration"
		}
		return LineItem{}, &IncompleteProductDataError{Product: p.Name, SKU: p.SKU, Missing: missing}
	}

	multiplier := one
	if opts.UnitLabel != "" {
		m, ok := p.UnitConversions[opts.UnitLabel]
		if !ok {
			return LineItem{}, &IncompleteProductDataError{Product: p.Name, SKU: p.SKU, Missing: "unit conversion " + opts.UnitLabel}
		}
		multiplier = m
	}

	unitPrice := base.Mul(multiplier)
	if opts.PriceOverride != nil && p.AllowOverridePrice {
		unitPrice = *opts.PriceOverride
	}
	if dir == DirectionSale && p.MRP != nil {
		ceiling := p.MRP.Mul(multiplier)
		if unitPrice.GreaterThan(ceiling) {
			if opts.PriceCeiling == CeilingError {
				return LineItem{}, &PriceExceedsMRPError{Price: unitPrice.StringFixed(2), Ceiling: ceiling.StringFixed(2)}
			}
			unitPrice = ceiling
		}
	}

	quantity := opts.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	li := LineItem{
		ID:             uuid.NewString(),
		ProductID:      p.ID,
		ProductName:    p.Name,
		SKU:            p.SKU,
		HSNCode:        p.HSNCode,
		Quantity:       quantity,
		UnitPrice:      unitPrice,
		Discount:       opts.Discount,
		TaxType:        cfg.Type,
		TaxRate:        cfg.Rate,
		UnitLabel:      opts.UnitLabel,
		UnitMultiplier: multiplier,
	}
	tax, err := ComputeLineTax(cfg, li.Quantity, li.UnitPrice, li.Discount)
	if err != nil {
		return LineItem{}, err
	}
	li.Tax = tax
	li.Total = ComputeLineTotal(li.TaxType, li.Quantity, li.UnitPrice, li.Discount, tax)
	return li, nil
}

func (li *LineItem) taxConfig() TaxConfig {
	return TaxConfig{Type: li.TaxType, Rate: li.TaxRate, Product: li.ProductName, SKU: li.SKU}
}

// recompute re-derives tax and total after a field edit. On tax failure the
// line reverts, unless the policy forces tax to zero (GRN) in which case the
// edit commits with Tax=0.
func (li *LineItem) recompute(pol DocumentPolicy, prev LineItem) error {
	tax, err := ComputeLineTax(li.taxConfig(), li.Quantity, li.UnitPrice, li.Discount)
	if err != nil {
		if pol.TaxFailure == TaxFailureZero {
			li.Tax = decimal.Zero
			li.Total = ComputeLineTotal(li.TaxType, li.Quantity, li.UnitPrice, li.Discount, decimal.Zero)
			return nil
		}
		*li = prev
		return err
	}
	li.Tax = tax
	li.Total = ComputeLineTotal(li.TaxType, li.Quantity, li.UnitPrice, li.Discount, tax)
	return nil
}

// SetQuantity applies a quantity edit under the document policy. Clamp
// policies never error; reject policies leave the line untouched and return
// the violation.
func (li *LineItem) SetQuantity(pol DocumentPolicy, quantity int) error {
	if quantity < 0 {
		return ErrInvalidValue
	}
	switch pol.Quantity {
	case QuantityReadOnly:
		return &FieldLockedError{Field: FieldQuantity}
	case QuantityClampToOriginal:
		if li.OriginalQuantity != nil && quantity > *li.OriginalQuantity {
			quantity = *li.OriginalQuantity
		}
	case QuantityRejectAboveOriginal:
		if li.OriginalQuantity != nil && quantity > *li.OriginalQuantity {
			return &QuantityExceedsOriginalError{Entered: quantity, Original: *li.OriginalQuantity}
		}
	}
	prev := *li
	li.Quantity = quantity
	return li.recompute(pol, prev)
}

// SetUnitPrice applies a unit-price edit. Prices come from the product and
// are normally immutable from the inline table, but remain recomputable for
// flows that are allowed to override.
func (li *LineItem) SetUnitPrice(pol DocumentPolicy, price decimal.Decimal) error {
	if price.IsNegative() {
		return ErrInvalidValue
	}
	prev := *li
	li.UnitPrice = price
	return li.recompute(pol, prev)
}

// SetDiscount applies a discount edit under the document policy.
func (li *LineItem) SetDiscount(pol DocumentPolicy, src MutateSource, discount decimal.Decimal) error {
	if discount.IsNegative() {
		return ErrInvalidValue
	}
	switch pol.Discount {
	case DiscountReadOnly:
		return &DiscountLockedError{}
	case DiscountConfigureOnly:
		if src != SourceConfigure {
			return &DiscountLockedError{}
		}
	}
	prev := *li
	li.Discount = discount
	return li.recompute(pol, prev)
}

// ChangeProduct re-resolves display fields, base price, and tax capture from
// a different product. Tax config is re-derived opportunistically rather than
// strictly re-validated; a later recompute surfaces any gap.
func (li *LineItem) ChangeProduct(pol DocumentPolicy, p ProductInfo) error {
	prev := *li
	li.ProductID = p.ID
	li.ProductName = p.Name
	li.SKU = p.SKU
	li.HSNCode = p.HSNCode
	li.UnitLabel = ""
	li.UnitMultiplier = one
	if base := p.basePrice(pol.Direction); base != nil {
		li.UnitPrice = *base
	}
	cfg := p.taxConfig(pol.Direction)
	li.TaxType = cfg.Type
	li.TaxRate = cfg.Rate
	return li.recompute(pol, prev)
}
