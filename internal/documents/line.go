package documents

import (
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/docengine"
)

// Line is the persisted shape of one document line, shared by all five
// document types. Money fields are stored as plain numerics; the engine works
// in decimals and the conversions below bridge the two.
type Line struct {
	ID          int64  `json:"id"`
	LineID      string `json:"line_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	HSNCode     string `json:"hsn_code"`

	Quantity       int     `json:"quantity"`
	UnitLabel      string  `json:"unit_label,omitempty"`
	UnitMultiplier float64 `json:"unit_multiplier"`
	UnitPrice      float64 `json:"unit_price"`
	Discount       float64 `json:"discount"`
	TaxType        string  `json:"tax_type"`
	TaxRate        float64 `json:"tax_rate"`
	TaxAmount      float64 `json:"tax_amount"`
	LineTotal      float64 `json:"line_total"`

	Serialized bool     `json:"serialized"`
	Serials    []string `json:"serials,omitempty"`

	ParentLineID     int64    `json:"parent_line_id,omitempty"`
	OriginalQuantity *int     `json:"original_quantity,omitempty"`
	OriginalDiscount *float64 `json:"original_discount,omitempty"`

	LineOrder int `json:"line_order"`
}

// Totals is the persisted document aggregate.
type Totals struct {
	Subtotal           float64 `json:"subtotal"`
	DiscountAmount     float64 `json:"discount_amount"`
	TaxAmount          float64 `json:"tax_amount"`
	RoundingAdjustment float64 `json:"rounding_adjustment"`
	TotalAmount        float64 `json:"total_amount"`
}

// Engine converts a persisted line back into the engine's shape. A line with
// no tax type captures a nil rate, which the engine reports as missing
// configuration on the next recompute.
func (l Line) Engine() docengine.LineItem {
	li := docengine.LineItem{
		ID:             l.LineID,
		ProductID:      l.ProductID,
		ProductName:    l.ProductName,
		SKU:            l.SKU,
		HSNCode:        l.HSNCode,
		Quantity:       l.Quantity,
		UnitPrice:      decimal.NewFromFloat(l.UnitPrice),
		Discount:       decimal.NewFromFloat(l.Discount),
		Tax:            decimal.NewFromFloat(l.TaxAmount),
		Total:          decimal.NewFromFloat(l.LineTotal),
		TaxType:        docengine.TaxType(l.TaxType),
		UnitLabel:      l.UnitLabel,
		UnitMultiplier: decimal.NewFromFloat(l.UnitMultiplier),
		ParentLineID:   l.ParentLineID,
		SerialNumbers:  l.Serials,
	}
	if l.TaxType != "" {
		rate := decimal.NewFromFloat(l.TaxRate)
		li.TaxRate = &rate
	}
	if l.OriginalQuantity != nil {
		q := *l.OriginalQuantity
		li.OriginalQuantity = &q
	}
	if l.OriginalDiscount != nil {
		d := decimal.NewFromFloat(*l.OriginalDiscount)
		li.OriginalDiscount = &d
	}
	return li
}

// FromEngine converts an engine line item into the persisted shape.
// Serialized is carried separately; the engine does not track it per line.
func FromEngine(li docengine.LineItem, serialized bool) Line {
	l := Line{
		LineID:         li.ID,
		ProductID:      li.ProductID,
		ProductName:    li.ProductName,
		SKU:            li.SKU,
		HSNCode:        li.HSNCode,
		Quantity:       li.Quantity,
		UnitLabel:      li.UnitLabel,
		UnitMultiplier: li.UnitMultiplier.InexactFloat64(),
		UnitPrice:      li.UnitPrice.InexactFloat64(),
		Discount:       li.Discount.InexactFloat64(),
		TaxType:        string(li.TaxType),
		TaxAmount:      li.Tax.InexactFloat64(),
		LineTotal:      li.Total.InexactFloat64(),
		Serialized:     serialized,
		Serials:        li.SerialNumbers,
		ParentLineID:   li.ParentLineID,
	}
	if li.TaxRate != nil {
		l.TaxRate = li.TaxRate.InexactFloat64()
	}
	if li.OriginalQuantity != nil {
		q := *li.OriginalQuantity
		l.OriginalQuantity = &q
	}
	if li.OriginalDiscount != nil {
		d := li.OriginalDiscount.InexactFloat64()
		l.OriginalDiscount = &d
	}
	return l
}

// ParentLine converts a persisted line into the parent shape the propagator
// maps from when a child document is created against this one.
func (l Line) ParentLine() docengine.ParentLine {
	pl := docengine.ParentLine{
		ID:             l.ID,
		ProductID:      l.ProductID,
		ProductName:    l.ProductName,
		SKU:            l.SKU,
		HSNCode:        l.HSNCode,
		Quantity:       l.Quantity,
		UnitPrice:      decimal.NewFromFloat(l.UnitPrice),
		Discount:       decimal.NewFromFloat(l.Discount),
		Tax:            decimal.NewFromFloat(l.TaxAmount),
		Total:          decimal.NewFromFloat(l.LineTotal),
		TaxType:        docengine.TaxType(l.TaxType),
		UnitLabel:      l.UnitLabel,
		UnitMultiplier: decimal.NewFromFloat(l.UnitMultiplier),
	}
	if l.TaxType != "" {
		rate := decimal.NewFromFloat(l.TaxRate)
		pl.TaxRate = &rate
	}
	return pl
}

// ComputeTotals aggregates persisted lines under the configured rounding
// policy.
func ComputeTotals(lines []Line, policy docengine.RoundingPolicy) Totals {
	items := make([]docengine.LineItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, l.Engine())
	}
	t := docengine.Aggregate(items, policy)
	return Totals{
		Subtotal:           t.Subtotal.InexactFloat64(),
		DiscountAmount:     t.DiscountAmount.InexactFloat64(),
		TaxAmount:          t.TaxAmount.InexactFloat64(),
		RoundingAdjustment: t.RoundingAdjustment.InexactFloat64(),
		TotalAmount:        t.TotalAmount.InexactFloat64(),
	}
}
