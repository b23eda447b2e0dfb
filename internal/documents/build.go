package documents

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/docengine"
)

// ProductResolver is the catalog port the builder loads products through.
type ProductResolver interface {
	EngineInfo(ctx context.Context, productID int64) (docengine.ProductInfo, error)
}

// LineRequest is one requested line on a direct document.
type LineRequest struct {
	ProductID int64    `json:"product_id" validate:"required,gt=0"`
	Quantity  int      `json:"quantity" validate:"gte=0"`
	UnitLabel string   `json:"unit_label,omitempty" validate:"max=30"`
	Discount  float64  `json:"discount" validate:"gte=0"`
	UnitPrice *float64 `json:"unit_price,omitempty"`
	Serials   []string `json:"serials,omitempty"`
	LineOrder int      `json:"line_order" validate:"gte=0"`
}

// LinkedLineRequest adjusts one propagated line on a linked document. Fields
// left nil keep the inherited value; the document policy decides whether an
// edit is accepted at all.
type LinkedLineRequest struct {
	ParentLineID int64    `json:"parent_line_id" validate:"required,gt=0"`
	Quantity     *int     `json:"quantity,omitempty"`
	Discount     *float64 `json:"discount,omitempty"`
	Serials      []string `json:"serials,omitempty"`
}

// Builder turns line requests into fully computed document lines.
type Builder struct {
	catalog ProductResolver
}

// NewBuilder builds Builder.
func NewBuilder(catalog ProductResolver) *Builder {
	return &Builder{catalog: catalog}
}

// BuildLines resolves each request against the catalog and derives tax and
// total under the document policy. Requested discounts go through the
// configure flow, which is the only path that may set them on planning
// documents.
func (b *Builder) BuildLines(ctx context.Context, pol docengine.DocumentPolicy, ceiling docengine.PriceCeilingMode, reqs []LineRequest) ([]Line, error) {
	lines := make([]Line, 0, len(reqs))
	for i, req := range reqs {
		info, err := b.catalog.EngineInfo(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		opts := docengine.LineOptions{
			Quantity:     req.Quantity,
			Discount:     decimal.NewFromFloat(req.Discount),
			UnitLabel:    req.UnitLabel,
			PriceCeiling: ceiling,
		}
		if req.UnitPrice != nil {
			p := decimal.NewFromFloat(*req.UnitPrice)
			opts.PriceOverride = &p
		}
		li, err := docengine.NewLineFromProduct(info, pol.Direction, opts)
		if err != nil {
			return nil, err
		}
		li.SerialNumbers = normalizeSerials(req.Serials)
		line := FromEngine(li, info.Serialized)
		line.LineOrder = req.LineOrder
		if line.LineOrder == 0 {
			line.LineOrder = i + 1
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// BuildLinkedLines propagates the parent document's lines and applies the
// requested per-line adjustments under the document policy. Constraint
// violations surface as engine errors with the parent state intact.
func (b *Builder) BuildLinkedLines(ctx context.Context, pol docengine.DocumentPolicy, fetch docengine.ParentFetcher, parentID int64, edits []LinkedLineRequest) ([]Line, error) {
	prop := docengine.NewPropagator(pol.Doc, fetch)
	items, err := prop.SelectParent(ctx, parentID)
	if err != nil {
		return nil, err
	}
	byParentLine := make(map[int64]*docengine.LineItem, len(items))
	for i := range items {
		byParentLine[items[i].ParentLineID] = &items[i]
	}
	for _, edit := range edits {
		li, ok := byParentLine[edit.ParentLineID]
		if !ok {
			return nil, fmt.Errorf("documents: parent line %d not found on document %d", edit.ParentLineID, parentID)
		}
		if edit.Quantity != nil {
			if err := li.SetQuantity(pol, *edit.Quantity); err != nil {
				return nil, err
			}
		}
		if edit.Discount != nil {
			if err := li.SetDiscount(pol, docengine.SourceInline, decimal.NewFromFloat(*edit.Discount)); err != nil {
				return nil, err
			}
		}
		if len(edit.Serials) > 0 {
			li.SerialNumbers = normalizeSerials(edit.Serials)
		}
	}
	lines := make([]Line, 0, len(items))
	for i, li := range items {
		serialized, err := b.isSerialized(ctx, li.ProductID)
		if err != nil {
			return nil, err
		}
		line := FromEngine(li, serialized)
		line.LineOrder = i + 1
		lines = append(lines, line)
	}
	return lines, nil
}

func (b *Builder) isSerialized(ctx context.Context, productID int64) (bool, error) {
	info, err := b.catalog.EngineInfo(ctx, productID)
	if err != nil {
		return false, err
	}
	return info.Serialized, nil
}

// SerialPool is the available-serial store consulted when selling.
type SerialPool interface {
	AvailableSerials(ctx context.Context, productID int64) ([]string, error)
}

// ValidateSerials gates save for serialized lines. Receiving additionally
// cross-checks the persisted registry; selling draws from the available pool.
// Non-serialized lines are skipped entirely.
func ValidateSerials(ctx context.Context, sctx docengine.SerialContext, lines []Line, pool SerialPool, registry docengine.SerialRegistry) error {
	// registry items keep document order so a collision error names the
	// offending line's index
	items := make([]docengine.LineItem, 0, len(lines))
	for _, l := range lines {
		li := l.Engine()
		if !l.Serialized {
			li.SerialNumbers = nil
			items = append(items, li)
			continue
		}
		var available []string
		if sctx == docengine.ContextSelling && pool != nil {
			var err error
			available, err = pool.AvailableSerials(ctx, l.ProductID)
			if err != nil {
				return err
			}
		}
		if err := docengine.ValidateSerials(sctx, li, available); err != nil {
			return err
		}
		items = append(items, li)
	}
	if sctx == docengine.ContextReceiving && registry != nil {
		return docengine.CheckRegistryCollisions(ctx, registry, items)
	}
	return nil
}

func normalizeSerials(serials []string) []string {
	if len(serials) == 0 {
		return nil
	}
	out := make([]string, 0, len(serials))
	for _, s := range serials {
		out = append(out, docengine.NormalizeSerial(s))
	}
	return out
}
