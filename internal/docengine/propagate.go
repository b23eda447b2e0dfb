package docengine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LinkState is the linked-document loading state.
type LinkState string

const (
	StateUnlinked  LinkState = "unlinked"
	StateLoading   LinkState = "loading"
	StatePopulated LinkState = "populated"
	StateError     LinkState = "error"
)

// ParentLine is one line of a parent document in the parent's own shape.
type ParentLine struct {
	ID          int64
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
}

// ParentDocument is the fetched header + lines of the document a child is
// created against.
type ParentDocument struct {
	ID     int64
	Number string
	Lines  []ParentLine
}

// ParentFetcher loads a parent document by id. Implemented by the document
// repositories.
type ParentFetcher interface {
	FetchParent(ctx context.Context, parentID int64) (ParentDocument, error)
}

// MapParentLine converts one parent line into the child's line-item shape. A
// fresh id is synthesized; the parent line's id is kept as ParentLineID for
// backend linkage, and the parent quantity/discount are carried as
// constraint ceilings.
func MapParentLine(pl ParentLine) LineItem {
	origQty := pl.Quantity
	origDiscount := pl.Discount
	multiplier := pl.UnitMultiplier
	if multiplier.IsZero() {
		multiplier = one
	}
	return LineItem{
		ID:               uuid.NewString(),
		ProductID:        pl.ProductID,
		ProductName:      pl.ProductName,
		SKU:              pl.SKU,
		HSNCode:          pl.HSNCode,
		Quantity:         pl.Quantity,
		UnitPrice:        pl.UnitPrice,
		Discount:         pl.Discount,
		Tax:              pl.Tax,
		Total:            pl.Total,
		TaxType:          pl.TaxType,
		TaxRate:          pl.TaxRate,
		UnitLabel:        pl.UnitLabel,
		UnitMultiplier:   multiplier,
		OriginalQuantity: &origQty,
		OriginalDiscount: &origDiscount,
		ParentLineID:     pl.ID,
	}
}

type autoLoadKey struct {
	documentID int64
	parentID   int64
}

// Propagator drives the linked-mode state machine of one document-editing
// session. It is not safe for concurrent use; each session owns one.
type Propagator struct {
	doc       DocType
	fetch     ParentFetcher
	state     LinkState
	parentID  int64
	parent    ParentDocument
	items     []LineItem
	attempted map[autoLoadKey]struct{}
}

// NewPropagator builds a propagator starting in the unlinked state.
func NewPropagator(doc DocType, fetch ParentFetcher) *Propagator {
	return &Propagator{
		doc:       doc,
		fetch:     fetch,
		state:     StateUnlinked,
		attempted: make(map[autoLoadKey]struct{}),
	}
}

// State returns the current link state.
func (p *Propagator) State() LinkState { return p.state }

// Parent returns the last successfully loaded parent document.
func (p *Propagator) Parent() ParentDocument { return p.parent }

// Items returns the current propagated line items.
func (p *Propagator) Items() []LineItem { return p.items }

// SelectParent loads the parent document and maps its lines into child line
// items. Re-selecting discards any previously propagated (and possibly
// edited) items unconditionally. On fetch failure the item list is left
// empty and the state moves to error; there is no automatic retry.
func (p *Propagator) SelectParent(ctx context.Context, parentID int64) ([]LineItem, error) {
	if parentID == 0 {
		return nil, fmt.Errorf("docengine: parent id required")
	}
	p.state = StateLoading
	p.items = nil
	parent, err := p.fetch.FetchParent(ctx, parentID)
	if err != nil {
		p.state = StateError
		return nil, &ParentLoadError{ParentID: parentID, Err: err}
	}
	p.parentID = parentID
	p.parent = parent
	p.items = make([]LineItem, 0, len(parent.Lines))
	for _, pl := range parent.Lines {
		p.items = append(p.items, MapParentLine(pl))
	}
	p.state = StatePopulated
	return p.items, nil
}

// AutoLoad re-attempts loading a linked document's empty item list exactly
// once per (documentID, parentID) key per session. The bool reports whether
// a load was attempted at all.
func (p *Propagator) AutoLoad(ctx context.Context, documentID, parentID int64) ([]LineItem, bool, error) {
	if parentID == 0 || len(p.items) > 0 {
		return p.items, false, nil
	}
	key := autoLoadKey{documentID: documentID, parentID: parentID}
	if _, done := p.attempted[key]; done {
		return nil, false, nil
	}
	p.attempted[key] = struct{}{}
	items, err := p.SelectParent(ctx, parentID)
	return items, true, err
}
