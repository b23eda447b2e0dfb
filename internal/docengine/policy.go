package docengine

// DocType identifies one of the five transactional documents.
type DocType string

const (
	DocPurchaseOrder DocType = "purchase_order"
	DocGoodsReceipt  DocType = "goods_receipt"
	DocSalesOrder    DocType = "sales_order"
	DocSaleInvoice   DocType = "sale_invoice"
	DocCreditNote    DocType = "credit_note"
)

// Direction selects which of a product's price/tax pairs a document reads.
type Direction string

const (
	DirectionPurchase Direction = "purchase"
	DirectionSale     Direction = "sale"
)

// DirectionFor returns the price/tax direction of a document type.
func DirectionFor(doc DocType) Direction {
	switch doc {
	case DocPurchaseOrder, DocGoodsReceipt:
		return DirectionPurchase
	default:
		return DirectionSale
	}
}

// Field names a mutable line-item field.
type Field string

const (
	FieldQuantity  Field = "quantity"
	FieldUnitPrice Field = "unit_price"
	FieldDiscount  Field = "discount"
	FieldProduct   Field = "product"
)

// MutateSource distinguishes the inline table editor from the dedicated
// configure-product flow; some policies allow discount edits only from the
// latter.
type MutateSource int

const (
	SourceInline MutateSource = iota
	SourceConfigure
)

// QuantityRule is the linked-mode quantity enforcement strategy. The three
// linked documents each picked a different one and the divergence is kept
// deliberately.
type QuantityRule int

const (
	// QuantityEditable allows any non-negative quantity.
	QuantityEditable QuantityRule = iota
	// QuantityClampToOriginal silently caps at the parent quantity (GRN).
	QuantityClampToOriginal
	// QuantityRejectAboveOriginal errors above the parent quantity and
	// leaves the line unchanged (credit note).
	QuantityRejectAboveOriginal
	// QuantityReadOnly rejects any edit (sale invoice, linked).
	QuantityReadOnly
)

// DiscountRule is the discount enforcement strategy.
type DiscountRule int

const (
	DiscountEditable DiscountRule = iota
	// DiscountConfigureOnly allows edits from the configure flow but not the
	// inline table (PO, sales order).
	DiscountConfigureOnly
	// DiscountReadOnly rejects any edit; the value is inherited from the
	// parent document.
	DiscountReadOnly
)

// TaxFailureMode states what a field edit does when tax computation fails.
type TaxFailureMode int

const (
	// TaxFailureReject reverts the edit and keeps the prior line state.
	TaxFailureReject TaxFailureMode = iota
	// TaxFailureZero commits the edit with tax forced to zero. Only the GRN
	// editor does this; likely a bug in the behavior being preserved, so it
	// must not spread to other documents.
	TaxFailureZero
)

// DocumentPolicy describes the mode-dependent field locks of one document.
type DocumentPolicy struct {
	Doc        DocType
	Direction  Direction
	Linked     bool
	Quantity   QuantityRule
	Discount   DiscountRule
	TaxFailure TaxFailureMode
}

// PolicyFor returns the authoritative field-lock policy for a document type
// and mode.
func PolicyFor(doc DocType, linked bool) DocumentPolicy {
	p := DocumentPolicy{
		Doc:        doc,
		Direction:  DirectionFor(doc),
		Linked:     linked,
		Quantity:   QuantityEditable,
		Discount:   DiscountEditable,
		TaxFailure: TaxFailureReject,
	}
	switch doc {
	case DocGoodsReceipt:
		p.TaxFailure = TaxFailureZero
		if linked {
			p.Quantity = QuantityClampToOriginal
			p.Discount = DiscountReadOnly
		}
	case DocSaleInvoice:
		if linked {
			p.Quantity = QuantityReadOnly
			p.Discount = DiscountReadOnly
		}
	case DocCreditNote:
		if linked {
			p.Quantity = QuantityRejectAboveOriginal
			p.Discount = DiscountReadOnly
		}
	case DocPurchaseOrder, DocSalesOrder:
		// No linked mode; inline discount edits go through the configure
		// flow only.
		p.Linked = false
		p.Discount = DiscountConfigureOnly
	}
	return p
}

// InferLinked decides a persisted document's mode. Documents store an
// is_direct flag; legacy rows without it fall back to whether a parent id is
// populated.
func InferLinked(isDirect *bool, parentID int64) bool {
	if isDirect != nil {
		return !*isDirect
	}
	return parentID != 0
}
