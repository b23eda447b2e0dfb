package docengine

import (
	"errors"
	"fmt"
)

// ErrInvalidValue reports a field value that is out of range (negative
// quantity, negative price) before any policy check runs.
var ErrInvalidValue = errors.New("docengine: invalid field value")

// MissingTaxConfigError indicates a product without a tax type or tax rate
// for the requested direction. A zero rate is legal; an absent rate holder is
// not.
type MissingTaxConfigError struct {
	Product string
	SKU     string
}

func (e *MissingTaxConfigError) Error() string {
	return fmt.Sprintf("product %s (%s) is missing required tax information", e.Product, e.SKU)
}

// IncompleteProductDataError blocks line creation when the selected product
// lacks a field the document direction needs.
type IncompleteProductDataError struct {
	Product string
	SKU     string
	Missing string
}

func (e *IncompleteProductDataError) Error() string {
	return fmt.Sprintf("product %s (%s) is missing %s", e.Product, e.SKU, e.Missing)
}

// QuantityExceedsOriginalError rejects a linked-mode quantity edit above the
// quantity carried from the parent document.
type QuantityExceedsOriginalError struct {
	Entered  int
	Original int
}

func (e *QuantityExceedsOriginalError) Error() string {
	return fmt.Sprintf("quantity %d exceeds original quantity %d", e.Entered, e.Original)
}

// FieldLockedError rejects an edit to a field the document policy freezes.
type FieldLockedError struct {
	Field Field
}

func (e *FieldLockedError) Error() string {
	return fmt.Sprintf("%s is not editable for this document", e.Field)
}

// DiscountLockedError rejects a discount edit in a document mode that
// inherits discounts from a parent.
type DiscountLockedError struct{}

func (e *DiscountLockedError) Error() string {
	return "discount is inherited from the parent document and cannot be changed"
}

// PriceExceedsMRPError reports a sale unit price above the product's MRP
// ceiling. Only the configure flow raises it; the inline editor clamps.
type PriceExceedsMRPError struct {
	Price   string
	Ceiling string
}

func (e *PriceExceedsMRPError) Error() string {
	return fmt.Sprintf("unit price %s exceeds MRP ceiling %s", e.Price, e.Ceiling)
}

// SerialCountMismatchError reports a serial list whose size differs from
// quantity times the unit multiplier.
type SerialCountMismatchError struct {
	Required int
	Got      int
}

func (e *SerialCountMismatchError) Error() string {
	return fmt.Sprintf("expected %d serial numbers, got %d", e.Required, e.Got)
}

// DuplicateSerialError names the first serial repeated within one line.
type DuplicateSerialError struct {
	Serial string
}

func (e *DuplicateSerialError) Error() string {
	return fmt.Sprintf("duplicate serial number %q", e.Serial)
}

// SerialUnavailableError reports a serial outside the available pool when
// selling.
type SerialUnavailableError struct {
	Serial string
}

func (e *SerialUnavailableError) Error() string {
	return fmt.Sprintf("serial number %q is not available for this product", e.Serial)
}

// SerialCollisionError aborts a document save when a serial intended for
// receiving already exists in the registry.
type SerialCollisionError struct {
	Serial    string
	LineIndex int
}

func (e *SerialCollisionError) Error() string {
	return fmt.Sprintf("serial number %q on line %d already exists in inventory", e.Serial, e.LineIndex)
}

// ParentLoadError wraps a failed parent-document fetch. The item list is
// cleared and no automatic retry happens beyond the single auto-load pass.
type ParentLoadError struct {
	ParentID int64
	Err      error
}

func (e *ParentLoadError) Error() string {
	return fmt.Sprintf("load parent document %d: %v", e.ParentID, e.Err)
}

func (e *ParentLoadError) Unwrap() error { return e.Err }
