package docengine

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// SerialContext states why serials are being validated. Planning documents
// (PO, sales order) never carry serials; receiving creates them, selling
// consumes them.
type SerialContext string

const (
	ContextPlanning  SerialContext = "planning"
	ContextReceiving SerialContext = "receiving"
	ContextSelling   SerialContext = "selling"
)

// SerialRegistry is the persisted serial store consulted before a receiving
// save. Implemented by the inventory module.
type SerialRegistry interface {
	SerialExists(ctx context.Context, productID int64, serial string) (bool, error)
}

// NormalizeSerial strips non-alphanumeric characters. Input is cleaned, not
// rejected.
func NormalizeSerial(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RequiredSerialCount is quantity times the unit multiplier. Serialized
// products use whole-number multipliers.
func RequiredSerialCount(quantity int, unitMultiplier decimal.Decimal) int {
	if unitMultiplier.IsZero() {
		unitMultiplier = one
	}
	return int(decimal.NewFromInt(int64(quantity)).Mul(unitMultiplier).IntPart())
}

// ValidateSerials checks one line's serial list for the given context.
// available is the pre-fetched pool of serials sellable for the product; it
// is only consulted when selling.
func ValidateSerials(sctx SerialContext, li LineItem, available []string) error {
	if sctx == ContextPlanning {
		return nil
	}
	required := RequiredSerialCount(li.Quantity, li.UnitMultiplier)

	switch sctx {
	case ContextReceiving:
		if len(li.SerialNumbers) != required {
			return &SerialCountMismatchError{Required: required, Got: len(li.SerialNumbers)}
		}
		seen := make(map[string]struct{}, required)
		for _, raw := range li.SerialNumbers {
			serial := NormalizeSerial(raw)
			if serial == "" {
				return &SerialCountMismatchError{Required: required, Got: len(li.SerialNumbers) - 1}
			}
			if _, dup := seen[serial]; dup {
				return &DuplicateSerialError{Serial: serial}
			}
			seen[serial] = struct{}{}
		}
	case ContextSelling:
		if len(li.SerialNumbers) != required {
			return &SerialCountMismatchError{Required: required, Got: len(li.SerialNumbers)}
		}
		pool := make(map[string]struct{}, len(available))
		for _, s := range available {
			pool[s] = struct{}{}
		}
		seen := make(map[string]struct{}, required)
		for _, serial := range li.SerialNumbers {
			if _, dup := seen[serial]; dup {
				return &DuplicateSerialError{Serial: serial}
			}
			seen[serial] = struct{}{}
			if _, ok := pool[serial]; !ok {
				return &SerialUnavailableError{Serial: serial}
			}
		}
	}
	return nil
}

// CheckRegistryCollisions cross-checks every receiving serial against the
// persisted registry, one line at a time, before any document write. The
// first collision aborts the whole save, identifying the serial and its line
// index.
func CheckRegistryCollisions(ctx context.Context, reg SerialRegistry, lines []LineItem) error {
	for i, li := range lines {
		for _, raw := range li.SerialNumbers {
			serial := NormalizeSerial(raw)
			exists, err := reg.SerialExists(ctx, li.ProductID, serial)
			if err != nil {
				return err
			}
			if exists {
				return &SerialCollisionError{Serial: serial, LineIndex: i}
			}
		}
	}
	return nil
}
