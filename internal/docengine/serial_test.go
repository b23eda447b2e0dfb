package docengine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func serializedLine(qty int, multiplier int64, serials ...string) LineItem {
	return LineItem{
		ProductID:      1,
		Quantity:       qty,
		UnitMultiplier: decimal.NewFromInt(multiplier),
		SerialNumbers:  serials,
	}
}

func TestNormalizeSerial(t *testing.T) {
	require.Equal(t, "SN001", NormalizeSerial("SN-001"))
	require.Equal(t, "ABC123", NormalizeSerial(" ABC 123 "))
	require.Equal(t, "", NormalizeSerial("---"))
}

func TestRequiredSerialCount(t *testing.T) {
	require.Equal(t, 3, RequiredSerialCount(3, decimal.NewFromInt(1)))
	require.Equal(t, 24, RequiredSerialCount(2, decimal.NewFromInt(12)))
	require.Equal(t, 5, RequiredSerialCount(5, decimal.Zero), "zero multiplier defaults to base unit")
}

func TestValidateSerialsReceiving(t *testing.T) {
	// Exact count passes.
	require.NoError(t, ValidateSerials(ContextReceiving, serializedLine(3, 1, "A1", "B2", "C3"), nil))

	// Under- and over-supply fail with the count mismatch.
	var mismatch *SerialCountMismatchError
	err := ValidateSerials(ContextReceiving, serializedLine(3, 1, "A1", "B2"), nil)
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, 3, mismatch.Required)
	require.Equal(t, 2, mismatch.Got)

	err = ValidateSerials(ContextReceiving, serializedLine(3, 1, "A1", "B2", "C3", "D4"), nil)
	require.ErrorAs(t, err, &mismatch)

	// Duplicates are named; normalization applies first, so "A-1" == "A1".
	var dup *DuplicateSerialError
	err = ValidateSerials(ContextReceiving, serializedLine(2, 1, "A1", "A-1"), nil)
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "A1", dup.Serial)
}

func TestValidateSerialsSelling(t *testing.T) {
	pool := []string{"A1", "B2", "C3"}

	require.NoError(t, ValidateSerials(ContextSelling, serializedLine(2, 1, "A1", "B2"), pool))

	var unavailable *SerialUnavailableError
	err := ValidateSerials(ContextSelling, serializedLine(2, 1, "A1", "Z9"), pool)
	require.ErrorAs(t, err, &unavailable)
	require.Equal(t, "Z9", unavailable.Serial)

	var mismatch *SerialCountMismatchError
	err = ValidateSerials(ContextSelling, serializedLine(3, 1, "A1", "B2"), pool)
	require.ErrorAs(t, err, &mismatch)
}

func TestValidateSerialsPlanningSkips(t *testing.T) {
	require.NoError(t, ValidateSerials(ContextPlanning, serializedLine(5, 1), nil))
}

func TestValidateSerialsUnitMultiplier(t *testing.T) {
	// quantity=1 of a Box of 3 requires 3 serials.
	line := serializedLine(1, 3, "A1", "B2")
	var mismatch *SerialCountMismatchError
	require.ErrorAs(t, ValidateSerials(ContextReceiving, line, nil), &mismatch)
	require.Equal(t, 3, mismatch.Required)
}

type mapRegistry struct {
	existing map[string]bool
	calls    int
}

func (r *mapRegistry) SerialExists(ctx context.Context, productID int64, serial string) (bool, error) {
	r.calls++
	return r.existing[serial], nil
}

func TestCheckRegistryCollisions(t *testing.T) {
	reg := &mapRegistry{existing: map[string]bool{"C3": true}}
	lines := []LineItem{
		serializedLine(2, 1, "A1", "B2"),
		serializedLine(1, 1, "C3"),
	}
	err := CheckRegistryCollisions(context.Background(), reg, lines)
	var collision *SerialCollisionError
	require.ErrorAs(t, err, &collision)
	require.Equal(t, "C3", collision.Serial)
	require.Equal(t, 1, collision.LineIndex)

	reg = &mapRegistry{}
	require.NoError(t, CheckRegistryCollisions(context.Background(), reg, lines))
	require.Equal(t, 3, reg.calls, "each serial checked sequentially")
}
