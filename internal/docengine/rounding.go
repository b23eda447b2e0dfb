package docengine

import "github.com/shopspring/decimal"

// RoundingMethod selects how the document grand total is rounded.
type RoundingMethod string

const (
	NoRounding   RoundingMethod = "no_rounding"
	RoundNearest RoundingMethod = "nearest"
	RoundUp      RoundingMethod = "up"
	RoundDown    RoundingMethod = "down"
)

// RoundingPolicy is read once per document-editing session from system
// settings and applied to the grand total only, never to line amounts.
type RoundingPolicy struct {
	Method    RoundingMethod
	Precision decimal.Decimal
}

// DefaultRoundingPolicy matches the system defaults.
func DefaultRoundingPolicy() RoundingPolicy {
	return RoundingPolicy{Method: NoRounding, Precision: decimal.NewFromFloat(0.01)}
}

// Apply rounds v to the policy's precision step.
func (p RoundingPolicy) Apply(v decimal.Decimal) decimal.Decimal {
	if p.Method == NoRounding || p.Method == "" || !p.Precision.IsPositive() {
		return v
	}
	units := v.Div(p.Precision)
	switch p.Method {
	case RoundUp:
		units = units.Ceil()
	case RoundDown:
		units = units.Floor()
	default:
		units = units.Round(0)
	}
	return units.Mul(p.Precision)
}
