package taxes

// TaxTypeInclusive and TaxTypeExclusive state how a rate applies to prices.
// Inclusive rates are carved out of the entered price, exclusive rates are
// added on top.
const (
	TaxTypeInclusive = "inclusive"
	TaxTypeExclusive = "exclusive"
)

// Tax represents a tax configuration.
type Tax struct {
	ID   int64   `json:"id"`
	Code string  `json:"code"`
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
	Type string  `json:"type"`
}
