package units

// Unit represents a unit of measure. Product-level conversions reference a
// unit by label and carry their own multiplier back to the base unit.
type Unit struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}
