package shared

// ListFilters represents standard list filters for master data endpoints.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string

	IsActive *bool

	// Entity specific filters
	Serialized *bool
	TaxID      *int64
}
