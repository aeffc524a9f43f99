package domain

// DefaultSearchLimit is used when a caller does not specify a limit.
const DefaultSearchLimit = 10

// SearchFilters narrows a similarity search.
// Every filter is optional; set filters are AND-composed.
type SearchFilters struct {
	// ExcludeSamples drops records flagged as samples.
	ExcludeSamples bool `json:"exclude_samples,omitempty"`

	// ExcludeSets drops bundle listings.
	ExcludeSets bool `json:"exclude_sets,omitempty"`

	// OnlyInStock keeps only records currently in stock.
	OnlyInStock bool `json:"only_in_stock,omitempty"`

	// Series keeps only records whose series matches exactly.
	// Empty means no series filter.
	Series string `json:"series,omitempty"`
}

// IsEmpty reports whether no filter is set.
func (f SearchFilters) IsEmpty() bool {
	return !f.ExcludeSamples && !f.ExcludeSets && !f.OnlyInStock && f.Series == ""
}

// Matches reports whether a record passes every set filter.
func (f SearchFilters) Matches(t *Tea) bool {
	if f.ExcludeSamples && t.IsSample {
		return false
	}
	if f.ExcludeSets && t.IsSet {
		return false
	}
	if f.OnlyInStock && !t.InStock {
		return false
	}
	if f.Series != "" && t.SeriesName() != f.Series {
		return false
	}
	return true
}

// SearchResult is a single similarity hit.
type SearchResult struct {
	// Tea is the matched record.
	Tea Tea `json:"tea"`

	// Score is 1 - cosine distance. Higher is better; it can be negative.
	Score float64 `json:"score"`
}

// CatalogStats summarises the stored catalog.
type CatalogStats struct {
	TotalTeas  int      `json:"total_teas"`
	InStock    int      `json:"in_stock"`
	OutOfStock int      `json:"out_of_stock"`
	Series     []string `json:"series"`
}

// SeriesCount returns the number of distinct series.
func (s *CatalogStats) SeriesCount() int {
	return len(s.Series)
}

// InStockPercent returns the share of in-stock records, rounded down.
func (s *CatalogStats) InStockPercent() int {
	if s.TotalTeas == 0 {
		return 0
	}
	return s.InStock * 100 / s.TotalTeas
}
