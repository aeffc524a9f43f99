package domain

// DefaultExportCheckpoint is the number of visited URLs between intermediate saves.
const DefaultExportCheckpoint = 50

// ExportOptions controls a catalog export.
type ExportOptions struct {
	// Limit caps the number of catalog URLs visited. Zero means no limit.
	Limit int

	// OnlyInStock drops records that are out of stock.
	OnlyInStock bool
}

// ExportStats reports the outcome of a catalog export.
type ExportStats struct {
	Total      int `json:"total"`
	Exported   int `json:"exported"`
	OutOfStock int `json:"out_of_stock"`
	Skipped    int `json:"skipped"`
	Errors     int `json:"errors"`

	WithImages      int `json:"with_images"`
	WithComposition int `json:"with_composition"`
}
