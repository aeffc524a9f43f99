package driving

import (
	"context"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

// CatalogExporter scrapes the catalog into plain records without embedding them.
type CatalogExporter interface {
	// Export visits the catalog and passes the records collected so far to save
	// at every checkpoint and once at the end. A save error aborts the export.
	Export(ctx context.Context, opts domain.ExportOptions, save func([]domain.Tea) error) (*domain.ExportStats, error)
}
