package driving

import (
	"context"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

// SearchService provides catalog queries to external actors.
type SearchService interface {
	// Search embeds the query and returns the most similar records.
	// A limit of zero or less selects the default.
	Search(ctx context.Context, query string, limit int, filters domain.SearchFilters) ([]domain.SearchResult, error)

	// GetByURL returns the stored record for a product URL.
	GetByURL(ctx context.Context, url string) (*domain.StoredTea, error)

	// GetByID returns the stored record for a short ID.
	GetByID(ctx context.Context, id string) (*domain.StoredTea, error)

	// Stats returns aggregate catalog counts.
	Stats(ctx context.Context) (*domain.CatalogStats, error)

	// Cards enriches results with the stock status of their linked samples.
	// Lookups that fail or time out report the sample as unavailable.
	Cards(ctx context.Context, results []domain.SearchResult) []domain.TeaCard
}
