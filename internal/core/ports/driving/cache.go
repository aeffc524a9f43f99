package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

// CacheService manages the raw HTML page cache.
type CacheService interface {
	// Fill downloads catalog pages that are not cached yet.
	// A limit of zero or less fills the whole catalog.
	Fill(ctx context.Context, limit int) (*domain.CacheFillStats, error)

	// Stats summarises the cache.
	Stats(ctx context.Context) (*domain.CacheStats, error)

	// Clear removes every cached page and returns the count removed.
	Clear(ctx context.Context) (int, error)

	// ImportJSON loads a {"url": "html"} JSON object into the cache
	// and returns the number of pages imported.
	ImportJSON(ctx context.Context, r io.Reader) (int, error)
}
