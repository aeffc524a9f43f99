package driven

import (
	"context"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

// PageCache keeps raw product pages so a sync can run without the network.
// This is an optional collaborator - without it only live syncs are possible.
type PageCache interface {
	// Get returns the cached page for url, or domain.ErrNotFound.
	Get(ctx context.Context, url string) (*domain.CacheEntry, error)

	// Put stores or replaces the page for url, stamped with the current time.
	Put(ctx context.Context, url, html string) error

	// ListURLs returns every cached URL in lexicographic order.
	ListURLs(ctx context.Context) ([]string, error)

	// Contains reports whether url is cached.
	Contains(ctx context.Context, url string) (bool, error)

	// Stats summarises the cache.
	Stats(ctx context.Context) (*domain.CacheStats, error)

	// Clear removes every entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}
