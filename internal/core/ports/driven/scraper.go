package driven

import (
	"context"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

// Scraper reads the storefront. It turns product pages into records and
// never touches the store.
type Scraper interface {
	// ListCatalogURLs returns every product page URL in catalog order.
	ListCatalogURLs(ctx context.Context) ([]string, error)

	// Scrape fetches and parses a single product page.
	Scrape(ctx context.Context, url string) (*domain.Tea, error)

	// Fetch returns the raw HTML of a page. Used to fill the page cache.
	Fetch(ctx context.Context, url string) (string, error)

	// Parse turns previously fetched HTML into a record.
	// Returns an error wrapping domain.ErrSkippedProduct for listings that
	// should not become records.
	Parse(url, html string) (*domain.Tea, error)
}
