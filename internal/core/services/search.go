package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driving"
	"github.com/custodia-labs/chai-cli/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchConfig tunes a SearchService. Zero values select the defaults.
type SearchConfig struct {
	DefaultLimit  int
	SampleTimeout time.Duration
}

// SearchService answers catalog queries against the vector store.
type SearchService struct {
	store            driven.TeaStore
	embeddingService driven.EmbeddingService
	stock            *SampleStockResolver
	defaultLimit     int
}

// NewSearchService creates a new search service.
// The embeddingService is optional; without it only point lookups and stats work.
func NewSearchService(store driven.TeaStore, embeddingService driven.EmbeddingService, cfg SearchConfig) *SearchService {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = domain.DefaultSearchLimit
	}
	return &SearchService{
		store:            store,
		embeddingService: embeddingService,
		stock:            NewSampleStockResolver(store, cfg.SampleTimeout),
		defaultLimit:     cfg.DefaultLimit,
	}
}

// Search embeds the query and returns the most similar stored records.
func (s *SearchService) Search(
	ctx context.Context, query string, limit int, filters domain.SearchFilters,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if s.store == nil {
		return nil, domain.ErrStoreUnavailable
	}
	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	if limit <= 0 {
		limit = s.defaultLimit
	}
	logger.Debug("Limit: %d, filters: %+v", limit, filters)

	vector, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.store.Search(ctx, vector, limit, filters)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	logger.Debug("Results: %d", len(results))
	return results, nil
}

// GetByURL returns the stored record for a product URL.
func (s *SearchService) GetByURL(ctx context.Context, url string) (*domain.StoredTea, error) {
	if s.store == nil {
		return nil, domain.ErrStoreUnavailable
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: empty url", domain.ErrInvalidInput)
	}
	return s.store.GetByURL(ctx, url)
}

// GetByID returns the stored record for a short ID.
func (s *SearchService) GetByID(ctx context.Context, id string) (*domain.StoredTea, error) {
	if s.store == nil {
		return nil, domain.ErrStoreUnavailable
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", domain.ErrInvalidInput)
	}
	return s.store.GetByID(ctx, id)
}

// Stats returns aggregate catalog counts.
func (s *SearchService) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	if s.store == nil {
		return nil, domain.ErrStoreUnavailable
	}
	return s.store.Stats(ctx)
}

// Cards enriches results with the stock status of their linked samples.
func (s *SearchService) Cards(ctx context.Context, results []domain.SearchResult) []domain.TeaCard {
	teas := make([]domain.Tea, len(results))
	for i := range results {
		teas[i] = results[i].Tea
	}
	stock := s.stock.Resolve(ctx, teas)

	cards := make([]domain.TeaCard, len(results))
	for i, r := range results {
		cards[i] = domain.TeaCard{
			Tea:   r.Tea,
			Score: r.Score,
		}
		if r.Tea.HasSample() {
			cards[i].SampleInStock = stock[*r.Tea.SampleURL]
		}
	}
	return cards
}
