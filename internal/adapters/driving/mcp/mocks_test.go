package mcp

import (
	"context"
	"io"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	byURL   map[string]*domain.StoredTea
	byID    map[string]*domain.StoredTea
	stats   *domain.CatalogStats
	err     error

	gotQuery   string
	gotLimit   int
	gotFilters domain.SearchFilters
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	limit int,
	filters domain.SearchFilters,
) ([]domain.SearchResult, error) {
	m.gotQuery, m.gotLimit, m.gotFilters = query, limit, filters
	return m.results, m.err
}

func (m *mockSearchService) GetByURL(_ context.Context, url string) (*domain.StoredTea, error) {
	if m.err != nil {
		return nil, m.err
	}
	if st, ok := m.byURL[url]; ok {
		return st, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockSearchService) GetByID(_ context.Context, id string) (*domain.StoredTea, error) {
	if m.err != nil {
		return nil, m.err
	}
	if st, ok := m.byID[id]; ok {
		return st, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockSearchService) Stats(_ context.Context) (*domain.CatalogStats, error) {
	return m.stats, m.err
}

// Cards marks every result whose tea has a sample as available.
func (m *mockSearchService) Cards(_ context.Context, results []domain.SearchResult) []domain.TeaCard {
	cards := make([]domain.TeaCard, len(results))
	for i, r := range results {
		cards[i] = domain.TeaCard{Tea: r.Tea, Score: r.Score, SampleInStock: r.Tea.HasSample()}
	}
	return cards
}

// mockCacheService is a mock implementation of driving.CacheService.
type mockCacheService struct {
	stats *domain.CacheStats
	err   error
}

func (m *mockCacheService) Fill(context.Context, int) (*domain.CacheFillStats, error) {
	return &domain.CacheFillStats{}, m.err
}

func (m *mockCacheService) Stats(context.Context) (*domain.CacheStats, error) {
	return m.stats, m.err
}

func (m *mockCacheService) Clear(context.Context) (int, error) {
	return 0, m.err
}

func (m *mockCacheService) ImportJSON(context.Context, io.Reader) (int, error) {
	return 0, m.err
}

func storedTea(id, url, name string) *domain.StoredTea {
	return &domain.StoredTea{
		Tea: domain.Tea{
			ID:      id,
			URL:     url,
			Name:    domain.StringPtr(name),
			InStock: true,
		},
		ContentHash:  "hash-" + id,
		HasEmbedding: true,
	}
}
