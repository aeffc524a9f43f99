package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/chai-cli/internal/catalog"
	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
)

// Ensure TeaStore implements the interface.
var _ driven.TeaStore = (*TeaStore)(nil)

// TeaStore is an in-memory implementation of driven.TeaStore.
// It is the reference backend for tests and dry runs.
type TeaStore struct {
	mu      sync.RWMutex
	records map[string]*teaRecord // keyed by storage key
}

// teaRecord mirrors a stored row. The payload is kept serialised so
// callers never share memory with the store.
type teaRecord struct {
	url       string
	shortID   string
	payload   []byte
	hash      string
	embedding []float32
	createdAt time.Time
	updatedAt time.Time
}

// NewTeaStore creates a new in-memory tea store.
func NewTeaStore() *TeaStore {
	return &TeaStore{
		records: make(map[string]*teaRecord),
	}
}

// EnsureSchema is a no-op for the memory store.
func (s *TeaStore) EnsureSchema(_ context.Context) error {
	return nil
}

// Upsert inserts or replaces a record. A nil vector keeps an existing embedding.
func (s *TeaStore) Upsert(_ context.Context, tea domain.Tea, vector []float32, contentHash string) error {
	if tea.URL == "" {
		return fmt.Errorf("%w: tea url is empty", domain.ErrInvalidInput)
	}
	payload, err := json.Marshal(tea)
	if err != nil {
		return fmt.Errorf("marshal tea: %w", err)
	}

	key := catalog.DeriveStorageKey(tea.URL)
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		rec = &teaRecord{createdAt: now}
		s.records[key] = rec
	}
	rec.url = tea.URL
	rec.shortID = catalog.DeriveID(tea.URL)
	rec.payload = payload
	rec.hash = contentHash
	rec.updatedAt = now
	if vector != nil {
		rec.embedding = append([]float32(nil), vector...)
	}
	return nil
}

// GetByURL returns the record stored for url.
func (s *TeaStore) GetByURL(_ context.Context, url string) (*domain.StoredTea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[catalog.DeriveStorageKey(url)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec.stored("get_by_url")
}

// GetByID returns the record with the given short ID.
func (s *TeaStore) GetByID(_ context.Context, id string) (*domain.StoredTea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.shortID == id {
			return rec.stored("get_by_id")
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteByURL removes the record for url if present.
func (s *TeaStore) DeleteByURL(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, catalog.DeriveStorageKey(url))
	return nil
}

// Search ranks embedded records by cosine similarity.
func (s *TeaStore) Search(
	_ context.Context, vector []float32, limit int, filters domain.SearchFilters,
) ([]domain.SearchResult, error) {
	if limit <= 0 {
		return []domain.SearchResult{}, nil
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.SearchResult, 0)
	for _, rec := range s.records {
		if rec.embedding == nil {
			continue
		}
		var tea domain.Tea
		if err := json.Unmarshal(rec.payload, &tea); err != nil {
			continue
		}
		if !filters.Matches(&tea) {
			continue
		}
		distance, ok := catalog.CosineDistance(vector, rec.embedding)
		if !ok {
			continue
		}
		results = append(results, domain.SearchResult{Tea: tea, Score: 1 - distance})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Tea.URL < results[j].Tea.URL
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ListAllURLs returns every stored URL in lexicographic order.
func (s *TeaStore) ListAllURLs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	urls := make([]string, 0, len(s.records))
	for _, rec := range s.records {
		urls = append(urls, rec.url)
	}
	sort.Strings(urls)
	return urls, nil
}

// Stats returns aggregate catalog counts.
func (s *TeaStore) Stats(_ context.Context) (*domain.CatalogStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.CatalogStats{Series: []string{}}
	series := make(map[string]struct{})
	for _, rec := range s.records {
		var tea domain.Tea
		if err := json.Unmarshal(rec.payload, &tea); err != nil {
			continue
		}
		stats.TotalTeas++
		if tea.InStock {
			stats.InStock++
		}
		if name := tea.SeriesName(); name != "" {
			series[name] = struct{}{}
		}
	}
	stats.OutOfStock = stats.TotalTeas - stats.InStock
	for name := range series {
		stats.Series = append(stats.Series, name)
	}
	sort.Strings(stats.Series)
	return stats, nil
}

// Close is a no-op for the memory store.
func (s *TeaStore) Close() error {
	return nil
}

func (r *teaRecord) stored(op string) (*domain.StoredTea, error) {
	var tea domain.Tea
	if err := json.Unmarshal(r.payload, &tea); err != nil {
		return nil, &domain.PayloadError{Key: r.url, Operation: op, Cause: err}
	}
	return &domain.StoredTea{
		Tea:          tea,
		ContentHash:  r.hash,
		HasEmbedding: r.embedding != nil,
		CreatedAt:    r.createdAt,
		UpdatedAt:    r.updatedAt,
	}, nil
}
