package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/chai-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/chai-cli/internal/catalog"
	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockEmbeddingService returns deterministic four-dimensional vectors.
type mockEmbeddingService struct {
	mu sync.Mutex

	// vectors overrides the vector for specific texts.
	vectors map[string][]float32

	// reorder rearranges EmbedMany results before they are returned.
	reorder func([]driven.IndexedVector) []driven.IndexedVector

	err   error
	calls [][]string
}

func newMockEmbeddingService() *mockEmbeddingService {
	return &mockEmbeddingService{vectors: make(map[string][]float32)}
}

func (m *mockEmbeddingService) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	return []float32{float32(len([]rune(text))), 1, 0, 0}
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbeddingService) EmbedMany(_ context.Context, texts []string) ([]driven.IndexedVector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]string(nil), texts...))
	if m.err != nil {
		return nil, m.err
	}

	results := make([]driven.IndexedVector, len(texts))
	for i, text := range texts {
		results[i] = driven.IndexedVector{Index: i, Vector: m.vectorFor(text)}
	}
	if m.reorder != nil {
		results = m.reorder(results)
	}
	return results, nil
}

func (m *mockEmbeddingService) Dimensions() int             { return 4 }
func (m *mockEmbeddingService) ModelName() string           { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                { return nil }

func (m *mockEmbeddingService) callSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	sizes := make([]int, len(m.calls))
	for i, c := range m.calls {
		sizes[i] = len(c)
	}
	return sizes
}

// mockScraper serves records from a fixed catalog.
type mockScraper struct {
	mu sync.Mutex

	urls    []string
	teas    map[string]domain.Tea
	html    map[string]string
	errs    map[string]error
	listErr error

	// block, when set, stalls ListCatalogURLs until it is closed.
	block   chan struct{}
	started chan struct{}

	scraped []string
	fetched []string
}

func newMockScraper(teas ...domain.Tea) *mockScraper {
	m := &mockScraper{
		teas: make(map[string]domain.Tea),
		html: make(map[string]string),
		errs: make(map[string]error),
	}
	for _, tea := range teas {
		m.add(tea)
	}
	return m
}

func (m *mockScraper) add(tea domain.Tea) {
	m.urls = append(m.urls, tea.URL)
	m.teas[tea.URL] = tea
	m.html[tea.URL] = "<html>" + tea.URL + "</html>"
}

func (m *mockScraper) remove(url string) {
	for i, u := range m.urls {
		if u == url {
			m.urls = append(m.urls[:i], m.urls[i+1:]...)
			break
		}
	}
	delete(m.teas, url)
	delete(m.html, url)
}

func (m *mockScraper) ListCatalogURLs(ctx context.Context) ([]string, error) {
	if m.block != nil {
		if m.started != nil {
			close(m.started)
		}
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]string(nil), m.urls...), nil
}

func (m *mockScraper) Scrape(_ context.Context, url string) (*domain.Tea, error) {
	m.mu.Lock()
	m.scraped = append(m.scraped, url)
	m.mu.Unlock()
	return m.lookup(url)
}

func (m *mockScraper) Fetch(_ context.Context, url string) (string, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, url)
	m.mu.Unlock()
	if err := m.errs[url]; err != nil {
		return "", err
	}
	html, ok := m.html[url]
	if !ok {
		return "", fmt.Errorf("fetch %s: 404", url)
	}
	return html, nil
}

func (m *mockScraper) Parse(url, html string) (*domain.Tea, error) {
	if html == "" {
		return nil, fmt.Errorf("%w: empty page", domain.ErrSkippedProduct)
	}
	return m.lookup(url)
}

func (m *mockScraper) lookup(url string) (*domain.Tea, error) {
	if err := m.errs[url]; err != nil {
		return nil, err
	}
	tea, ok := m.teas[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSkippedProduct, url)
	}
	return &tea, nil
}

// malformedStore reports every stored payload as unreadable.
type malformedStore struct {
	*memory.TeaStore
}

func (s malformedStore) GetByURL(ctx context.Context, url string) (*domain.StoredTea, error) {
	if _, err := s.TeaStore.GetByURL(ctx, url); err != nil {
		return nil, err
	}
	return nil, &domain.PayloadError{Key: url, Operation: "get_by_url", Cause: errors.New("unexpected end of JSON input")}
}

// failingStore returns configured errors from writes.
type failingStore struct {
	*memory.TeaStore
	upsertErr error
	deleteErr error
}

func (s *failingStore) Upsert(
	ctx context.Context, tea domain.Tea, vector []float32, contentHash string,
) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	return s.TeaStore.Upsert(ctx, tea, vector, contentHash)
}

func (s *failingStore) DeleteByURL(ctx context.Context, url string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.TeaStore.DeleteByURL(ctx, url)
}

// slowStore stalls lookups of selected URLs until the context is done.
type slowStore struct {
	*memory.TeaStore

	mu    sync.Mutex
	slow  map[string]bool
	calls map[string]int
}

func newSlowStore(slow ...string) *slowStore {
	s := &slowStore{
		TeaStore: memory.NewTeaStore(),
		slow:     make(map[string]bool),
		calls:    make(map[string]int),
	}
	for _, url := range slow {
		s.slow[url] = true
	}
	return s
}

func (s *slowStore) GetByURL(ctx context.Context, url string) (*domain.StoredTea, error) {
	s.mu.Lock()
	s.calls[url]++
	slow := s.slow[url]
	s.mu.Unlock()

	if slow {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.TeaStore.GetByURL(ctx, url)
}

// phantomCache lists URLs it does not hold.
type phantomCache struct {
	*memory.PageCache
	phantom []string
}

func (c phantomCache) ListURLs(ctx context.Context) ([]string, error) {
	urls, err := c.PageCache.ListURLs(ctx)
	if err != nil {
		return nil, err
	}
	return append(urls, c.phantom...), nil
}

// mainTea builds a main product record.
func mainTea(url, name string, inStock bool) domain.Tea {
	return domain.Tea{
		ID:            catalog.DeriveID(url),
		URL:           url,
		Name:          domain.StringPtr(name),
		PriceVariants: []domain.PriceVariant{},
		Composition:   []string{},
		Images:        []string{},
		InStock:       inStock,
	}
}

// sample builds a trial-size listing.
func sample(url, name string, inStock bool) domain.Tea {
	t := mainTea(url, name, inStock)
	t.IsSample = true
	return t
}
