package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driving"
)

// ==================== Search ====================

var _ driving.SearchService = (*mockSearchService)(nil)

type mockSearchService struct {
	results []domain.SearchResult
	err     error
	stats   *domain.CatalogStats
	teas    map[string]*domain.StoredTea

	gotQuery   string
	gotLimit   int
	gotFilters domain.SearchFilters
	gotByURL   string
	gotByID    string
}

func (m *mockSearchService) Search(
	_ context.Context, query string, limit int, filters domain.SearchFilters,
) ([]domain.SearchResult, error) {
	m.gotQuery, m.gotLimit, m.gotFilters = query, limit, filters
	return m.results, m.err
}

func (m *mockSearchService) GetByURL(_ context.Context, url string) (*domain.StoredTea, error) {
	m.gotByURL = url
	for _, st := range m.teas {
		if st.Tea.URL == url {
			return st, nil
		}
	}
	return nil, fmt.Errorf("get %s: %w", url, domain.ErrNotFound)
}

func (m *mockSearchService) GetByID(_ context.Context, id string) (*domain.StoredTea, error) {
	m.gotByID = id
	if st, ok := m.teas[id]; ok {
		return st, nil
	}
	return nil, fmt.Errorf("get %s: %w", id, domain.ErrNotFound)
}

func (m *mockSearchService) Stats(_ context.Context) (*domain.CatalogStats, error) {
	if m.stats == nil {
		return &domain.CatalogStats{Series: []string{}}, m.err
	}
	return m.stats, m.err
}

func (m *mockSearchService) Cards(_ context.Context, results []domain.SearchResult) []domain.TeaCard {
	cards := make([]domain.TeaCard, len(results))
	for i, r := range results {
		cards[i] = domain.TeaCard{Tea: r.Tea, Score: r.Score, SampleInStock: r.Tea.HasSample()}
	}
	return cards
}

// ==================== Sync ====================

var _ driving.SyncOrchestrator = (*mockSyncOrchestrator)(nil)

type mockSyncOrchestrator struct {
	stats   *domain.SyncStats
	err     error
	gotOpts domain.SyncOptions
	calls   int
}

func (m *mockSyncOrchestrator) Sync(_ context.Context, opts domain.SyncOptions) (*domain.SyncStats, error) {
	m.calls++
	m.gotOpts = opts
	return m.stats, m.err
}

func (m *mockSyncOrchestrator) Status(_ context.Context) *domain.SyncStats {
	if m.stats == nil {
		return &domain.SyncStats{Phase: domain.SyncPhaseIdle}
	}
	snapshot := *m.stats
	return &snapshot
}

// ==================== Cache ====================

var _ driving.CacheService = (*mockCacheService)(nil)

type mockCacheService struct {
	fill     *domain.CacheFillStats
	stats    *domain.CacheStats
	err      error
	cleared  int
	imported string
	gotLimit int
}

func (m *mockCacheService) Fill(_ context.Context, limit int) (*domain.CacheFillStats, error) {
	m.gotLimit = limit
	if m.fill == nil {
		return &domain.CacheFillStats{}, m.err
	}
	return m.fill, m.err
}

func (m *mockCacheService) Stats(_ context.Context) (*domain.CacheStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.stats == nil {
		return &domain.CacheStats{}, nil
	}
	return m.stats, nil
}

func (m *mockCacheService) Clear(_ context.Context) (int, error) {
	return m.cleared, m.err
}

func (m *mockCacheService) ImportJSON(_ context.Context, r io.Reader) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.imported = string(data)
	return 2, nil
}

// ==================== Export ====================

var _ driving.CatalogExporter = (*mockCatalogExporter)(nil)

type mockCatalogExporter struct {
	teas    []domain.Tea
	stats   *domain.ExportStats
	err     error
	gotOpts domain.ExportOptions
}

func (m *mockCatalogExporter) Export(
	_ context.Context, opts domain.ExportOptions, save func([]domain.Tea) error,
) (*domain.ExportStats, error) {
	m.gotOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if err := save(m.teas); err != nil {
		return nil, err
	}
	if m.stats == nil {
		return &domain.ExportStats{Total: len(m.teas), Exported: len(m.teas)}, nil
	}
	return m.stats, nil
}

// ==================== Settings ====================

var _ driving.SettingsService = (*mockSettingsService)(nil)

type mockSettingsService struct {
	settings domain.AppSettings
	values   map[string]string
	setErr   error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		values:   map[string]string{},
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"embedding.api_key", "store.backend"}
}

func (m *mockSettingsService) Path() string {
	return "/home/test/.chai/config.toml"
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	return nil
}

// ==================== Helpers ====================

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	search   *mockSearchService
	sync     *mockSyncOrchestrator
	cache    *mockCacheService
	settings *mockSettingsService
	exporter *mockCatalogExporter
}

func sampleTea() *domain.StoredTea {
	return &domain.StoredTea{
		Tea: domain.Tea{
			ID:            "a1b2c3d4",
			URL:           "https://beliyles.com/tproduct/1-oblepihovii-chai",
			Name:          domain.StringPtr("Облепиховый чай"),
			Price:         domain.StringPtr("450 ₽"),
			PriceVariants: []domain.PriceVariant{{Packaging: "50 г", Price: "450", Quantity: "3"}},
			Series:        domain.StringPtr("Лесные"),
			Composition:   []string{"облепиха", "чёрный чай"},
			InStock:       true,
			SampleURL:     domain.StringPtr("https://beliyles.com/tproduct/2-probnik-oblepihovii-chai"),
		},
		ContentHash:  "9f86d081884c7d65",
		HasEmbedding: true,
		UpdatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// setupTestServices installs mocks for every injected service and returns
// them together with a function restoring the previous values.
func setupTestServices() (*testServices, func()) {
	oldSearch, oldSync, oldCache, oldSettings := searchService, syncOrchestrator, cacheService, settingsService
	oldExporter := catalogExporter

	tea := sampleTea()
	ts := &testServices{
		search: &mockSearchService{
			results: []domain.SearchResult{{Tea: tea.Tea, Score: 0.87}},
			teas:    map[string]*domain.StoredTea{tea.Tea.ID: tea},
		},
		sync:     &mockSyncOrchestrator{},
		cache:    &mockCacheService{},
		settings: newMockSettingsService(),
		exporter: &mockCatalogExporter{},
	}

	searchService = ts.search
	syncOrchestrator = ts.sync
	cacheService = ts.cache
	settingsService = ts.settings
	catalogExporter = ts.exporter

	return ts, func() {
		searchService, syncOrchestrator, cacheService, settingsService = oldSearch, oldSync, oldCache, oldSettings
		catalogExporter = oldExporter
	}
}

// execute runs the root command with args and returns its combined output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
