package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chai-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

// seedSearchStore stores three products pointing in different directions.
func seedSearchStore(t *testing.T) *memory.TeaStore {
	t.Helper()
	ctx := context.Background()
	store := memory.NewTeaStore()

	green := mainTea(urlSencha, "Сенча", true)
	green.Series = domain.StringPtr("Зелёные")
	oolong := mainTea(urlDHP, "Да Хун Пао", false)
	oolong.Series = domain.StringPtr("Улуны")
	oolong.SampleURL = domain.StringPtr(urlSample)
	set := mainTea(urlSet, "Набор улунов", true)
	set.IsSet = true

	require.NoError(t, store.Upsert(ctx, green, []float32{1, 0, 0, 0}, "h1"))
	require.NoError(t, store.Upsert(ctx, oolong, []float32{0.7, 0.7, 0, 0}, "h2"))
	require.NoError(t, store.Upsert(ctx, set, []float32{0, 1, 0, 0}, "h3"))
	require.NoError(t, store.Upsert(ctx, sample(urlSample, "Пробник Да Хун Пао", true), nil, "h4"))
	return store
}

func newTestSearch(t *testing.T) (*SearchService, *mockEmbeddingService) {
	t.Helper()
	embedder := newMockEmbeddingService()
	embedder.vectors["зелёный чай"] = []float32{1, 0, 0, 0}
	return NewSearchService(seedSearchStore(t), embedder, SearchConfig{}), embedder
}

func TestSearchService_Search_RanksBySimilarity(t *testing.T) {
	svc, _ := newTestSearch(t)

	results, err := svc.Search(context.Background(), "зелёный чай", 0, domain.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, urlSencha, results[0].Tea.URL)
	assert.Equal(t, urlDHP, results[1].Tea.URL)
	assert.Equal(t, urlSet, results[2].Tea.URL)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.InDelta(t, 0.7071, results[1].Score, 1e-3)
}

func TestSearchService_Search_TrimsQuery(t *testing.T) {
	svc, _ := newTestSearch(t)

	results, err := svc.Search(context.Background(), "  зелёный чай \n", 1, domain.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, urlSencha, results[0].Tea.URL)
}

func TestSearchService_Search_Filters(t *testing.T) {
	tests := []struct {
		name    string
		filters domain.SearchFilters
		want    []string
	}{
		{"in stock", domain.SearchFilters{OnlyInStock: true}, []string{urlSencha, urlSet}},
		{"exclude sets", domain.SearchFilters{ExcludeSets: true}, []string{urlSencha, urlDHP}},
		{"series", domain.SearchFilters{Series: "Улуны"}, []string{urlDHP}},
		{"combined", domain.SearchFilters{OnlyInStock: true, ExcludeSets: true}, []string{urlSencha}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestSearch(t)
			results, err := svc.Search(context.Background(), "зелёный чай", 10, tt.filters)
			require.NoError(t, err)

			var got []string
			for _, r := range results {
				got = append(got, r.Tea.URL)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchService_Search_DefaultLimit(t *testing.T) {
	embedder := newMockEmbeddingService()
	svc := NewSearchService(seedSearchStore(t), embedder, SearchConfig{DefaultLimit: 2})

	results, err := svc.Search(context.Background(), "чай", 0, domain.SearchFilters{})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchService_Search_Errors(t *testing.T) {
	store := memory.NewTeaStore()

	t.Run("empty query", func(t *testing.T) {
		svc := NewSearchService(store, newMockEmbeddingService(), SearchConfig{})
		_, err := svc.Search(context.Background(), "   ", 5, domain.SearchFilters{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("no store", func(t *testing.T) {
		svc := NewSearchService(nil, newMockEmbeddingService(), SearchConfig{})
		_, err := svc.Search(context.Background(), "чай", 5, domain.SearchFilters{})
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})

	t.Run("no embedder", func(t *testing.T) {
		svc := NewSearchService(store, nil, SearchConfig{})
		_, err := svc.Search(context.Background(), "чай", 5, domain.SearchFilters{})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("embed failure", func(t *testing.T) {
		embedder := newMockEmbeddingService()
		embedErr := errors.New("unauthorized")
		embedder.err = embedErr
		svc := NewSearchService(store, embedder, SearchConfig{})
		_, err := svc.Search(context.Background(), "чай", 5, domain.SearchFilters{})
		assert.ErrorIs(t, err, embedErr)
		assert.Contains(t, err.Error(), "embed query")
	})
}

func TestSearchService_EmptyStoreReturnsNoResults(t *testing.T) {
	svc := NewSearchService(memory.NewTeaStore(), newMockEmbeddingService(), SearchConfig{})

	results, err := svc.Search(context.Background(), "чай", 5, domain.SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchService_GetByURLAndID(t *testing.T) {
	svc, _ := newTestSearch(t)
	ctx := context.Background()

	stored, err := svc.GetByURL(ctx, " "+urlDHP+" ")
	require.NoError(t, err)
	assert.Equal(t, "Да Хун Пао", stored.Tea.DisplayName())

	stored, err = svc.GetByID(ctx, stored.Tea.ID)
	require.NoError(t, err)
	assert.Equal(t, urlDHP, stored.Tea.URL)

	_, err = svc.GetByID(ctx, "ffffffff")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetByURL(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.GetByID(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchService_Stats(t *testing.T) {
	svc, _ := newTestSearch(t)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalTeas)
	assert.Equal(t, 3, stats.InStock)
	assert.Equal(t, 1, stats.OutOfStock)
	assert.Equal(t, []string{"Зелёные", "Улуны"}, stats.Series)
}

func TestSearchService_Cards(t *testing.T) {
	svc, _ := newTestSearch(t)
	ctx := context.Background()

	results, err := svc.Search(ctx, "зелёный чай", 10, domain.SearchFilters{})
	require.NoError(t, err)

	cards := svc.Cards(ctx, results)
	require.Len(t, cards, 3)

	byURL := make(map[string]domain.TeaCard)
	for _, c := range cards {
		byURL[c.Tea.URL] = c
	}
	assert.True(t, byURL[urlDHP].SampleInStock, "linked sample is in stock")
	assert.False(t, byURL[urlSencha].SampleInStock, "no linked sample")
	assert.Equal(t, results[0].Score, cards[0].Score)
}

// ==================== Sample Stock ====================

func TestSampleStockResolver_Resolve(t *testing.T) {
	store := memory.NewTeaStore()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, sample("https://shop.test/s1", "Пробник 1", true), nil, "h"))
	require.NoError(t, store.Upsert(ctx, sample("https://shop.test/s2", "Пробник 2", false), nil, "h"))

	withSample := func(url, sampleURL string) domain.Tea {
		product := mainTea(url, "Чай", true)
		product.SampleURL = domain.StringPtr(sampleURL)
		return product
	}
	teas := []domain.Tea{
		withSample("https://shop.test/1", "https://shop.test/s1"),
		withSample("https://shop.test/2", "https://shop.test/s2"),
		withSample("https://shop.test/3", "https://shop.test/missing"),
		mainTea("https://shop.test/4", "Без пробника", true),
	}

	flags := NewSampleStockResolver(store, time.Second).Resolve(ctx, teas)
	assert.Equal(t, map[string]bool{
		"https://shop.test/s1":      true,
		"https://shop.test/s2":      false,
		"https://shop.test/missing": false,
	}, flags)
}

func TestSampleStockResolver_Deduplicates(t *testing.T) {
	store := newSlowStore()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, sample("https://shop.test/s1", "Пробник", true), nil, "h"))

	teas := make([]domain.Tea, 5)
	for i := range teas {
		teas[i] = mainTea("https://shop.test/"+string(rune('a'+i)), "Чай", true)
		teas[i].SampleURL = domain.StringPtr("https://shop.test/s1")
	}

	flags := NewSampleStockResolver(store, time.Second).Resolve(ctx, teas)
	assert.True(t, flags["https://shop.test/s1"])
	assert.Equal(t, 1, store.calls["https://shop.test/s1"])
}

func TestSampleStockResolver_Timeout(t *testing.T) {
	store := newSlowStore("https://shop.test/slow")
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, sample("https://shop.test/fast", "Пробник", true), nil, "h"))
	require.NoError(t, store.Upsert(ctx, sample("https://shop.test/slow", "Пробник", true), nil, "h"))

	fast := mainTea("https://shop.test/1", "Чай", true)
	fast.SampleURL = domain.StringPtr("https://shop.test/fast")
	slow := mainTea("https://shop.test/2", "Чай", true)
	slow.SampleURL = domain.StringPtr("https://shop.test/slow")

	start := time.Now()
	flags := NewSampleStockResolver(store, 50*time.Millisecond).Resolve(ctx, []domain.Tea{fast, slow})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, flags["https://shop.test/fast"])
	assert.False(t, flags["https://shop.test/slow"], "timed out lookups are unavailable")
}

func TestSampleStockResolver_NoSamples(t *testing.T) {
	flags := NewSampleStockResolver(nil, 0).Resolve(context.Background(), []domain.Tea{mainTea("https://shop.test/1", "Чай", true)})
	assert.Empty(t, flags)
}
