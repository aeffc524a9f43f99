// Package storetest provides the behavioural test suite shared by every
// driven.TeaStore implementation.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chai-cli/internal/catalog"
	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
)

// Dimensions is the vector size used by the suite.
// Stores under test must be configured for it.
const Dimensions = 4

// Factory returns an empty store with its schema ensured.
// The store is closed by the suite.
type Factory func(t *testing.T) driven.TeaStore

// RunTeaStoreContract runs the shared TeaStore suite against stores from newStore.
func RunTeaStoreContract(t *testing.T, newStore Factory) {
	t.Helper()

	cases := []struct {
		name string
		fn   func(t *testing.T, store driven.TeaStore)
	}{
		{"EnsureSchemaIsIdempotent", testEnsureSchemaIdempotent},
		{"UpsertAndGetByURL", testUpsertAndGetByURL},
		{"GetByID", testGetByID},
		{"GetMissingReturnsNotFound", testGetMissing},
		{"UpsertIsIdempotent", testUpsertIdempotent},
		{"UpsertReplacesPayloadAndHash", testUpsertReplaces},
		{"UpsertWithoutVectorIsNotSearchable", testUpsertWithoutVector},
		{"UpsertWithoutVectorKeepsEmbedding", testUpsertWithoutVectorKeepsEmbedding},
		{"DeleteByURL", testDeleteByURL},
		{"SearchRanksBySimilarity", testSearchRanking},
		{"SearchFiltersCompose", testSearchFilters},
		{"SearchNonPositiveLimitIsEmpty", testSearchNonPositiveLimit},
		{"SearchEmptyVectorIsInvalid", testSearchEmptyVector},
		{"ListAllURLsPaginates", testListAllURLsPaginates},
		{"Stats", testStats},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore(t)
			t.Cleanup(func() { _ = store.Close() })
			tc.fn(t, store)
		})
	}
}

// NewTea returns a record for url with the given name and stock flag.
func NewTea(url, name string, inStock bool) domain.Tea {
	tea := catalog.NewTea(url)
	tea.Name = domain.StringPtr(name)
	tea.InStock = inStock
	tea.Composition = []string{"лист", "цветы"}
	tea.PriceVariants = []domain.PriceVariant{{Packaging: "50 г", Price: "450", Quantity: "1"}}
	return tea
}

func upsert(t *testing.T, store driven.TeaStore, tea domain.Tea, vector []float32) string {
	t.Helper()
	hash, err := catalog.ContentHash(tea)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), tea, vector, hash))
	return hash
}

func testEnsureSchemaIdempotent(t *testing.T, store driven.TeaStore) {
	ctx := context.Background()
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.EnsureSchema(ctx))

	upsert(t, store, NewTea("https://example.com/tproduct/1", "Сенча", true), []float32{1, 0, 0, 0})
	require.NoError(t, store.EnsureSchema(ctx))

	urls, err := store.ListAllURLs(ctx)
	require.NoError(t, err)
	assert.Len(t, urls, 1, "EnsureSchema must not drop data")
}

func testUpsertAndGetByURL(t *testing.T, store driven.TeaStore) {
	ctx := context.Background()
	tea := NewTea("https://example.com/tproduct/1", "Сенча", true)
	tea.Series = domain.StringPtr("Зелёные")
	tea.SampleURL = domain.StringPtr("https://example.com/tproduct/2-probnik")
	hash := upsert(t, store, tea, []float32{1, 0, 0, 0})

	got, err := store.GetByURL(ctx, tea.URL)
	require.NoError(t, err)
	assert.Equal(t, tea, got.Tea)
	assert.Equal(t, hash, got.ContentHash)
	assert.True(t, got.HasEmbedding)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func testGetByID(t *testing.T, store driven.TeaStore) {
	ctx := context.Background()
	tea := NewTea("https://example.com/tproduct/1", "Сенча", true)
	upsert(t, store, tea, []float32{1, 0, 0, 0})
	upsert(t, store, NewTea("https://example.com/tproduct/2", "Улун", true), []float32{0, 1, 0, 0})

	got, err := store.GetByID(ctx, catalog.DeriveID(tea.URL))
	require.NoError(t, err)
	assert.Equal(t, tea.URL, got.Tea.URL)
	assert.Equal(t, tea.ID, got.Tea.ID)
}

func testGetMissing(t *testing.T, store driven.TeaStore) {
	ctx := context.Background()

	_, err := store.GetByURL(ctx, "https://example.com/missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

	_, err = store.GetByID(ctx, "deadbeef")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
}

func testUpsertIdempotent(t *testing.T, store driven.TeaStore) {
	ctx := context.Background()
	tea := NewTea("https://example.com/tproduct/1", "Сенча", true)
	hash := upsert(t, store, tea, []float32{1, 0, 0, 0})
	upsert(t, store, tea, []float32{1, 0, 0, 0})

	urls, err := store.ListAllURLs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{tea.URL}, urls)

	got, err := store.GetByURL(ctx, tea.URL)
	require.NoError(t, err)
	assert.Equal(t, hash, got.ContentHash)
}

func testUpsertReplaces(t *testing.T, store driven.TeaStore) {
	ctx := context.Background()
	tea := NewTea("https://example.com/tproduct/1", "Сенча", true)
	upsert(t, store, tea, []float32{1, 0, 0, 0})

	tea.Price = domain.StringPtr("900")
	tea.InStock = false
	newHash := upsert(t, store, tea, []float32{0, 1, 0, 0})

	got, err := store.GetByURL(ctx, tea.URL)
	require.NoError(t, err)
	assert.Equal(t, newHash, got.ContentHash)
	require.NotNil(t, got.Tea.Price)
	assert.Equal(t, "900", *got.Tea.Price)
	assert.False(t, got.Tea.InStock)

	results, err := store.Search(ctx, []float32{0, 1, 0, 0}, 1, domain.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-4, "vector must be replaced with the payload")
}

func testUpsertWithoutVector(t *testing.T, store driven.TeaStore) {
	ctx := context.Background()
	plain := NewTea("https://example.com/tproduct/1", "Сенча", true)
	upsert(t, store, plain, nil)
	upsert(t, store, NewTea("https://example.com/tproduct/2", "Улун", true), []float32{1, 0, 0, 0})

	got, err := store.GetByURL(ctx, plain.URL)
	require.NoError(t, err)
	assert.False(t, got.HasEmbedding)

	results, err := store.Search(ctx, []float32{1, 0, 0, 0}, 10, domain.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://example.com/tproduct/2", results[0].Tea.URL)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalTeas, "records without embeddings still count")
}

func testUpsertWithoutVectorKeepsEmbedding(t *testing.T, store driven.TeaStore) {
	ctx := context.Background()
	tea := NewTea("https://example.com/tproduct/1", "Сенча", true)
	upsert(t, store, tea, []float32{1, 0, 0, 0})

	tea.Description = domain.StringPtr("обновлено")
	hash := upsert(t, store, tea, nil)

	got, err := store.GetByURL(ctx, tea.URL)
	require.NoError(t, err)
	assert.True(t, got.HasEmbedding)
	assert.Equal(t, hash, got.ContentHash)
	require.NotNil(t, got.Tea.Description)
	assert.Equal(t, "обновлено", *got.Tea.Description)

	results, err := store.Search(ctx, []float32{1, 0, 0, 0}, 10, domain.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Tea.Description)
	assert.Equal(t, "обновлено", *results[0].Tea.Description)
}

func testDeleteByURL(t *testing.T, store driven.TeaStore) {
	ctx := context.Background()
	tea := NewTea("https://example.com/tproduct/1", "Сенча", true)
	upsert(t, store, tea, []float32{1, 0, 0, 0})

	require.NoError(t, store.DeleteByURL(ctx, tea.URL))
	_, err := store.GetByURL(ctx, tea.URL)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	// Deleting again is a no-op.
	require.NoError(t, store.DeleteByURL(ctx, tea.URL))
	require.NoError(t, store.DeleteByURL(ctx, "https://example.com/never-stored"))

	urls, err := store.ListAllURLs(ctx)
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func testSearchRanking(t *testing.T, store driven.TeaStore) {
	ctx := context.Background()
	upsert(t, store, NewTea("https://example.com/a", "A", true), []float32{1, 0, 0, 0})
	upsert(t, store, NewTea("https://example.com/b", "B", true), []float32{0.7, 0.7, 0, 0})
	upsert(t, store, NewTea("https://example.com/c", "C", true), []float32{-1, 0, 0, 0})

	results, err := store.Search(ctx, []float32{1, 0, 0, 0}, 10, domain.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "https://example.com/a", results[0].Tea.URL)
	assert.Equal(t, "https://example.com/b", results[1].Tea.URL)
	assert.Equal(t, "https://example.com/c", results[2].Tea.URL)

	assert.InDelta(t, 1.0, results[0].Score, 1e-4)
	assert.InDelta(t, 0.7071, results[1].Score, 1e-3)
	assert.InDelta(t, -1.0, results[2].Score, 1e-4, "anti-correlated vectors score negative")

	limited, err := store.Search(ctx, []float32{1, 0, 0, 0}, 2, domain.SearchFilters{})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func testSearchNonPositiveLimit(t *testing.T, store driven.TeaStore) {
	ctx := context.Background()
	upsert(t, store, NewTea("https://example.com/a", "A", true), []float32{1, 0, 0, 0})

	for _, limit := range []int{0, -1} {
		results, err := store.Search(ctx, []float32{1, 0, 0, 0}, limit, domain.SearchFilters{})
		require.NoError(t, err, "limit %d", limit)
		assert.NotNil(t, results)
		assert.Empty(t, results, "limit %d", limit)
	}
}

func testSearchEmptyVector(t *testing.T, store driven.TeaStore) {
	ctx := context.Background()
	upsert(t, store, NewTea("https://example.com/a", "A", true), []float32{1, 0, 0, 0})

	_, err := store.Search(ctx, nil, 5, domain.SearchFilters{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.Search(ctx, []float32{}, 5, domain.SearchFilters{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func testSearchFilters(t *testing.T, store driven.TeaStore) {
	ctx := context.Background()
	vec := []float32{1, 0, 0, 0}

	green := "Зелёные"
	mainInStock := NewTea("https://example.com/main-in", "Main in", true)
	mainInStock.Series = &green
	mainOut := NewTea("https://example.com/main-out", "Main out", false)
	mainOut.Series = &green
	sample := NewTea("https://example.com/probnik", "Sample", true)
	sample.IsSample = true
	set := NewTea("https://example.com/nabor", "Set", true)
	set.IsSet = true

	for _, tea := range []domain.Tea{mainInStock, mainOut, sample, set} {
		upsert(t, store, tea, vec)
	}

	tests := []struct {
		name     string
		filters  domain.SearchFilters
		expected []string
	}{
		{"none", domain.SearchFilters{}, []string{mainInStock.URL, mainOut.URL, sample.URL, set.URL}},
		{"only in stock", domain.SearchFilters{OnlyInStock: true}, []string{mainInStock.URL, sample.URL, set.URL}},
		{"exclude samples", domain.SearchFilters{ExcludeSamples: true}, []string{mainInStock.URL, mainOut.URL, set.URL}},
		{"exclude sets", domain.SearchFilters{ExcludeSets: true}, []string{mainInStock.URL, mainOut.URL, sample.URL}},
		{"series", domain.SearchFilters{Series: green}, []string{mainInStock.URL, mainOut.URL}},
		{"unknown series", domain.SearchFilters{Series: "Нет"}, nil},
		{
			"in stock without samples",
			domain.SearchFilters{OnlyInStock: true, ExcludeSamples: true},
			[]string{mainInStock.URL, set.URL},
		},
		{
			"all filters",
			domain.SearchFilters{OnlyInStock: true, ExcludeSamples: true, ExcludeSets: true, Series: green},
			[]string{mainInStock.URL},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Search(ctx, vec, 10, tt.filters)
			require.NoError(t, err)

			var urls []string
			for _, r := range results {
				urls = append(urls, r.Tea.URL)
				if tt.filters.OnlyInStock {
					assert.True(t, r.Tea.InStock)
				}
				if tt.filters.ExcludeSamples {
					assert.False(t, r.Tea.IsSample)
				}
			}
			assert.ElementsMatch(t, tt.expected, urls)
		})
	}
}

func testListAllURLsPaginates(t *testing.T, store driven.TeaStore) {
	ctx := context.Background()
	const n = 250

	expected := make([]string, 0, n)
	for i := range n {
		url := fmt.Sprintf("https://example.com/tproduct/%03d", i)
		expected = append(expected, url)
		upsert(t, store, NewTea(url, fmt.Sprintf("Tea %d", i), i%2 == 0), nil)
	}

	urls, err := store.ListAllURLs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, expected, urls)
}

func testStats(t *testing.T, store driven.TeaStore) {
	ctx := context.Background()

	empty, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalTeas)
	assert.Empty(t, empty.Series)

	series := []string{"Улуны", "", "Зелёные", "Улуны"}
	for i, s := range series {
		tea := NewTea(fmt.Sprintf("https://example.com/%d", i), "Tea", i%2 == 0)
		tea.Series = domain.StringPtr(s)
		upsert(t, store, tea, []float32{1, 0, 0, 0})
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalTeas)
	assert.Equal(t, 2, stats.InStock)
	assert.Equal(t, 2, stats.OutOfStock)
	assert.Equal(t, stats.TotalTeas, stats.InStock+stats.OutOfStock)
	assert.Equal(t, []string{"Зелёные", "Улуны"}, stats.Series)
}
