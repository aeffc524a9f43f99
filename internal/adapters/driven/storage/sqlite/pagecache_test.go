package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

func TestPageCache_PutGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	cache := store.PageCache()

	require.NoError(t, cache.Put(ctx, "https://example.com/b", "<html>b</html>"))
	require.NoError(t, cache.Put(ctx, "https://example.com/a", "<html>a</html>"))
	require.NoError(t, cache.Put(ctx, "https://example.com/a", "<html>a2</html>"))

	entry, err := cache.Get(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "<html>a2</html>", entry.HTML)
	assert.Equal(t, "https://example.com/a", entry.URL)
	assert.False(t, entry.FetchedAt.IsZero())

	_, err = cache.Get(ctx, "https://example.com/missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	urls, err := cache.ListURLs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, urls)

	ok, err := cache.Contains(ctx, "https://example.com/b")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = cache.Contains(ctx, "https://example.com/c")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPageCache_StatsAndClear(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	cache := store.PageCache()

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.EntryCount)
	assert.Equal(t, int64(0), stats.TotalSizeBytes)
	assert.Nil(t, stats.Oldest)
	assert.Nil(t, stats.Newest)

	// Two-byte runes count as bytes, not characters.
	require.NoError(t, cache.Put(ctx, "https://example.com/a", "чай"))
	require.NoError(t, cache.Put(ctx, "https://example.com/b", "tea"))

	stats, err = cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.EntryCount)
	assert.Equal(t, int64(9), stats.TotalSizeBytes)
	require.NotNil(t, stats.Oldest)
	require.NotNil(t, stats.Newest)
	assert.False(t, stats.Newest.Before(*stats.Oldest))

	n, err := cache.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	urls, err := cache.ListURLs(ctx)
	require.NoError(t, err)
	assert.Empty(t, urls)
}
