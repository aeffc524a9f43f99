package cli

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

func TestStatsCmd_CatalogAndCache(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.stats = &domain.CatalogStats{
		TotalTeas:  8,
		InStock:    6,
		OutOfStock: 2,
		Series:     []string{"Горные", "Лесные"},
	}
	oldest := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ts.cache.stats = &domain.CacheStats{EntryCount: 5, TotalSizeBytes: 2048, Oldest: &oldest, Newest: &oldest}

	out, err := execute("stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Teas: 8")
	assert.Contains(t, out, "In stock: 6 (75%)")
	assert.Contains(t, out, "Out of stock: 2")
	assert.Contains(t, out, "Series: 2")
	assert.Contains(t, out, "Горные, Лесные")
	assert.Contains(t, out, "[Cache]")
	assert.Contains(t, out, "Pages: 5")
	assert.Contains(t, out, "Size: 2.0 KiB")
}

func TestStatsCmd_CacheErrorIsNotFatal(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.cache.err = domain.ErrCacheUnavailable

	out, err := execute("stats")

	require.NoError(t, err)
	assert.Contains(t, out, "[Catalog]")
	assert.NotContains(t, out, "[Cache]")
}

func TestStatsCmd_WithoutCache(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	cacheService = nil

	out, err := execute("stats")

	require.NoError(t, err)
	assert.NotContains(t, out, "[Cache]")
}

func TestStatsCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer func() { statsJSON = false }()
	ts.search.stats = &domain.CatalogStats{TotalTeas: 3, InStock: 1, OutOfStock: 2, Series: []string{}}

	out, err := execute("stats", "--json")

	require.NoError(t, err)
	var got struct {
		Catalog domain.CatalogStats `json:"catalog"`
		Cache   *domain.CacheStats  `json:"cache"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 3, got.Catalog.TotalTeas)
	require.NotNil(t, got.Cache)
}

func TestStatsCmd_StoreError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.err = domain.ErrStoreUnavailable

	_, err := execute("stats")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}
