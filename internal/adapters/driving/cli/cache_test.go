package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

func TestCacheCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range cacheCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["fill"])
	assert.True(t, names["stats"])
	assert.True(t, names["clear"])
	assert.True(t, names["import"])
}

func TestCacheFillCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer func() { cacheFillLimit = 0 }()
	ts.cache.fill = &domain.CacheFillStats{Total: 10, Fetched: 4, Cached: 5, Errors: 1}

	out, err := execute("cache", "fill", "--limit", "10")

	require.NoError(t, err)
	assert.Equal(t, 10, ts.cache.gotLimit)
	assert.Contains(t, out, "Catalog URLs: 10")
	assert.Contains(t, out, "Fetched: 4")
	assert.Contains(t, out, "Already cached: 5")
	assert.Contains(t, out, "Errors: 1")
}

func TestCacheStatsCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.cache.stats = &domain.CacheStats{EntryCount: 2, TotalSizeBytes: 512}

	out, err := execute("cache", "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Pages: 2")
	assert.Contains(t, out, "Size: 512 B")
	assert.NotContains(t, out, "Oldest")
}

func TestCacheClearCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.cache.cleared = 7

	out, err := execute("cache", "clear")

	require.NoError(t, err)
	assert.Contains(t, out, "Removed 7 cached pages.")
}

func TestCacheImportCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "pages.json")
	body := `{"https://beliyles.com/tproduct/1": "<html></html>", "https://beliyles.com/tproduct/2": "<html></html>"}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	out, err := execute("cache", "import", path)

	require.NoError(t, err)
	assert.Equal(t, body, ts.cache.imported)
	assert.Contains(t, out, "Imported 2 pages.")
}

func TestCacheImportCmd_MissingFile(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("cache", "import", filepath.Join(t.TempDir(), "missing.json"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open import file")
}

func TestCacheCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	cacheService = nil

	_, err := execute("cache", "stats")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache service not configured")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.in))
	}
}
