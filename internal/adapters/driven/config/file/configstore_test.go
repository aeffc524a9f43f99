package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".chai", "config.toml"), store.Path())
	assert.DirExists(t, filepath.Join(home, ".chai"))
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(parent, []byte("x"), 0600))

	_, err := NewConfigStore(filepath.Join(parent, "sub"))
	assert.ErrorContains(t, err, "creating config directory")
}

func TestNewConfigStore_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[embedding\nmodel ="), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.ErrorContains(t, err, "parse ")
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))
	require.NoError(t, store.Set("sync.batch_size", 25))
	require.NoError(t, store.Set("search.enabled", true))
	require.NoError(t, store.Set("sync.tags", []string{"a", "b"}))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{name: "string", got: store.GetString("embedding.model"), want: "nomic-embed-text"},
		{name: "int", got: store.GetInt("sync.batch_size"), want: 25},
		{name: "bool", got: store.GetBool("search.enabled"), want: true},
		{name: "slice", got: store.GetStringSlice("sync.tags"), want: []string{"a", "b"}},
		{name: "string of int", got: store.GetString("sync.batch_size"), want: ""},
		{name: "int of string", got: store.GetInt("embedding.model"), want: 0},
		{name: "missing bool", got: store.GetBool("nope"), want: false},
		{name: "missing slice", got: store.GetStringSlice("nope"), want: []string(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("embedding.model", "qwen/qwen3-embedding-8b"))
	require.NoError(t, store.Set("store.vector_size", 4096))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "[embedding]")
	assert.Contains(t, content, "[store]")
	assert.NotContains(t, content, `"embedding.model"`)
}

func TestConfigStore_PersistenceAcrossInstances(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("embedding.provider", "ollama"))
	require.NoError(t, store.Set("sync.batch_size", 10))
	require.NoError(t, store.Set("sync.tags", []string{"x"}))

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "ollama", reopened.GetString("embedding.provider"))
	assert.Equal(t, 10, reopened.GetInt("sync.batch_size"))
	assert.Equal(t, []string{"x"}, reopened.GetStringSlice("sync.tags"))
	assert.Equal(t, []string{"embedding.provider", "sync.batch_size", "sync.tags"}, reopened.Keys())
}

func TestConfigStore_HandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[embedding]
provider = "openai"
model = "text-embedding-3-small"

[store.qdrant]
url = "http://qdrant:6333"
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "openai", store.GetString("embedding.provider"))
	assert.Equal(t, "http://qdrant:6333", store.GetString("store.qdrant.url"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("cache.backend", "redis"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_SetRejectsBadKeys(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", " ", ".a", "a."} {
		assert.Error(t, store.Set(key, "v"), "key %q", key)
	}
}

func TestConfigStore_SetConflictRollsBack(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("store", "sqlite"))

	err = store.Set("store.backend", "qdrant")
	assert.ErrorContains(t, err, "conflicts")

	_, ok := store.Get("store.backend")
	assert.False(t, ok)
	assert.Equal(t, "sqlite", store.GetString("store"))
}

func TestConfigStore_LoadReflectsExternalEdits(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("embedding.model", "a"))

	require.NoError(t, os.WriteFile(store.Path(), []byte("[embedding]\nmodel = \"b\"\n"), 0600))
	require.NoError(t, store.Load())
	assert.Equal(t, "b", store.GetString("embedding.model"))

	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, store.Load())
	assert.Empty(t, store.Keys())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("sync.batch_size", i+1)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt("sync.batch_size")
		}()
	}
	wg.Wait()

	assert.Positive(t, store.GetInt("sync.batch_size"))
}

func TestNest(t *testing.T) {
	tree, err := nest(map[string]any{"a.b": 1, "a.c.d": "x", "e": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": 1, "c": map[string]any{"d": "x"}},
		"e": true,
	}, tree)
	assert.Equal(t, map[string]any{"a.b": 1, "a.c.d": "x", "e": true}, flatten(tree, ""))
}
