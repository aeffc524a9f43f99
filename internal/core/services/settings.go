package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedDimensions  = "embedding.dimensions"
	keyEmbedTimeout     = "embedding.timeout"
	keyStoreBackend     = "store.backend"
	keyStoreSQLitePath  = "store.sqlite_path"
	keyStoreQdrantURL   = "store.qdrant_url"
	keyStoreCollection  = "store.qdrant_collection"
	keyStoreVectorSize  = "store.vector_size"
	keyCacheBackend     = "cache.backend"
	keyCacheRedisAddr   = "cache.redis_addr"
	keyCacheRedisPrefix = "cache.redis_prefix"
	keySyncBatchSize    = "sync.batch_size"
	keySyncFetchDelay   = "sync.fetch_delay"
	keySyncMinOverlap   = "sync.min_overlap_percent"
	keySyncSitemapURL   = "sync.sitemap_url"
	keySyncUserAgent    = "sync.user_agent"
	keySearchLimit      = "search.default_limit"
	keySearchSampleWait = "search.sample_timeout"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	envAPIKey           = "OPENROUTER_API_KEY"
	envEmbeddingModel   = "EMBEDDING_MODEL"
	envBaseURL          = "OPENROUTER_BASE_URL"
	envQdrantURL        = "QDRANT_URL"
	envQdrantCollection = "QDRANT_COLLECTION"
	envVectorSize       = "VECTOR_SIZE"
	envDatabasePath     = "DATABASE_PATH"
	envStoreBackend     = "CHAI_STORE_BACKEND"
	envCacheBackend     = "CHAI_CACHE_BACKEND"
	envRedisAddr        = "REDIS_ADDR"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindDuration
	kindProvider
	kindStoreBackend
	kindCacheBackend
)

// settingKeys lists every key accepted by Set.
var settingKeys = map[string]keyKind{
	keyEmbedProvider:    kindProvider,
	keyEmbedModel:       kindString,
	keyEmbedBaseURL:     kindString,
	keyEmbedAPIKey:      kindString,
	keyEmbedDimensions:  kindInt,
	keyEmbedTimeout:     kindDuration,
	keyStoreBackend:     kindStoreBackend,
	keyStoreSQLitePath:  kindString,
	keyStoreQdrantURL:   kindString,
	keyStoreCollection:  kindString,
	keyStoreVectorSize:  kindInt,
	keyCacheBackend:     kindCacheBackend,
	keyCacheRedisAddr:   kindString,
	keyCacheRedisPrefix: kindString,
	keySyncBatchSize:    kindInt,
	keySyncFetchDelay:   kindDuration,
	keySyncMinOverlap:   kindInt,
	keySyncSitemapURL:   kindString,
	keySyncUserAgent:    kindString,
	keySearchLimit:      kindInt,
	keySearchSampleWait: kindDuration,
}

// SettingsService resolves application settings from defaults, the config
// file and environment variables, in increasing precedence.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	provider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	model := s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[provider])

	dims := defaults.Embedding.Dimensions
	if d, ok := domain.EmbeddingDimensions()[model]; ok {
		dims = d
	}
	dims = s.getInt(keyEmbedDimensions, dims)

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   provider,
			Model:      model,
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // Empty selects the provider default
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: dims,
			Timeout:    s.getDuration(keyEmbedTimeout, defaults.Embedding.Timeout),
		},
		Store: domain.StoreSettings{
			Backend:          s.getStoreBackend(defaults.Store.Backend),
			SQLitePath:       s.configStore.GetString(keyStoreSQLitePath),
			QdrantURL:        s.getString(keyStoreQdrantURL, defaults.Store.QdrantURL),
			QdrantCollection: s.getString(keyStoreCollection, defaults.Store.QdrantCollection),
			VectorSize:       s.getInt(keyStoreVectorSize, dims),
		},
		Cache: domain.CacheSettings{
			Backend:     s.getCacheBackend(defaults.Cache.Backend),
			RedisAddr:   s.configStore.GetString(keyCacheRedisAddr),
			RedisPrefix: s.getString(keyCacheRedisPrefix, defaults.Cache.RedisPrefix),
		},
		Sync: domain.SyncSettings{
			BatchSize:         s.getInt(keySyncBatchSize, defaults.Sync.BatchSize),
			FetchDelay:        s.getDuration(keySyncFetchDelay, defaults.Sync.FetchDelay),
			MinOverlapPercent: s.getInt(keySyncMinOverlap, defaults.Sync.MinOverlapPercent),
			SitemapURL:        s.getString(keySyncSitemapURL, defaults.Sync.SitemapURL),
			UserAgent:         s.getString(keySyncUserAgent, defaults.Sync.UserAgent),
		},
		Search: domain.SearchSettings{
			DefaultLimit:        s.getInt(keySearchLimit, defaults.Search.DefaultLimit),
			SampleLookupTimeout: s.getDuration(keySearchSampleWait, defaults.Search.SampleLookupTimeout),
		},
	}

	if err := applyEnv(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// applyEnv overlays environment variables onto settings.
func applyEnv(settings *domain.AppSettings) error {
	if v, ok := lookupEnv(envAPIKey); ok {
		settings.Embedding.APIKey = v
	}
	if v, ok := lookupEnv(envEmbeddingModel); ok {
		settings.Embedding.Model = v
	}
	if v, ok := lookupEnv(envBaseURL); ok {
		settings.Embedding.BaseURL = v
	}
	if v, ok := lookupEnv(envQdrantURL); ok {
		settings.Store.QdrantURL = v
	}
	if v, ok := lookupEnv(envQdrantCollection); ok {
		settings.Store.QdrantCollection = v
	}
	if v, ok := lookupEnv(envVectorSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer, got %q", domain.ErrInvalidInput, envVectorSize, v)
		}
		settings.Store.VectorSize = n
		settings.Embedding.Dimensions = n
	}
	if v, ok := lookupEnv(envDatabasePath); ok {
		settings.Store.SQLitePath = v
	}
	if v, ok := lookupEnv(envStoreBackend); ok {
		backend := domain.StoreBackend(strings.ToLower(v))
		if !backend.IsValid() {
			return fmt.Errorf("%w: unknown %s %q", domain.ErrInvalidInput, envStoreBackend, v)
		}
		settings.Store.Backend = backend
	}
	if v, ok := lookupEnv(envCacheBackend); ok {
		backend := domain.CacheBackend(strings.ToLower(v))
		if !backend.IsValid() {
			return fmt.Errorf("%w: unknown %s %q", domain.ErrInvalidInput, envCacheBackend, v)
		}
		settings.Cache.Backend = backend
	}
	if v, ok := lookupEnv(envRedisAddr); ok {
		settings.Cache.RedisAddr = v
	}
	return nil
}

// lookupEnv returns a non-empty, trimmed environment value.
func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Set validates and stores a single config value by dotted key.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}

	var stored any = value
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		stored = n
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w: %s must be a duration such as 300ms: %w", domain.ErrInvalidInput, key, err)
		}
	case kindProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, value)
		}
	case kindStoreBackend:
		if !domain.StoreBackend(value).IsValid() {
			return fmt.Errorf("%w: invalid store backend: %s", domain.ErrInvalidInput, value)
		}
	case kindCacheBackend:
		if !domain.CacheBackend(value).IsValid() {
			return fmt.Errorf("%w: invalid cache backend: %s", domain.ErrInvalidInput, value)
		}
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every supported config key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Path returns the config file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getStoreBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	backend := domain.StoreBackend(s.configStore.GetString(keyStoreBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getCacheBackend(defaultVal domain.CacheBackend) domain.CacheBackend {
	backend := domain.CacheBackend(s.configStore.GetString(keyCacheBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
