package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available embedding providers.
const (
	// AIProviderOpenRouter is the OpenRouter API (OpenAI-compatible).
	AIProviderOpenRouter AIProvider = "openrouter"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"
)

// IsValid returns true if the provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenRouter, AIProviderOpenAI, AIProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenRouter || p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOpenRouter:
		return "OpenRouter (cloud)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// StoreBackend selects the vector store implementation.
type StoreBackend string

// Available store backends.
const (
	// StoreBackendSQLite is the embedded SQLite store with vector functions.
	StoreBackendSQLite StoreBackend = "sqlite"

	// StoreBackendQdrant is a remote Qdrant collection.
	StoreBackendQdrant StoreBackend = "qdrant"

	// StoreBackendMemory keeps records in process memory. Intended for dry runs.
	StoreBackendMemory StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendSQLite, StoreBackendQdrant, StoreBackendMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// CacheBackend selects the page cache implementation.
type CacheBackend string

// Available cache backends.
const (
	CacheBackendSQLite CacheBackend = "sqlite"
	CacheBackendRedis  CacheBackend = "redis"
	CacheBackendMemory CacheBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b CacheBackend) IsValid() bool {
	switch b {
	case CacheBackendSQLite, CacheBackendRedis, CacheBackendMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b CacheBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint. Empty selects the provider default.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// Dimensions is the embedding vector size.
	Dimensions int

	// Timeout bounds each embedding request.
	Timeout time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// StoreSettings holds vector store configuration.
type StoreSettings struct {
	Backend StoreBackend

	// SQLitePath is the database file for the sqlite backend and page cache.
	SQLitePath string

	QdrantURL        string
	QdrantCollection string

	// VectorSize is the collection vector dimension.
	VectorSize int
}

// CacheSettings holds page cache configuration.
type CacheSettings struct {
	Backend     CacheBackend
	RedisAddr   string
	RedisPrefix string
}

// SyncSettings holds sync pipeline configuration.
type SyncSettings struct {
	// BatchSize bounds the number of texts per embedding request.
	BatchSize int

	// FetchDelay is the pause between live page fetches.
	FetchDelay time.Duration

	// MinOverlapPercent is the prefix-match threshold for sample linking.
	MinOverlapPercent int

	SitemapURL string
	UserAgent  string
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	// DefaultLimit is used when a query does not specify one.
	DefaultLimit int

	// SampleLookupTimeout bounds the sample stock fan-out.
	SampleLookupTimeout time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	Store     StoreSettings
	Cache     CacheSettings
	Sync      SyncSettings
	Search    SearchSettings
}

// Default values for settings.
const (
	DefaultEmbeddingModel    = "qwen/qwen3-embedding-8b"
	DefaultVectorSize        = 4096
	DefaultEmbeddingTimeout  = 120 * time.Second
	DefaultQdrantURL         = "http://localhost:6333"
	DefaultQdrantCollection  = "teas"
	DefaultBatchSize         = 50
	DefaultFetchDelay        = 300 * time.Millisecond
	DefaultMinOverlapPercent = 80
	DefaultSitemapURL        = "https://beliyles.com/sitemap-store.xml"
	DefaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultSampleTimeout     = 10 * time.Second
	DefaultRedisPrefix       = "chai:cache:"
)

// DefaultAppSettings returns settings with sensible defaults.
// The embedding API key is left empty and must come from config or environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOpenRouter,
			Model:      DefaultEmbeddingModel,
			Dimensions: DefaultVectorSize,
			Timeout:    DefaultEmbeddingTimeout,
		},
		Store: StoreSettings{
			Backend:          StoreBackendSQLite,
			QdrantURL:        DefaultQdrantURL,
			QdrantCollection: DefaultQdrantCollection,
			VectorSize:       DefaultVectorSize,
		},
		Cache: CacheSettings{
			Backend:     CacheBackendSQLite,
			RedisPrefix: DefaultRedisPrefix,
		},
		Sync: SyncSettings{
			BatchSize:         DefaultBatchSize,
			FetchDelay:        DefaultFetchDelay,
			MinOverlapPercent: DefaultMinOverlapPercent,
			SitemapURL:        DefaultSitemapURL,
			UserAgent:         DefaultUserAgent,
		},
		Search: SearchSettings{
			DefaultLimit:        DefaultSearchLimit,
			SampleLookupTimeout: DefaultSampleTimeout,
		},
	}
}

// DefaultEmbeddingModels returns default models for each provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenRouter: DefaultEmbeddingModel,
		AIProviderOpenAI:     "text-embedding-3-small",
		AIProviderOllama:     "nomic-embed-text",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"qwen/qwen3-embedding-8b": 4096,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
	}
}
