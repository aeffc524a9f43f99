package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, sync and semantic search are disabled.
//
// Implementations may include:
//   - OpenRouter and OpenAI (OpenAI-compatible /embeddings API)
//   - Ollama (nomic-embed-text, mxbai-embed-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedMany generates embeddings for multiple texts in one request.
	// Results may arrive in any order; each carries the position of its input
	// text. Callers must place results by Index, never by slice position.
	EmbedMany(ctx context.Context, texts []string) ([]IndexedVector, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536, 4096).
	// This must match the vector store configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// IndexedVector is one embedding with the position of the text it was computed from.
type IndexedVector struct {
	Index  int
	Vector []float32
}
