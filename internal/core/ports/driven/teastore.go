package driven

import (
	"context"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

// TeaStore persists catalog records with their embeddings and answers
// similarity queries. SQLite and Qdrant implement it with identical semantics.
//
// Records are keyed by the storage key derived from their URL, so upserting the
// same URL twice replaces the previous entry.
type TeaStore interface {
	// EnsureSchema creates the collection or tables and their secondary
	// indexes if absent. It is idempotent.
	EnsureSchema(ctx context.Context) error

	// Upsert inserts or replaces a record, its vector and its content hash together.
	// A nil vector stores a new record without an embedding, which keeps it out of
	// Search; on an existing record it leaves the previous embedding in place.
	Upsert(ctx context.Context, tea domain.Tea, vector []float32, contentHash string) error

	// GetByURL returns the record stored for url.
	// Returns domain.ErrNotFound if absent and a domain.PayloadError if the
	// stored payload cannot be decoded.
	GetByURL(ctx context.Context, url string) (*domain.StoredTea, error)

	// GetByID returns the record with the given short ID.
	GetByID(ctx context.Context, id string) (*domain.StoredTea, error)

	// DeleteByURL removes the record for url. Deleting an absent record is not an error.
	DeleteByURL(ctx context.Context, url string) error

	// Search returns up to limit embedded records ranked by cosine similarity to
	// vector, most similar first. Set filters are AND-composed.
	Search(ctx context.Context, vector []float32, limit int, filters domain.SearchFilters) ([]domain.SearchResult, error)

	// ListAllURLs enumerates every stored URL, paginating until exhausted.
	ListAllURLs(ctx context.Context) ([]string, error)

	// Stats returns aggregate catalog counts.
	Stats(ctx context.Context) (*domain.CatalogStats, error)

	// Close releases the underlying connection.
	Close() error
}
