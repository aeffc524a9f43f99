package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a sync is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Sync and semantic search are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStoreUnavailable indicates the vector store cannot be reached.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrCacheUnavailable indicates no page cache is configured.
	ErrCacheUnavailable = errors.New("page cache unavailable")

	// ErrCacheMiss indicates a URL has no cached page.
	ErrCacheMiss = errors.New("page not cached")

	// ErrMalformedPayload indicates a stored record could not be decoded.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrEmbeddingCountMismatch indicates the embedding service returned
	// a different number of vectors than texts submitted.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")

	// ErrSkippedProduct indicates a page was deliberately not turned into a record,
	// for example an empty or discontinued listing.
	ErrSkippedProduct = errors.New("product skipped")
)

// PayloadError describes a stored record that could not be decoded.
// It wraps ErrMalformedPayload.
type PayloadError struct {
	// Key identifies the record (storage key or URL).
	Key string

	// Operation is the store operation that read the record.
	Operation string

	Cause error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("%s: %s %q: %v", ErrMalformedPayload, e.Operation, e.Key, e.Cause)
}

// Unwrap allows errors.Is(err, ErrMalformedPayload) and inspection of the cause.
func (e *PayloadError) Unwrap() []error {
	return []error{ErrMalformedPayload, e.Cause}
}
