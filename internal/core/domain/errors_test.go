package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrSyncInProgress", ErrSyncInProgress},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrStoreUnavailable", ErrStoreUnavailable},
		{"ErrCacheUnavailable", ErrCacheUnavailable},
		{"ErrCacheMiss", ErrCacheMiss},
		{"ErrMalformedPayload", ErrMalformedPayload},
		{"ErrEmbeddingCountMismatch", ErrEmbeddingCountMismatch},
		{"ErrSkippedProduct", ErrSkippedProduct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(fmt.Errorf("get tea: %w", ErrNotFound), ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrInvalidInput))
}

func TestPayloadError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := fmt.Errorf("get by url: %w", &PayloadError{
		Key:       "https://example.com/tproduct/1",
		Operation: "get_by_url",
		Cause:     cause,
	})

	assert.True(t, errors.Is(err, ErrMalformedPayload))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "get_by_url")
	assert.Contains(t, err.Error(), "https://example.com/tproduct/1")

	var payloadErr *PayloadError
	assert.True(t, errors.As(err, &payloadErr))
	assert.Equal(t, "get_by_url", payloadErr.Operation)
}
