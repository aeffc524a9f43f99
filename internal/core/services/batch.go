package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/chai-cli/internal/logger"
)

// BatchEmbedder turns texts into vectors in bounded batches, restoring input
// order from the index carried by each result.
type BatchEmbedder struct {
	embedder  driven.EmbeddingService
	batchSize int
	log       *logger.Logger
}

// NewBatchEmbedder creates a batch embedder. A batch size of zero or less
// selects domain.DefaultBatchSize.
func NewBatchEmbedder(embedder driven.EmbeddingService, batchSize int) *BatchEmbedder {
	if batchSize <= 0 {
		batchSize = domain.DefaultBatchSize
	}
	return &BatchEmbedder{
		embedder:  embedder,
		batchSize: batchSize,
		log:       logger.With("component", "batch_embedder"),
	}
}

// BatchSize returns the maximum number of texts per request.
func (b *BatchEmbedder) BatchSize() int {
	return b.batchSize
}

// EmbedAll embeds texts in consecutive batches. The result has one slot per
// input text; slots the service left unanswered are nil.
// Empty input returns an empty result without calling the service.
func (b *BatchEmbedder) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	for start := 0; start < len(texts); start += b.batchSize {
		end := min(start+b.batchSize, len(texts))

		vectors, err := b.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		copy(out[start:end], vectors)
	}

	return out, nil
}

// EmbedBatch embeds a single batch with one service call and places each
// returned vector at the position named by its index. A count mismatch is
// logged and the recoverable correspondence kept. Out-of-range and duplicate
// indices are ignored.
func (b *BatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	results, err := b.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return nil, err
	}

	if len(results) != len(texts) {
		b.log.Warn("embedding count mismatch",
			"requested", len(texts),
			"received", len(results),
			"error", domain.ErrEmbeddingCountMismatch)
	}

	for _, r := range results {
		if r.Index < 0 || r.Index >= len(out) {
			b.log.Warn("embedding index out of range", "index", r.Index, "batch", len(texts))
			continue
		}
		if out[r.Index] != nil {
			b.log.Warn("duplicate embedding index", "index", r.Index)
			continue
		}
		out[r.Index] = r.Vector
	}

	return out, nil
}
