package driving

import (
	"context"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

// SyncOrchestrator coordinates catalog synchronisation into the vector store.
type SyncOrchestrator interface {
	// Sync runs the parsing, linking, vectorizing and reconciling phases and
	// returns the run's statistics. Per-item failures are counted, not returned.
	// Returns domain.ErrSyncInProgress if another run is active.
	Sync(ctx context.Context, opts domain.SyncOptions) (*domain.SyncStats, error)

	// Status returns a snapshot of the current or last run.
	Status(ctx context.Context) *domain.SyncStats
}
