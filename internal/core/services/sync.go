package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/chai-cli/internal/catalog"
	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driving"
	"github.com/custodia-labs/chai-cli/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncConfig tunes a SyncOrchestrator. Zero values select the defaults.
type SyncConfig struct {
	// BatchSize bounds the number of records per embedding request.
	BatchSize int

	// FetchDelay is the pause between live page fetches. Zero disables it.
	FetchDelay time.Duration

	// MinOverlapPercent is the sample linking threshold.
	MinOverlapPercent int
}

// SyncOrchestrator coordinates catalog synchronisation into the vector store.
type SyncOrchestrator struct {
	store    driven.TeaStore
	embedder driven.EmbeddingService
	scraper  driven.Scraper
	cache    driven.PageCache

	cfg     SyncConfig
	batcher *BatchEmbedder
	linker  *catalog.Linker
	log     *logger.Logger

	// Status tracking
	mu      sync.RWMutex
	running bool
	status  domain.SyncStats
}

// NewSyncOrchestrator creates a new sync orchestrator.
// The cache is optional and only required for syncs from cache.
func NewSyncOrchestrator(
	store driven.TeaStore,
	embedder driven.EmbeddingService,
	scraper driven.Scraper,
	cache driven.PageCache,
	cfg SyncConfig,
) *SyncOrchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultBatchSize
	}
	if cfg.MinOverlapPercent <= 0 {
		cfg.MinOverlapPercent = domain.DefaultMinOverlapPercent
	}
	return &SyncOrchestrator{
		store:    store,
		embedder: embedder,
		scraper:  scraper,
		cache:    cache,
		cfg:      cfg,
		batcher:  NewBatchEmbedder(embedder, cfg.BatchSize),
		linker:   catalog.NewLinker(cfg.MinOverlapPercent),
		log:      logger.With("component", "sync"),
		status:   domain.SyncStats{Phase: domain.SyncPhaseIdle},
	}
}

// Status returns a snapshot of the current or last run.
func (o *SyncOrchestrator) Status(_ context.Context) *domain.SyncStats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	snapshot := o.status
	return &snapshot
}

// Sync runs every phase in order and returns the final statistics.
// Per-item failures are counted in Errors; only configuration and backend
// connectivity failures abort the run.
func (o *SyncOrchestrator) Sync(ctx context.Context, opts domain.SyncOptions) (*domain.SyncStats, error) {
	if err := o.validate(opts); err != nil {
		return nil, err
	}
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.end()

	run := &syncRun{
		o:     o,
		opts:  opts,
		byURL: make(map[string]*domain.Tea),
	}

	if err := run.execute(ctx); err != nil {
		o.log.Error("sync aborted", "phase", o.Status(ctx).Phase, "error", err)
		return o.Status(ctx), err
	}
	return o.Status(ctx), nil
}

func (o *SyncOrchestrator) validate(opts domain.SyncOptions) error {
	if o.store == nil {
		return fmt.Errorf("sync: %w", domain.ErrStoreUnavailable)
	}
	if o.embedder == nil {
		return fmt.Errorf("sync: %w", domain.ErrEmbeddingUnavailable)
	}
	if o.scraper == nil {
		return errors.New("sync: scraper not configured")
	}
	if opts.FromCache && o.cache == nil {
		return fmt.Errorf("sync from cache: %w", domain.ErrCacheUnavailable)
	}
	if opts.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", domain.ErrInvalidInput, opts.Limit)
	}
	return nil
}

func (o *SyncOrchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return domain.ErrSyncInProgress
	}
	o.running = true
	o.status = domain.SyncStats{Phase: domain.SyncPhaseIdle, StartedAt: time.Now()}
	return nil
}

func (o *SyncOrchestrator) end() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running = false
}

// update applies fn to the live statistics under the lock.
func (o *SyncOrchestrator) update(fn func(s *domain.SyncStats)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(&o.status)
}

// advance moves the run to the next phase.
func (o *SyncOrchestrator) advance(next domain.SyncPhase) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.status.Phase.CanAdvanceTo(next) {
		return fmt.Errorf("sync: invalid phase transition %s -> %s", o.status.Phase, next)
	}
	o.status.Phase = next
	if next == domain.SyncPhaseDone {
		o.status.FinishedAt = time.Now()
	}
	return nil
}

// pendingKind records why a record is being embedded.
type pendingKind int

const (
	pendingAdd pendingKind = iota
	pendingUpdate
)

type pendingItem struct {
	tea  *domain.Tea
	hash string
	kind pendingKind
	text string
}

// syncRun owns the state of one Sync call. It is never shared between runs.
type syncRun struct {
	o    *SyncOrchestrator
	opts domain.SyncOptions

	urls      []string
	truncated bool
	existing  []string

	byURL   map[string]*domain.Tea
	mains   []*domain.Tea
	samples []*domain.Tea

	pending []pendingItem
}

func (r *syncRun) execute(ctx context.Context) error {
	if err := r.o.store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	steps := []struct {
		phase domain.SyncPhase
		run   func(context.Context) error
	}{
		{domain.SyncPhaseParsing, r.parse},
		{domain.SyncPhaseLinking, r.link},
		{domain.SyncPhaseVectorizing, r.vectorize},
		{domain.SyncPhaseReconciling, r.reconcile},
	}

	for _, step := range steps {
		if err := r.o.advance(step.phase); err != nil {
			return err
		}
		logger.Section(step.phase.String())
		if err := step.run(ctx); err != nil {
			return fmt.Errorf("%s: %w", step.phase, err)
		}
	}

	if err := r.o.advance(domain.SyncPhaseDone); err != nil {
		return err
	}

	s := r.o.Status(ctx)
	r.o.log.Info("sync completed",
		"main_products", s.MainProducts,
		"samples", s.Samples,
		"linked", s.Linked,
		"added", s.Added,
		"updated", s.Updated,
		"skipped", s.Skipped,
		"deleted", s.Deleted,
		"errors", s.Errors,
		"duration", s.Duration().Round(time.Millisecond))
	return nil
}

// ==================== Parsing ====================

func (r *syncRun) parse(ctx context.Context) error {
	urls, err := r.listURLs(ctx)
	if err != nil {
		return err
	}
	if r.opts.Limit > 0 && len(urls) > r.opts.Limit {
		urls = urls[:r.opts.Limit]
		r.truncated = true
	}
	r.urls = urls
	r.o.update(func(s *domain.SyncStats) { s.Total = len(urls) })
	r.o.log.Info("catalog listed", "urls", len(urls), "from_cache", r.opts.FromCache)

	if !r.opts.Force {
		existing, err := r.o.store.ListAllURLs(ctx)
		if err != nil {
			return fmt.Errorf("list stored urls: %w", err)
		}
		r.existing = existing
	}

	limiter := r.fetchLimiter()

	for i, url := range r.urls {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, seen := r.byURL[url]; seen {
			r.o.update(func(s *domain.SyncStats) { s.Processed++ })
			continue
		}

		tea, err := r.obtain(ctx, limiter, url)
		r.o.update(func(s *domain.SyncStats) { s.Processed++ })
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.o.update(func(s *domain.SyncStats) { s.Errors++ })
			r.o.log.Warn("parse failed", "position", i+1, "total", len(r.urls), "url", url, "error", err)
			continue
		}

		r.byURL[url] = tea
		kind := catalog.Classify(tea)
		if kind.IsMain() {
			r.mains = append(r.mains, tea)
		} else {
			r.samples = append(r.samples, tea)
		}
		r.o.log.Debug("parsed", "position", i+1, "total", len(r.urls), "name", tea.DisplayName(), "kind", kind)
	}

	r.o.update(func(s *domain.SyncStats) {
		s.MainProducts = len(r.mains)
		s.Samples = len(r.samples)
	})
	return nil
}

func (r *syncRun) listURLs(ctx context.Context) ([]string, error) {
	if r.opts.FromCache {
		urls, err := r.o.cache.ListURLs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list cached urls: %w", err)
		}
		return urls, nil
	}
	urls, err := r.o.scraper.ListCatalogURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog urls: %w", err)
	}
	return urls, nil
}

// fetchLimiter paces live fetches. The first fetch is immediate.
// Cache runs never wait.
func (r *syncRun) fetchLimiter() *rate.Limiter {
	if r.opts.FromCache || r.o.cfg.FetchDelay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(r.o.cfg.FetchDelay), 1)
}

func (r *syncRun) obtain(ctx context.Context, limiter *rate.Limiter, url string) (*domain.Tea, error) {
	if r.opts.FromCache {
		entry, err := r.o.cache.Get(ctx, url)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", domain.ErrCacheMiss, url)
			}
			return nil, err
		}
		return r.o.scraper.Parse(url, entry.HTML)
	}

	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.o.scraper.Scrape(ctx, url)
}

// ==================== Linking ====================

func (r *syncRun) link(_ context.Context) error {
	result := r.o.linker.Link(r.samples, r.mains)
	r.o.update(func(s *domain.SyncStats) {
		s.Linked = result.Linked
		s.NotLinked = result.NotLinked
	})
	r.o.log.Info("linking done", "linked", result.Linked, "not_linked", result.NotLinked)
	return nil
}

// ==================== Vectorizing ====================

func (r *syncRun) vectorize(ctx context.Context) error {
	batchSize := r.o.batcher.BatchSize()

	for _, tea := range r.mains {
		if err := ctx.Err(); err != nil {
			return err
		}

		item, skip, err := r.classifyChange(ctx, tea)
		if err != nil {
			return err
		}
		if skip {
			r.o.update(func(s *domain.SyncStats) { s.Skipped++ })
			continue
		}
		if item == nil {
			continue
		}

		r.pending = append(r.pending, *item)
		if len(r.pending) >= batchSize {
			if err := r.flush(ctx); err != nil {
				return err
			}
		}
	}

	return r.flush(ctx)
}

// classifyChange decides whether a main product must be embedded.
// It returns skip for unchanged records and a nil item for records that
// could not be hashed (counted as errors).
func (r *syncRun) classifyChange(ctx context.Context, tea *domain.Tea) (*pendingItem, bool, error) {
	hash, err := catalog.ContentHash(*tea)
	if err != nil {
		r.o.update(func(s *domain.SyncStats) { s.Errors++ })
		r.o.log.Warn("hash failed", "url", tea.URL, "error", err)
		return nil, false, nil
	}

	kind := pendingUpdate
	if !r.opts.Force {
		stored, err := r.o.store.GetByURL(ctx, tea.URL)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			kind = pendingAdd
		case errors.Is(err, domain.ErrMalformedPayload):
			r.o.log.Warn("stored payload unreadable, re-embedding", "url", tea.URL, "error", err)
		case err != nil:
			return nil, false, fmt.Errorf("lookup %s: %w", tea.URL, err)
		case stored.ContentHash == hash:
			return nil, true, nil
		}
	}

	return &pendingItem{
		tea:  tea,
		hash: hash,
		kind: kind,
		text: catalog.EmbeddingText(*tea),
	}, false, nil
}

// flush embeds the pending batch and upserts every item with its vector.
func (r *syncRun) flush(ctx context.Context) error {
	if len(r.pending) == 0 {
		return nil
	}
	batch := r.pending
	r.pending = nil

	texts := make([]string, len(batch))
	for i, item := range batch {
		texts[i] = item.text
	}

	r.o.log.Info("vectorizing batch", "size", len(batch))
	vectors, err := r.o.batcher.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	for i, item := range batch {
		if vectors[i] == nil {
			r.o.update(func(s *domain.SyncStats) { s.Errors++ })
			r.o.log.Warn("no embedding returned", "url", item.tea.URL)
			continue
		}

		if err := r.o.store.Upsert(ctx, *item.tea, vectors[i], item.hash); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, domain.ErrStoreUnavailable) {
				return fmt.Errorf("upsert %s: %w", item.tea.URL, err)
			}
			r.o.update(func(s *domain.SyncStats) { s.Errors++ })
			r.o.log.Warn("upsert failed", "url", item.tea.URL, "error", err)
			continue
		}

		r.o.update(func(s *domain.SyncStats) {
			if item.kind == pendingAdd {
				s.Added++
			} else {
				s.Updated++
			}
		})
	}
	return nil
}

// ==================== Reconciling ====================

func (r *syncRun) reconcile(ctx context.Context) error {
	if r.opts.Force {
		r.o.log.Debug("reconciliation skipped", "reason", "force")
		return nil
	}
	if r.truncated {
		r.o.log.Info("reconciliation skipped", "reason", "limit truncated the catalog")
		return nil
	}

	current := make(map[string]struct{}, len(r.mains))
	for _, tea := range r.mains {
		current[tea.URL] = struct{}{}
	}

	for _, url := range r.existing {
		if _, ok := current[url]; ok {
			continue
		}
		if err := r.o.store.DeleteByURL(ctx, url); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, domain.ErrStoreUnavailable) {
				return fmt.Errorf("delete %s: %w", url, err)
			}
			r.o.update(func(s *domain.SyncStats) { s.Errors++ })
			r.o.log.Warn("delete failed", "url", url, "error", err)
			continue
		}
		r.o.update(func(s *domain.SyncStats) { s.Deleted++ })
		r.o.log.Debug("deleted", "url", url)
	}
	return nil
}
