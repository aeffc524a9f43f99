package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/chai-cli/internal/logger"
)

// defaultStockConcurrency bounds parallel sample lookups.
const defaultStockConcurrency = 8

// SampleStockResolver looks up whether the samples linked to a set of
// products are in stock.
type SampleStockResolver struct {
	store       driven.TeaStore
	timeout     time.Duration
	concurrency int
	log         *logger.Logger
}

// NewSampleStockResolver creates a resolver. A timeout of zero or less
// selects domain.DefaultSampleTimeout.
func NewSampleStockResolver(store driven.TeaStore, timeout time.Duration) *SampleStockResolver {
	if timeout <= 0 {
		timeout = domain.DefaultSampleTimeout
	}
	return &SampleStockResolver{
		store:       store,
		timeout:     timeout,
		concurrency: defaultStockConcurrency,
		log:         logger.With("component", "sample_stock"),
	}
}

// Resolve returns the stock flag of every linked sample, keyed by sample URL.
// All lookups share one deadline. A lookup that fails, finds nothing or runs
// past the deadline leaves its sample unavailable; no failure is returned.
func (r *SampleStockResolver) Resolve(ctx context.Context, teas []domain.Tea) map[string]bool {
	var urls []string
	seen := make(map[string]struct{})
	for i := range teas {
		if !teas[i].HasSample() {
			continue
		}
		url := *teas[i].SampleURL
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}

	out := make(map[string]bool, len(urls))
	for _, url := range urls {
		out[url] = false
	}
	if len(urls) == 0 || r.store == nil {
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var mu sync.Mutex
	flags := make([]bool, len(urls))

	done := make(chan struct{})
	go func() {
		defer close(done)

		var g errgroup.Group
		g.SetLimit(r.concurrency)
		for i, url := range urls {
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				stored, err := r.store.GetByURL(ctx, url)
				if err != nil {
					r.log.Debug("sample lookup failed", "url", url, "error", err)
					return nil
				}
				mu.Lock()
				flags[i] = stored.Tea.InStock
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		r.log.Warn("sample lookups timed out", "timeout", r.timeout, "samples", len(urls))
	}

	mu.Lock()
	defer mu.Unlock()
	for i, url := range urls {
		out[url] = flags[i]
	}
	return out
}
