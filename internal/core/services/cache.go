package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driving"
	"github.com/custodia-labs/chai-cli/internal/logger"
)

// Ensure CacheService implements the interface.
var _ driving.CacheService = (*CacheService)(nil)

// CacheService fills and maintains the raw HTML page cache.
type CacheService struct {
	cache      driven.PageCache
	scraper    driven.Scraper
	fetchDelay time.Duration
	log        *logger.Logger
}

// NewCacheService creates a new cache service.
// The scraper is only needed by Fill.
func NewCacheService(cache driven.PageCache, scraper driven.Scraper, fetchDelay time.Duration) *CacheService {
	return &CacheService{
		cache:      cache,
		scraper:    scraper,
		fetchDelay: fetchDelay,
		log:        logger.With("component", "cache"),
	}
}

// Fill downloads every catalog page that is not cached yet, pausing between
// fetches. Fetch and store failures are counted and do not stop the fill.
func (s *CacheService) Fill(ctx context.Context, limit int) (*domain.CacheFillStats, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheUnavailable
	}
	if s.scraper == nil {
		return nil, errors.New("cache fill: scraper not configured")
	}

	urls, err := s.scraper.ListCatalogURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog urls: %w", err)
	}
	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
	}

	stats := &domain.CacheFillStats{Total: len(urls)}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if s.fetchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.fetchDelay), 1)
	}

	for i, url := range urls {
		cached, err := s.cache.Contains(ctx, url)
		if err != nil {
			return stats, fmt.Errorf("check cache: %w", err)
		}
		if cached {
			stats.Cached++
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return stats, err
		}

		html, err := s.scraper.Fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Errors++
			s.log.Warn("fetch failed", "position", i+1, "total", len(urls), "url", url, "error", err)
			continue
		}

		if err := s.cache.Put(ctx, url, html); err != nil {
			stats.Errors++
			s.log.Warn("cache put failed", "url", url, "error", err)
			continue
		}
		stats.Fetched++
		s.log.Debug("cached", "position", i+1, "total", len(urls), "url", url, "bytes", len(html))
	}

	s.log.Info("cache fill done",
		"total", stats.Total, "fetched", stats.Fetched, "cached", stats.Cached, "errors", stats.Errors)
	return stats, nil
}

// Stats summarises the cache.
func (s *CacheService) Stats(ctx context.Context) (*domain.CacheStats, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheUnavailable
	}
	return s.cache.Stats(ctx)
}

// Clear removes every cached page.
func (s *CacheService) Clear(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, domain.ErrCacheUnavailable
	}
	return s.cache.Clear(ctx)
}

// ImportJSON loads a {"url": "html"} object into the cache in URL order.
func (s *CacheService) ImportJSON(ctx context.Context, r io.Reader) (int, error) {
	if s.cache == nil {
		return 0, domain.ErrCacheUnavailable
	}

	var pages map[string]string
	if err := json.NewDecoder(r).Decode(&pages); err != nil {
		return 0, fmt.Errorf("%w: decode cache json: %w", domain.ErrInvalidInput, err)
	}

	urls := make([]string, 0, len(pages))
	for url := range pages {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	imported := 0
	for _, url := range urls {
		if err := s.cache.Put(ctx, url, pages[url]); err != nil {
			return imported, fmt.Errorf("import %s: %w", url, err)
		}
		imported++
	}

	s.log.Info("cache import done", "pages", imported)
	return imported, nil
}
