package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
)

// Ensure PageCache implements the interface.
var _ driven.PageCache = (*PageCache)(nil)

// PageCache is an in-memory implementation of driven.PageCache.
type PageCache struct {
	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
}

// NewPageCache creates a new in-memory page cache.
func NewPageCache() *PageCache {
	return &PageCache{
		entries: make(map[string]domain.CacheEntry),
	}
}

// Get returns the cached page for url.
func (c *PageCache) Get(_ context.Context, url string) (*domain.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[url]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// Put stores or replaces the page for url.
func (c *PageCache) Put(_ context.Context, url, html string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = domain.CacheEntry{URL: url, HTML: html, FetchedAt: time.Now().UTC()}
	return nil
}

// ListURLs returns every cached URL in lexicographic order.
func (c *PageCache) ListURLs(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	urls := make([]string, 0, len(c.entries))
	for url := range c.entries {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls, nil
}

// Contains reports whether url is cached.
func (c *PageCache) Contains(_ context.Context, url string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[url]
	return ok, nil
}

// Stats summarises the cache.
func (c *PageCache) Stats(_ context.Context) (*domain.CacheStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := &domain.CacheStats{EntryCount: len(c.entries)}
	for _, e := range c.entries {
		stats.TotalSizeBytes += int64(len(e.HTML))
		fetched := e.FetchedAt
		if stats.Oldest == nil || fetched.Before(*stats.Oldest) {
			stats.Oldest = &fetched
		}
		if stats.Newest == nil || fetched.After(*stats.Newest) {
			stats.Newest = &fetched
		}
	}
	return stats, nil
}

// Clear removes every entry.
func (c *PageCache) Clear(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]domain.CacheEntry)
	return n, nil
}
