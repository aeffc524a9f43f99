package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
)

// ==================== Page Cache ====================

// pageCache implements driven.PageCache.
type pageCache struct {
	store *Store
}

var _ driven.PageCache = (*pageCache)(nil)

// Get returns the cached page for url.
func (c *pageCache) Get(ctx context.Context, url string) (*domain.CacheEntry, error) {
	var (
		html      string
		fetchedAt int64
	)
	err := c.store.db.QueryRowContext(ctx,
		"SELECT html, fetched_at FROM html_cache WHERE url = ?", url).Scan(&html, &fetchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("querying cache: %w", err)
	}
	return &domain.CacheEntry{URL: url, HTML: html, FetchedAt: time.UnixMilli(fetchedAt).UTC()}, nil
}

// Put stores or replaces the page for url.
func (c *pageCache) Put(ctx context.Context, url, html string) error {
	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO html_cache (url, html, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET html = excluded.html, fetched_at = excluded.fetched_at
	`, url, html, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("caching page: %w", err)
	}
	return nil
}

// ListURLs returns every cached URL in lexicographic order.
func (c *pageCache) ListURLs(ctx context.Context) ([]string, error) {
	rows, err := c.store.db.QueryContext(ctx, "SELECT url FROM html_cache ORDER BY url")
	if err != nil {
		return nil, fmt.Errorf("listing cached urls: %w", err)
	}
	defer rows.Close()

	urls := []string{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scanning cached url: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

// Contains reports whether url is cached.
func (c *pageCache) Contains(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := c.store.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM html_cache WHERE url = ?)", url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking cache: %w", err)
	}
	return exists, nil
}

// Stats summarises the cache.
func (c *pageCache) Stats(ctx context.Context) (*domain.CacheStats, error) {
	var (
		stats          domain.CacheStats
		oldest, newest sql.NullInt64
	)
	err := c.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(CAST(html AS BLOB))), 0), MIN(fetched_at), MAX(fetched_at)
		FROM html_cache
	`).Scan(&stats.EntryCount, &stats.TotalSizeBytes, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("cache stats: %w", err)
	}
	if oldest.Valid {
		t := time.UnixMilli(oldest.Int64).UTC()
		stats.Oldest = &t
	}
	if newest.Valid {
		t := time.UnixMilli(newest.Int64).UTC()
		stats.Newest = &t
	}
	return &stats, nil
}

// Clear removes every entry.
func (c *pageCache) Clear(ctx context.Context) (int, error) {
	res, err := c.store.db.ExecContext(ctx, "DELETE FROM html_cache")
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	return int(n), nil
}
