// Package redis provides a Redis-backed page cache.
//
// Every page is a hash at <prefix>page:<url> holding the HTML and fetch time.
// A sorted set at <prefix>index scores each URL by fetch time so listing and
// age statistics never scan the keyspace.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/chai-cli/internal/logger"
)

// Ensure PageCache implements the interface.
var _ driven.PageCache = (*PageCache)(nil)

const (
	fieldHTML      = "html"
	fieldFetchedAt = "fetched_at"
)

// PageCache stores raw product pages in Redis.
type PageCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

// NewPageCache connects to addr and verifies the connection.
// An empty prefix selects domain.DefaultRedisPrefix.
func NewPageCache(ctx context.Context, addr, prefix string) (*PageCache, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewPageCacheFromClient(rdb, prefix), nil
}

// NewPageCacheFromClient wraps an existing client.
func NewPageCacheFromClient(rdb *goredis.Client, prefix string) *PageCache {
	if prefix == "" {
		prefix = domain.DefaultRedisPrefix
	}
	return &PageCache{
		log:    logger.With("component", "redis_cache", "prefix", prefix),
		rdb:    rdb,
		prefix: prefix,
	}
}

func (c *PageCache) pageKey(url string) string {
	return c.prefix + "page:" + url
}

func (c *PageCache) indexKey() string {
	return c.prefix + "index"
}

// Get returns the cached page for url.
func (c *PageCache) Get(ctx context.Context, url string) (*domain.CacheEntry, error) {
	values, err := c.rdb.HGetAll(ctx, c.pageKey(url)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get page: %w", err)
	}
	html, ok := values[fieldHTML]
	if !ok {
		return nil, domain.ErrNotFound
	}

	entry := &domain.CacheEntry{URL: url, HTML: html}
	if ms, err := strconv.ParseInt(values[fieldFetchedAt], 10, 64); err == nil {
		entry.FetchedAt = time.UnixMilli(ms).UTC()
	} else {
		c.log.Warn("bad fetched_at", "url", url, "value", values[fieldFetchedAt])
	}
	return entry, nil
}

// Put stores html for url and refreshes its fetch time.
func (c *PageCache) Put(ctx context.Context, url, html string) error {
	now := time.Now().UnixMilli()
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, c.pageKey(url), fieldHTML, html, fieldFetchedAt, now)
		pipe.ZAdd(ctx, c.indexKey(), goredis.Z{Score: float64(now), Member: url})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put page: %w", err)
	}
	return nil
}

// ListURLs returns every cached URL in sorted order.
func (c *PageCache) ListURLs(ctx context.Context) ([]string, error) {
	urls, err := c.rdb.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list pages: %w", err)
	}
	sort.Strings(urls)
	return urls, nil
}

// Contains reports whether url is cached.
func (c *PageCache) Contains(ctx context.Context, url string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.pageKey(url)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check page: %w", err)
	}
	return n > 0, nil
}

// Stats summarises the cache. Sizes are summed with one pipelined HSTRLEN per page.
func (c *PageCache) Stats(ctx context.Context) (*domain.CacheStats, error) {
	urls, err := c.rdb.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis stats: %w", err)
	}
	stats := &domain.CacheStats{EntryCount: len(urls)}
	if len(urls) == 0 {
		return stats, nil
	}

	cmds := make([]*goredis.IntCmd, len(urls))
	_, err = c.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, url := range urls {
			cmds[i] = pipe.HStrLen(ctx, c.pageKey(url), fieldHTML)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis stats sizes: %w", err)
	}
	for _, cmd := range cmds {
		stats.TotalSizeBytes += cmd.Val()
	}

	oldest, err := c.boundary(ctx, false)
	if err != nil {
		return nil, err
	}
	newest, err := c.boundary(ctx, true)
	if err != nil {
		return nil, err
	}
	stats.Oldest, stats.Newest = oldest, newest
	return stats, nil
}

// boundary returns the oldest or newest fetch time from the index.
func (c *PageCache) boundary(ctx context.Context, newest bool) (*time.Time, error) {
	var (
		zs  []goredis.Z
		err error
	)
	if newest {
		zs, err = c.rdb.ZRevRangeWithScores(ctx, c.indexKey(), 0, 0).Result()
	} else {
		zs, err = c.rdb.ZRangeWithScores(ctx, c.indexKey(), 0, 0).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("redis stats range: %w", err)
	}
	if len(zs) == 0 {
		return nil, nil
	}
	t := time.UnixMilli(int64(zs[0].Score)).UTC()
	return &t, nil
}

// Clear removes every cached page and the index.
func (c *PageCache) Clear(ctx context.Context) (int, error) {
	urls, err := c.rdb.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return 0, fmt.Errorf("redis clear: %w", err)
	}

	keys := make([]string, 0, len(urls)+1)
	for _, url := range urls {
		keys = append(keys, c.pageKey(url))
	}
	keys = append(keys, c.indexKey())

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("redis clear: %w", err)
	}
	c.log.Info("cache cleared", "pages", len(urls))
	return len(urls), nil
}

// Close closes the client.
func (c *PageCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
