package domain

import "time"

// CacheEntry is a raw product page kept for offline syncs.
type CacheEntry struct {
	URL       string
	HTML      string
	FetchedAt time.Time
}

// CacheStats summarises the page cache.
type CacheStats struct {
	EntryCount     int        `json:"entry_count"`
	TotalSizeBytes int64      `json:"total_size_bytes"`
	Oldest         *time.Time `json:"oldest,omitempty"`
	Newest         *time.Time `json:"newest,omitempty"`
}

// CacheFillStats reports the outcome of a cache fill run.
type CacheFillStats struct {
	Total   int `json:"total"`
	Fetched int `json:"fetched"`
	Cached  int `json:"already_cached"`
	Errors  int `json:"errors"`
}
