package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/chai-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/chai-cli/internal/catalog"
	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
)

// urlPageSize bounds each ListAllURLs query.
const urlPageSize = 500

// ==================== Tea Store ====================

// teaStore implements driven.TeaStore.
type teaStore struct {
	store *Store
}

var _ driven.TeaStore = (*teaStore)(nil)

// EnsureSchema applies pending migrations. The schema is created on open,
// so this only matters for databases migrated by an older binary.
func (s *teaStore) EnsureSchema(_ context.Context) error {
	return s.store.migrate(migrations.FS)
}

// Upsert inserts or replaces a record in one statement.
// A nil vector keeps the stored embedding of an existing record.
func (s *teaStore) Upsert(ctx context.Context, tea domain.Tea, vector []float32, contentHash string) error {
	if tea.URL == "" {
		return fmt.Errorf("%w: tea url is empty", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(tea)
	if err != nil {
		return fmt.Errorf("marshalling tea: %w", err)
	}

	var embedding any
	if len(vector) > 0 {
		embedding = float32SliceToBytes(vector)
	}

	var series any
	if name := tea.SeriesName(); name != "" {
		series = name
	}

	now := time.Now().UnixMilli()
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO teas (id, short_id, url, tea_data, content_hash, embedding,
			in_stock, is_sample, is_set, series, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			short_id = excluded.short_id,
			url = excluded.url,
			tea_data = excluded.tea_data,
			content_hash = excluded.content_hash,
			embedding = COALESCE(excluded.embedding, teas.embedding),
			in_stock = excluded.in_stock,
			is_sample = excluded.is_sample,
			is_set = excluded.is_set,
			series = excluded.series,
			updated_at = excluded.updated_at
	`,
		catalog.DeriveStorageKey(tea.URL), catalog.DeriveID(tea.URL), tea.URL, string(data), contentHash, embedding,
		boolToInt(tea.InStock), boolToInt(tea.IsSample), boolToInt(tea.IsSet), series, now, now,
	)
	if err != nil {
		return fmt.Errorf("upserting tea: %w", err)
	}
	return nil
}

// GetByURL returns the record stored for url.
func (s *teaStore) GetByURL(ctx context.Context, url string) (*domain.StoredTea, error) {
	return s.getOne(ctx, "get_by_url", "url = ?", url)
}

// GetByID returns the record with the given short ID.
func (s *teaStore) GetByID(ctx context.Context, id string) (*domain.StoredTea, error) {
	return s.getOne(ctx, "get_by_id", "short_id = ?", id)
}

func (s *teaStore) getOne(ctx context.Context, op, where string, arg string) (*domain.StoredTea, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT url, tea_data, content_hash, embedding IS NOT NULL, created_at, updated_at
		FROM teas WHERE `+where, arg)

	var (
		url, data, hash      string
		hasEmbedding         bool
		createdAt, updatedAt int64
	)
	if err := row.Scan(&url, &data, &hash, &hasEmbedding, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("querying tea: %w", err)
	}

	var tea domain.Tea
	if err := json.Unmarshal([]byte(data), &tea); err != nil {
		return nil, &domain.PayloadError{Key: url, Operation: op, Cause: err}
	}

	return &domain.StoredTea{
		Tea:          tea,
		ContentHash:  hash,
		HasEmbedding: hasEmbedding,
		CreatedAt:    time.UnixMilli(createdAt).UTC(),
		UpdatedAt:    time.UnixMilli(updatedAt).UTC(),
	}, nil
}

// DeleteByURL removes the record for url if present.
func (s *teaStore) DeleteByURL(ctx context.Context, url string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM teas WHERE url = ?", url); err != nil {
		return fmt.Errorf("deleting tea: %w", err)
	}
	return nil
}

// Search ranks embedded records by cosine distance to vector.
func (s *teaStore) Search(
	ctx context.Context, vector []float32, limit int, filters domain.SearchFilters,
) ([]domain.SearchResult, error) {
	if limit <= 0 {
		return []domain.SearchResult{}, nil
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}

	conditions := []string{"embedding IS NOT NULL"}
	args := []any{float32SliceToBytes(vector)}
	if filters.ExcludeSamples {
		conditions = append(conditions, "is_sample = 0")
	}
	if filters.ExcludeSets {
		conditions = append(conditions, "is_set = 0")
	}
	if filters.OnlyInStock {
		conditions = append(conditions, "in_stock = 1")
	}
	if filters.Series != "" {
		conditions = append(conditions, "series = ?")
		args = append(args, filters.Series)
	}
	args = append(args, limit)

	query := `
		SELECT url, tea_data, distance FROM (
			SELECT url, tea_data, ` + cosineDistanceFunc + `(embedding, ?) AS distance
			FROM teas
			WHERE ` + strings.Join(conditions, " AND ") + `
		)
		WHERE distance IS NOT NULL
		ORDER BY distance ASC
		LIMIT ?`

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching teas: %w", err)
	}
	defer rows.Close()

	results := make([]domain.SearchResult, 0, limit)
	for rows.Next() {
		var (
			url, data string
			distance  float64
		)
		if err := rows.Scan(&url, &data, &distance); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		var tea domain.Tea
		if err := json.Unmarshal([]byte(data), &tea); err != nil {
			s.store.log.Warn("skipping malformed payload", "operation", "search", "url", url, "error", err)
			continue
		}
		results = append(results, domain.SearchResult{Tea: tea, Score: 1 - distance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

// ListAllURLs returns every stored URL, fetched in keyset pages.
func (s *teaStore) ListAllURLs(ctx context.Context) ([]string, error) {
	var (
		urls  []string
		after string
	)
	for {
		page, err := s.urlPage(ctx, after)
		if err != nil {
			return nil, err
		}
		urls = append(urls, page...)
		if len(page) < urlPageSize {
			break
		}
		after = page[len(page)-1]
	}
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}

func (s *teaStore) urlPage(ctx context.Context, after string) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT url FROM teas WHERE url > ? ORDER BY url LIMIT ?", after, urlPageSize)
	if err != nil {
		return nil, fmt.Errorf("listing urls: %w", err)
	}
	defer rows.Close()

	var page []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scanning url: %w", err)
		}
		page = append(page, url)
	}
	return page, rows.Err()
}

// Stats returns aggregate catalog counts.
func (s *teaStore) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	stats := &domain.CatalogStats{Series: []string{}}

	row := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(in_stock), 0) FROM teas")
	if err := row.Scan(&stats.TotalTeas, &stats.InStock); err != nil {
		return nil, fmt.Errorf("counting teas: %w", err)
	}
	stats.OutOfStock = stats.TotalTeas - stats.InStock

	rows, err := s.store.db.QueryContext(ctx,
		"SELECT DISTINCT series FROM teas WHERE series IS NOT NULL AND series != '' ORDER BY series")
	if err != nil {
		return nil, fmt.Errorf("listing series: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var series string
		if err := rows.Scan(&series); err != nil {
			return nil, fmt.Errorf("scanning series: %w", err)
		}
		stats.Series = append(stats.Series, series)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating series: %w", err)
	}
	return stats, nil
}

// Close closes the underlying store.
func (s *teaStore) Close() error {
	return s.store.Close()
}
