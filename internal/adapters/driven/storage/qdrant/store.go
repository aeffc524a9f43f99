package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/chai-cli/internal/catalog"
	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/chai-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.TeaStore = (*Store)(nil)

const (
	vectorName     = "embedding"
	distanceCosine = "Cosine"
	scrollPageSize = 100
	maxBodyBytes   = 64 << 20
)

// Store is a TeaStore backed by a Qdrant collection.
type Store struct {
	cfg     Config
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

type qdrantEnvelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

// qdrantPoint is a point as returned by retrieve, scroll and search.
type qdrantPoint struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload json.RawMessage `json:"payload"`
	Vector  json.RawMessage `json:"vector,omitempty"`
}

type scrollResult struct {
	Points         []qdrantPoint   `json:"points"`
	NextPageOffset json.RawMessage `json:"next_page_offset"`
}

// pointPayload is the payload written for every record. The filterable
// fields are duplicated out of TeaData so they can be indexed.
type pointPayload struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Series       string `json:"series"`
	InStock      bool   `json:"in_stock"`
	IsSample     bool   `json:"is_sample"`
	IsSet        bool   `json:"is_set"`
	HasEmbedding bool   `json:"has_embedding"`
	TeaData      string `json:"tea_data"`
	ContentHash  string `json:"content_hash"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// NewStore creates a store for the configured collection. No request is made
// until EnsureSchema or the first operation.
func NewStore(cfg Config) (*Store, error) {
	cfg.URL = strings.TrimSpace(cfg.URL)
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Store{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     logger.With("component", "qdrant", "collection", cfg.Collection),
	}, nil
}

// ==================== Schema ====================

// EnsureSchema verifies the server is ready and creates the collection and
// its payload indexes when missing. An existing collection with a different
// vector size is an error.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const op = "ensure_schema"

	if err := s.verifyReady(ctx); err != nil {
		return err
	}

	var info struct {
		Config struct {
			Params struct {
				Vectors map[string]struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	err := s.doJSON(ctx, op, http.MethodGet, s.collectionPath(""), nil, &info)
	switch {
	case isStatus(err, http.StatusNotFound):
		if err := s.createCollection(ctx); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		params, ok := info.Config.Params.Vectors[vectorName]
		if !ok {
			return opErr(op, OperationErrorValidation,
				fmt.Sprintf("collection %q has no %q vector", s.cfg.Collection, vectorName), nil)
		}
		if params.Size != s.cfg.VectorSize {
			return opErr(op, OperationErrorValidation, fmt.Sprintf(
				"collection %q vector size mismatch: expected=%d actual=%d",
				s.cfg.Collection, s.cfg.VectorSize, params.Size), nil)
		}
	}

	for _, idx := range payloadIndexes {
		req := map[string]any{"field_name": idx.field, "field_schema": idx.schema}
		if err := s.doJSON(ctx, op, http.MethodPut, s.collectionPath("/index?wait=true"), req, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) createCollection(ctx context.Context) error {
	req := map[string]any{
		"vectors": map[string]any{
			vectorName: map[string]any{
				"size":     s.cfg.VectorSize,
				"distance": distanceCosine,
			},
		},
	}
	if err := s.doJSON(ctx, "create_collection", http.MethodPut, s.collectionPath(""), req, nil); err != nil {
		return err
	}
	s.log.Info("collection created", "vector_size", s.cfg.VectorSize, "distance", distanceCosine)
	return nil
}

func (s *Store) verifyReady(ctx context.Context) error {
	const op = "verify_ready"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/readyz", nil)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build ready request failed", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant ready check failed", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant ready check returned status=%d", resp.StatusCode),
		}
	}
	return nil
}

// ==================== Writes ====================

// Upsert writes the record under its storage key. With a nil vector an
// existing point keeps its embedding and only the payload is replaced.
func (s *Store) Upsert(ctx context.Context, tea domain.Tea, vector []float32, contentHash string) error {
	const op = "upsert"
	if tea.URL == "" {
		return fmt.Errorf("%w: tea url is empty", domain.ErrInvalidInput)
	}
	if len(vector) > 0 && len(vector) != s.cfg.VectorSize {
		return opErr(op, OperationErrorValidation, fmt.Sprintf(
			"vector dimension mismatch: expected=%d got=%d", s.cfg.VectorSize, len(vector)), nil)
	}

	data, err := json.Marshal(tea)
	if err != nil {
		return opErr(op, OperationErrorEncodeFailed, "encode tea failed", err)
	}

	key := catalog.DeriveStorageKey(tea.URL)
	existing, err := s.retrieveMeta(ctx, key)
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	payload := pointPayload{
		ID:           catalog.DeriveID(tea.URL),
		URL:          tea.URL,
		Series:       tea.SeriesName(),
		InStock:      tea.InStock,
		IsSample:     tea.IsSample,
		IsSet:        tea.IsSet,
		HasEmbedding: len(vector) > 0,
		TeaData:      string(data),
		ContentHash:  contentHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if existing != nil {
		if existing.CreatedAt > 0 {
			payload.CreatedAt = existing.CreatedAt
		}
		if len(vector) == 0 {
			payload.HasEmbedding = existing.HasEmbedding
			req := map[string]any{"payload": payload, "points": []string{key}}
			return s.doJSON(ctx, op, http.MethodPut, s.collectionPath("/points/payload?wait=true"), req, nil)
		}
	}

	vectors := map[string][]float32{}
	if len(vector) > 0 {
		vectors[vectorName] = vector
	}
	req := map[string]any{
		"points": []map[string]any{{
			"id":      key,
			"vector":  vectors,
			"payload": payload,
		}},
	}
	return s.doJSON(ctx, op, http.MethodPut, s.collectionPath("/points?wait=true"), req, nil)
}

// retrieveMeta returns the bookkeeping fields of an existing point, or nil
// when the point does not exist. When the payload is unreadable the creation
// time is lost and the embedding flag is taken from the stored vector.
func (s *Store) retrieveMeta(ctx context.Context, key string) (*pointPayload, error) {
	points, err := s.retrieve(ctx, "upsert", key, []string{fieldHasEmbedding, "created_at"})
	if err != nil || len(points) == 0 {
		return nil, err
	}
	var meta pointPayload
	if err := json.Unmarshal(points[0].Payload, &meta); err != nil {
		s.log.Warn("unreadable point metadata", "key", key, "error", err)
		hasVector, err := s.hasVector(ctx, key)
		if err != nil {
			return nil, err
		}
		return &pointPayload{HasEmbedding: hasVector}, nil
	}
	return &meta, nil
}

// hasVector reports whether the point stores an embedding.
func (s *Store) hasVector(ctx context.Context, key string) (bool, error) {
	const op = "upsert"
	req := map[string]any{
		"ids":          []string{key},
		"with_payload": false,
		"with_vector":  []string{vectorName},
	}
	var points []qdrantPoint
	if err := s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points"), req, &points); err != nil {
		return false, err
	}
	if len(points) == 0 {
		return false, nil
	}
	var vectors map[string]json.RawMessage
	if err := json.Unmarshal(points[0].Vector, &vectors); err != nil {
		return false, nil
	}
	raw, ok := vectors[vectorName]
	return ok && len(raw) > 0 && string(raw) != "null" && string(raw) != "[]", nil
}

// DeleteByURL removes the point for url. Deleting a missing point succeeds.
func (s *Store) DeleteByURL(ctx context.Context, url string) error {
	req := map[string]any{"points": []string{catalog.DeriveStorageKey(url)}}
	return s.doJSON(ctx, "delete", http.MethodPost, s.collectionPath("/points/delete?wait=true"), req, nil)
}

// ==================== Reads ====================

// GetByURL returns the record stored for url.
func (s *Store) GetByURL(ctx context.Context, url string) (*domain.StoredTea, error) {
	const op = "get_by_url"
	points, err := s.retrieve(ctx, op, catalog.DeriveStorageKey(url), true)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, domain.ErrNotFound
	}
	return decodeStored(op, url, points[0].Payload)
}

// GetByID returns the record with the given short ID.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.StoredTea, error) {
	const op = "get_by_id"
	page, err := s.scroll(ctx, op, fieldFilter(fieldID, id), 1, nil, true)
	if err != nil {
		return nil, err
	}
	if len(page.Points) == 0 {
		return nil, domain.ErrNotFound
	}
	return decodeStored(op, id, page.Points[0].Payload)
}

// Search returns the closest embedded records that pass the filters.
// Qdrant reports cosine similarity, which is already 1 - cosine distance.
func (s *Store) Search(
	ctx context.Context, vector []float32, limit int, filters domain.SearchFilters,
) ([]domain.SearchResult, error) {
	const op = "search"
	if limit <= 0 {
		return []domain.SearchResult{}, nil
	}
	if len(vector) == 0 {
		return nil, opErr(op, OperationErrorValidation, "query vector required", nil)
	}
	if len(vector) != s.cfg.VectorSize {
		return nil, opErr(op, OperationErrorValidation, fmt.Sprintf(
			"query vector dimension mismatch: expected=%d got=%d", s.cfg.VectorSize, len(vector)), nil)
	}

	req := map[string]any{
		"vector":       map[string]any{"name": vectorName, "vector": vector},
		"limit":        limit,
		"filter":       searchFilter(filters),
		"with_payload": true,
		"with_vector":  false,
	}
	var hits []qdrantPoint
	if err := s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points/search"), req, &hits); err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		stored, err := decodeStored(op, decodePointID(hit.ID), hit.Payload)
		if err != nil {
			s.log.Warn("skipping unreadable point", "error", err)
			continue
		}
		results = append(results, domain.SearchResult{Tea: stored.Tea, Score: hit.Score})
	}
	return results, nil
}

// ListAllURLs scrolls through the whole collection and returns every URL sorted.
func (s *Store) ListAllURLs(ctx context.Context) ([]string, error) {
	const op = "list_urls"
	var urls []string
	err := s.scrollAll(ctx, op, nil, []string{fieldURL}, func(p qdrantPoint) {
		var payload struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(p.Payload, &payload); err != nil || payload.URL == "" {
			s.log.Warn("skipping point without url", "point", decodePointID(p.ID))
			return
		}
		urls = append(urls, payload.URL)
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(urls)
	return urls, nil
}

// Stats counts records and collects the distinct series.
func (s *Store) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	const op = "stats"
	total, err := s.count(ctx, op, nil)
	if err != nil {
		return nil, err
	}
	inStock, err := s.count(ctx, op, fieldFilter(fieldInStock, true))
	if err != nil {
		return nil, err
	}

	series := make(map[string]struct{})
	err = s.scrollAll(ctx, op, nil, []string{fieldSeries}, func(p qdrantPoint) {
		var payload struct {
			Series string `json:"series"`
		}
		if err := json.Unmarshal(p.Payload, &payload); err == nil && payload.Series != "" {
			series[payload.Series] = struct{}{}
		}
	})
	if err != nil {
		return nil, err
	}

	stats := &domain.CatalogStats{
		TotalTeas:  total,
		InStock:    inStock,
		OutOfStock: total - inStock,
		Series:     make([]string, 0, len(series)),
	}
	for name := range series {
		stats.Series = append(stats.Series, name)
	}
	sort.Strings(stats.Series)
	return stats, nil
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.http.CloseIdleConnections()
	return nil
}

// ==================== Request Helpers ====================

// retrieve fetches points by ID. withPayload is true, false or a field list.
func (s *Store) retrieve(ctx context.Context, op, key string, withPayload any) ([]qdrantPoint, error) {
	req := map[string]any{
		"ids":          []string{key},
		"with_payload": withPayload,
		"with_vector":  false,
	}
	var points []qdrantPoint
	if err := s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points"), req, &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (s *Store) scroll(
	ctx context.Context, op string, filter map[string]any, limit int, offset json.RawMessage, withPayload any,
) (*scrollResult, error) {
	req := map[string]any{
		"limit":        limit,
		"with_payload": withPayload,
		"with_vector":  false,
	}
	if filter != nil {
		req["filter"] = filter
	}
	if len(offset) > 0 && string(offset) != "null" {
		req["offset"] = offset
	}
	var page scrollResult
	if err := s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points/scroll"), req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// scrollAll visits every point matching filter, following next_page_offset.
func (s *Store) scrollAll(
	ctx context.Context, op string, filter map[string]any, fields []string, visit func(qdrantPoint),
) error {
	var offset json.RawMessage
	for {
		page, err := s.scroll(ctx, op, filter, scrollPageSize, offset, fields)
		if err != nil {
			return err
		}
		for _, p := range page.Points {
			visit(p)
		}
		if len(page.NextPageOffset) == 0 || string(page.NextPageOffset) == "null" {
			return nil
		}
		offset = page.NextPageOffset
	}
}

func (s *Store) count(ctx context.Context, op string, filter map[string]any) (int, error) {
	req := map[string]any{"exact": true}
	if filter != nil {
		req["filter"] = filter
	}
	var result struct {
		Count int `json:"count"`
	}
	if err := s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points/count"), req, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

func (s *Store) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if readErr != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var envelope qdrantEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if statusErr := parseEnvelopeStatus(envelope.Status); statusErr != "" {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    statusErr,
		}
	}

	if out == nil || len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func (s *Store) collectionPath(suffix string) string {
	return "/collections/" + s.cfg.Collection + suffix
}

// ==================== Payload Decoding ====================

// decodeStored turns a point payload into a stored record.
func decodeStored(op, key string, raw json.RawMessage) (*domain.StoredTea, error) {
	var payload pointPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &domain.PayloadError{Key: key, Operation: op, Cause: err}
	}
	var tea domain.Tea
	if err := json.Unmarshal([]byte(payload.TeaData), &tea); err != nil {
		return nil, &domain.PayloadError{Key: key, Operation: op, Cause: err}
	}
	return &domain.StoredTea{
		Tea:          tea,
		ContentHash:  payload.ContentHash,
		HasEmbedding: payload.HasEmbedding,
		CreatedAt:    time.UnixMilli(payload.CreatedAt).UTC(),
		UpdatedAt:    time.UnixMilli(payload.UpdatedAt).UTC(),
	}, nil
}

func decodePointID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var idString string
	if err := json.Unmarshal(raw, &idString); err == nil {
		return strings.TrimSpace(idString)
	}
	return strings.TrimSpace(string(raw))
}
