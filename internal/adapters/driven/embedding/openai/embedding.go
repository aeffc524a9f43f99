// Package openai provides an embedding service adapter for OpenAI-compatible
// /embeddings APIs, including OpenRouter and OpenAI itself.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/chai-cli/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	OpenAIBaseURL  = "https://api.openai.com/v1"
	DefaultModel   = domain.DefaultEmbeddingModel
	DefaultTimeout = domain.DefaultEmbeddingTimeout
)

// maxErrorBody caps how much of a failed response is echoed into errors.
const maxErrorBody = 512

// Config holds configuration for the embedding service.
type Config struct {
	// APIKey is the bearer token (required).
	APIKey string

	// BaseURL is the API base URL (default: OpenRouter).
	BaseURL string

	// Model is the embedding model to use.
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Dimensions is the expected vector size. Zero looks the model up in
	// domain.EmbeddingDimensions.
	Dimensions int

	// SendDimensions asks the API to truncate vectors to Dimensions.
	// Only OpenAI text-embedding-3-* models accept it.
	SendDimensions bool
}

// EmbeddingService generates embeddings over HTTP.
type EmbeddingService struct {
	client         *http.Client
	log            *logger.Logger
	baseURL        string
	apiKey         string
	model          string
	dimensions     int
	sendDimensions bool
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewEmbeddingService creates a new embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = domain.EmbeddingDimensions()[cfg.Model]
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("openai: unknown dimensions for model %q", cfg.Model)
	}

	return &EmbeddingService{
		client:         &http.Client{Timeout: cfg.Timeout},
		log:            logger.With("component", "embedding", "model", cfg.Model),
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		model:          cfg.Model,
		dimensions:     dimensions,
		sendDimensions: cfg.SendDimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	results, err := s.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.Index == 0 {
			return r.Vector, nil
		}
	}
	return nil, fmt.Errorf("openai: no embedding returned")
}

// EmbedMany embeds texts in a single request. Each result keeps the index the
// API reported, so callers can place vectors even when data arrives out of order.
func (s *EmbeddingService) EmbedMany(ctx context.Context, texts []string) ([]driven.IndexedVector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := embeddingRequest{Model: s.model, Input: texts}
	if s.sendDimensions {
		reqBody.Dimensions = s.dimensions
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	started := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai error (status %d): %s", resp.StatusCode, truncate(body))
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if embedResp.Error != nil {
		return nil, fmt.Errorf("openai error: %s", embedResp.Error.Message)
	}

	results := make([]driven.IndexedVector, 0, len(embedResp.Data))
	for _, data := range embedResp.Data {
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		results = append(results, driven.IndexedVector{Index: data.Index, Vector: vec})
	}

	s.log.Debug("embedded batch",
		"texts", len(texts),
		"vectors", len(results),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return results, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the API key against the /models endpoint without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("openai: API returned status %d: %s", resp.StatusCode, truncate(body))
	}
	return nil
}

// Close releases idle connections.
func (s *EmbeddingService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func truncate(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		return text[:maxErrorBody] + "..."
	}
	return text
}
