// Package ai provides factory functions for creating embedding service adapters.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	ollamaembed "github.com/custodia-labs/chai-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/chai-cli/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns nil without error when the provider is not configured.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'chai config set embedding.api_key <key>' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service selected by settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenRouter:
		return createOpenAICompatible(settings, openaiembed.DefaultBaseURL)

	case domain.AIProviderOpenAI:
		return createOpenAICompatible(settings, openaiembed.OpenAIBaseURL)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Timeout:    settings.Timeout,
		Dimensions: settings.Dimensions,
	})
}

func createOpenAICompatible(settings *domain.EmbeddingSettings, defaultBase string) (driven.EmbeddingService, error) {
	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = defaultBase
	}

	// Only OpenAI's text-embedding-3 family accepts a requested size; sending it
	// elsewhere is rejected or ignored.
	sendDims := settings.Provider == domain.AIProviderOpenAI &&
		strings.HasPrefix(settings.Model, "text-embedding-3-") &&
		settings.Dimensions != domain.EmbeddingDimensions()[settings.Model]

	svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:         settings.APIKey,
		BaseURL:        baseURL,
		Model:          settings.Model,
		Timeout:        settings.Timeout,
		Dimensions:     settings.Dimensions,
		SendDimensions: sendDims,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}
