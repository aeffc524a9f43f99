package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

// SearchTeasInput is the input schema for the search_teas tool.
type SearchTeasInput struct {
	Query          string `json:"query" jsonschema:"what the tea should be like, in any language"`
	Limit          int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	OnlyInStock    bool   `json:"only_in_stock,omitempty" jsonschema:"return only teas currently in stock"`
	Series         string `json:"series,omitempty" jsonschema:"exact series name to restrict results to"`
	ExcludeSamples bool   `json:"exclude_samples,omitempty" jsonschema:"drop trial-size listings"`
	ExcludeSets    bool   `json:"exclude_sets,omitempty" jsonschema:"drop bundle listings"`
}

func (in SearchTeasInput) filters() domain.SearchFilters {
	return domain.SearchFilters{
		ExcludeSamples: in.ExcludeSamples,
		ExcludeSets:    in.ExcludeSets,
		OnlyInStock:    in.OnlyInStock,
		Series:         strings.TrimSpace(in.Series),
	}
}

// SearchTeasOutput is the output schema for the search_teas tool.
type SearchTeasOutput struct {
	Results []domain.TeaCard `json:"results"`
	Count   int              `json:"count"`
}

// GetTeaInput is the input schema for the get_tea tool.
type GetTeaInput struct {
	ID  string `json:"id,omitempty" jsonschema:"short tea id as returned by search_teas"`
	URL string `json:"url,omitempty" jsonschema:"product page URL"`
}

// GetTeaOutput is the output schema for the get_tea tool.
type GetTeaOutput struct {
	Tea          domain.Tea `json:"tea"`
	ContentHash  string     `json:"content_hash"`
	HasEmbedding bool       `json:"has_embedding"`
}

// CatalogStatsInput is the (empty) input schema for the catalog_stats tool.
type CatalogStatsInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "search_teas",
		Description: "Semantic search over the tea catalog. Results include price variants, " +
			"stock status and whether a sample of the tea is available.",
	}, s.handleSearchTeas)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_tea",
		Description: "Fetch a single tea by short id or product URL",
	}, s.handleGetTea)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "catalog_stats",
		Description: "Counts of stored teas, stock status and series",
	}, s.handleCatalogStats)
}

func (s *Server) handleSearchTeas(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchTeasInput,
) (*mcp.CallToolResult, SearchTeasOutput, error) {
	results, err := s.ports.Search.Search(ctx, input.Query, input.Limit, input.filters())
	if err != nil {
		return nil, SearchTeasOutput{}, err
	}

	cards := s.ports.Search.Cards(ctx, results)
	s.log.Debug("search_teas", "query", input.Query, "results", len(cards))
	return nil, SearchTeasOutput{Results: cards, Count: len(cards)}, nil
}

func (s *Server) handleGetTea(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetTeaInput,
) (*mcp.CallToolResult, GetTeaOutput, error) {
	stored, err := s.lookup(ctx, input.ID, input.URL)
	if err != nil {
		return nil, GetTeaOutput{}, err
	}
	return nil, GetTeaOutput{
		Tea:          stored.Tea,
		ContentHash:  stored.ContentHash,
		HasEmbedding: stored.HasEmbedding,
	}, nil
}

func (s *Server) lookup(ctx context.Context, id, url string) (*domain.StoredTea, error) {
	id, url = strings.TrimSpace(id), strings.TrimSpace(url)

	var (
		stored *domain.StoredTea
		err    error
	)
	switch {
	case url != "":
		stored, err = s.ports.Search.GetByURL(ctx, url)
	case id != "":
		stored, err = s.ports.Search.GetByID(ctx, id)
	default:
		return nil, errMissingTeaRef
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("tea %s not found", firstNonEmpty(url, id))
	}
	return stored, err
}

func (s *Server) handleCatalogStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ CatalogStatsInput,
) (*mcp.CallToolResult, domain.CatalogStats, error) {
	stats, err := s.ports.Search.Stats(ctx)
	if err != nil {
		return nil, domain.CatalogStats{}, err
	}
	return nil, *stats, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
