package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for chai resources.
	uriScheme = "chai://"

	mimeJSON = "application/json"
)

// statsDocument is the body of the stats resource.
type statsDocument struct {
	Catalog *domain.CatalogStats `json:"catalog"`
	Cache   *domain.CacheStats   `json:"cache,omitempty"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Catalog statistics, plus page cache figures when a cache is configured",
		MIMEType:    mimeJSON,
	}, s.handleStatsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "teas/{id}",
		Name:        "tea",
		Description: "A stored tea record by short id",
		MIMEType:    mimeJSON,
	}, s.handleTeaResource)
}

func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	catalog, err := s.ports.Search.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading catalog stats: %w", err)
	}

	doc := statsDocument{Catalog: catalog}
	if s.ports.Cache != nil {
		cache, err := s.ports.Cache.Stats(ctx)
		if err != nil {
			s.log.Warn("cache stats unavailable", "error", err)
		} else {
			doc.Cache = cache
		}
	}
	return jsonResult(req.Params.URI, doc)
}

func (s *Server) handleTeaResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractTeaID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	stored, err := s.ports.Search.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting tea: %w", err)
	}
	return jsonResult(req.Params.URI, stored.Tea)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		}},
	}, nil
}

// extractTeaID extracts the id from a URI like chai://teas/{id}.
func extractTeaID(uri string) string {
	const prefix = uriScheme + "teas/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
