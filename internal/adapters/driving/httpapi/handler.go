package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driving"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	search  driving.SearchService
	version string
}

// NewHandler creates a handler backed by search.
func NewHandler(search driving.SearchService, version string) *Handler {
	return &Handler{search: search, version: version}
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query   string               `json:"query"`
	Limit   int                  `json:"limit"`
	Filters domain.SearchFilters `json:"filters"`

	// Cards adds the stock status of linked samples to each result.
	Cards bool `json:"cards"`
}

// SearchResponse is the body returned by POST /api/v1/search.
type SearchResponse struct {
	Results []domain.SearchResult `json:"results,omitempty"`
	Cards   []domain.TeaCard      `json:"cards,omitempty"`
	Count   int                   `json:"count"`
}

// TeaResponse is a stored record.
type TeaResponse struct {
	Tea          domain.Tea `json:"tea"`
	ContentHash  string     `json:"content_hash"`
	HasEmbedding bool       `json:"has_embedding"`
	CreatedAt    string     `json:"created_at,omitempty"`
	UpdatedAt    string     `json:"updated_at,omitempty"`
}

func newTeaResponse(st *domain.StoredTea) TeaResponse {
	resp := TeaResponse{
		Tea:          st.Tea,
		ContentHash:  st.ContentHash,
		HasEmbedding: st.HasEmbedding,
	}
	if !st.CreatedAt.IsZero() {
		resp.CreatedAt = st.CreatedAt.UTC().Format(timeLayout)
	}
	if !st.UpdatedAt.IsZero() {
		resp.UpdatedAt = st.UpdatedAt.UTC().Format(timeLayout)
	}
	return resp
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

// HealthCheck returns the health status of the API.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "chai",
		"version": h.version,
	})
}

// Search handles POST /api/v1/search.
func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		RespondError(c, http.StatusBadRequest, "invalid_input", fmt.Errorf("query is required"))
		return
	}

	results, err := h.search.Search(c.Request.Context(), req.Query, req.Limit, req.Filters)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if req.Cards {
		cards := h.search.Cards(c.Request.Context(), results)
		RespondOK(c, SearchResponse{Cards: cards, Count: len(cards)})
		return
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	RespondOK(c, SearchResponse{Results: results, Count: len(results)})
}

// GetTea handles GET /api/v1/teas/:id.
func (h *Handler) GetTea(c *gin.Context) {
	stored, err := h.search.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, newTeaResponse(stored))
}

// GetTeaByURL handles GET /api/v1/teas?url=.
func (h *Handler) GetTeaByURL(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		RespondError(c, http.StatusBadRequest, "invalid_input", fmt.Errorf("url query parameter is required"))
		return
	}

	stored, err := h.search.GetByURL(c.Request.Context(), url)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, newTeaResponse(stored))
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.search.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, stats)
}
