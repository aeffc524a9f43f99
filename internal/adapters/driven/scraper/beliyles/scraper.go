package beliyles

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/chai-cli/internal/logger"
)

// Ensure Scraper implements the interface.
var _ driven.Scraper = (*Scraper)(nil)

// Scraper fetches and parses storefront pages.
type Scraper struct {
	cfg    Config
	client *http.Client
	log    *logger.Logger
}

// NewScraper creates a scraper.
func NewScraper(cfg Config) *Scraper {
	cfg = cfg.withDefaults()
	return &Scraper{
		cfg:    cfg,
		client: cfg.HTTPClient,
		log:    logger.With("component", "scraper"),
	}
}

// urlSet is the sitemap document.
type urlSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// ListCatalogURLs returns product page URLs from the sitemap in document order.
// Samples are included; the constructor and gift card pages are not.
func (s *Scraper) ListCatalogURLs(ctx context.Context) ([]string, error) {
	body, err := s.get(ctx, s.cfg.SitemapURL)
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap: %w", err)
	}

	var doc urlSet
	if err := xml.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}

	urls := make([]string, 0, len(doc.URLs))
	for _, u := range doc.URLs {
		loc := strings.TrimSpace(u.Loc)
		if isProductURL(loc) {
			urls = append(urls, loc)
		}
	}

	s.log.Info("sitemap read", "entries", len(doc.URLs), "products", len(urls))
	return urls, nil
}

func isProductURL(url string) bool {
	return strings.Contains(url, "/tproduct/") &&
		!strings.Contains(url, "/constructor/") &&
		!strings.Contains(url, "/card/")
}

// Scrape fetches and parses a single product page.
func (s *Scraper) Scrape(ctx context.Context, url string) (*domain.Tea, error) {
	html, err := s.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.Parse(url, html)
}

// Fetch returns the raw HTML of a page.
func (s *Scraper) Fetch(ctx context.Context, url string) (string, error) {
	body, err := s.get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	return body, nil
}

func (s *Scraper) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(body), nil
}

// StatusError reports a page the server refused to return.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.StatusCode < http.StatusInternalServerError {
		return fmt.Sprintf("page not found (%d %s)", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server error (%d %s)", e.StatusCode, http.StatusText(e.StatusCode))
}
