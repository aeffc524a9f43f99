package beliyles

import (
	"net/http"
	"time"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Config holds scraper configuration.
type Config struct {
	// SitemapURL lists the catalog (default: domain.DefaultSitemapURL).
	SitemapURL string

	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds each request (default: 30s).
	Timeout time.Duration

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

func (c Config) withDefaults() Config {
	if c.SitemapURL == "" {
		c.SitemapURL = domain.DefaultSitemapURL
	}
	if c.UserAgent == "" {
		c.UserAgent = domain.DefaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	return c
}
