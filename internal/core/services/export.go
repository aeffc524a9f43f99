package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driving"
	"github.com/custodia-labs/chai-cli/internal/logger"
)

// Ensure ExportService implements the interface.
var _ driving.CatalogExporter = (*ExportService)(nil)

// ExportService scrapes the live catalog into records for offline use.
type ExportService struct {
	scraper    driven.Scraper
	fetchDelay time.Duration
	checkpoint int
	log        *logger.Logger
}

// NewExportService creates an export service that pauses fetchDelay between pages.
func NewExportService(scraper driven.Scraper, fetchDelay time.Duration) *ExportService {
	return &ExportService{
		scraper:    scraper,
		fetchDelay: fetchDelay,
		checkpoint: domain.DefaultExportCheckpoint,
		log:        logger.With("component", "export"),
	}
}

// Export scrapes every catalog URL in sitemap order. Scrape failures are
// counted and do not stop the export; skipped listings are not errors.
func (s *ExportService) Export(
	ctx context.Context, opts domain.ExportOptions, save func([]domain.Tea) error,
) (*domain.ExportStats, error) {
	if s.scraper == nil {
		return nil, errors.New("export: scraper not configured")
	}
	if save == nil {
		return nil, fmt.Errorf("%w: save function is required", domain.ErrInvalidInput)
	}

	urls, err := s.scraper.ListCatalogURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog urls: %w", err)
	}
	if opts.Limit > 0 && len(urls) > opts.Limit {
		urls = urls[:opts.Limit]
	}

	stats := &domain.ExportStats{Total: len(urls)}
	teas := make([]domain.Tea, 0, len(urls))

	limiter := rate.NewLimiter(rate.Inf, 1)
	if s.fetchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.fetchDelay), 1)
	}

	for i, url := range urls {
		if err := limiter.Wait(ctx); err != nil {
			return stats, err
		}

		tea, err := s.scraper.Scrape(ctx, url)
		switch {
		case ctx.Err() != nil:
			return stats, ctx.Err()
		case errors.Is(err, domain.ErrSkippedProduct):
			stats.Skipped++
			s.log.Debug("skipped", "position", i+1, "total", len(urls), "url", url, "reason", err)
		case err != nil:
			stats.Errors++
			s.log.Warn("scrape failed", "position", i+1, "total", len(urls), "url", url, "error", err)
		case opts.OnlyInStock && !tea.InStock:
			stats.OutOfStock++
			s.log.Debug("out of stock", "position", i+1, "total", len(urls), "url", url)
		default:
			teas = append(teas, *tea)
			stats.Exported++
			if len(tea.Images) > 0 {
				stats.WithImages++
			}
			if len(tea.Composition) > 0 {
				stats.WithComposition++
			}
			if tea.Name == nil {
				s.log.Warn("no name", "position", i+1, "total", len(urls), "url", url)
			}
		}

		if s.checkpoint > 0 && (i+1)%s.checkpoint == 0 {
			if err := save(teas); err != nil {
				return stats, fmt.Errorf("intermediate save: %w", err)
			}
			s.log.Info("intermediate save", "teas", len(teas))
		}
	}

	if err := save(teas); err != nil {
		return stats, fmt.Errorf("save: %w", err)
	}

	s.log.Info("export done",
		"total", stats.Total, "exported", stats.Exported, "out_of_stock", stats.OutOfStock,
		"skipped", stats.Skipped, "errors", stats.Errors)
	return stats, nil
}
