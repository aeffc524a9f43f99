package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/logger"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	stats, err := searchService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	var cacheStats *domain.CacheStats
	if cacheService != nil {
		cacheStats, err = cacheService.Stats(cmd.Context())
		if err != nil {
			logger.Warn("cache stats unavailable: %v", err)
			cacheStats = nil
		}
	}

	if statsJSON {
		return outputJSON(cmd, struct {
			Catalog *domain.CatalogStats `json:"catalog"`
			Cache   *domain.CacheStats   `json:"cache,omitempty"`
		}{stats, cacheStats})
	}

	cmd.Println("[Catalog]")
	cmd.Printf("  Teas: %d\n", stats.TotalTeas)
	cmd.Printf("  In stock: %d (%d%%)\n", stats.InStock, stats.InStockPercent())
	cmd.Printf("  Out of stock: %d\n", stats.OutOfStock)
	cmd.Printf("  Series: %d\n", stats.SeriesCount())
	if len(stats.Series) > 0 {
		cmd.Printf("    %s\n", strings.Join(stats.Series, ", "))
	}

	if cacheStats != nil {
		cmd.Println()
		printCacheStats(cmd, cacheStats)
	}
	return nil
}
