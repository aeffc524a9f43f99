// Package cli implements the chai command-line interface on top of the
// driving ports. Services are injected by main through the Set* functions.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chai-cli/internal/core/ports/driving"
	"github.com/custodia-labs/chai-cli/internal/logger"
)

var (
	version = "dev"
	verbose bool
)

// Injected services. Nil until main wires them.
var (
	searchService    driving.SearchService
	syncOrchestrator driving.SyncOrchestrator
	cacheService     driving.CacheService
	settingsService  driving.SettingsService
	catalogExporter  driving.CatalogExporter
)

var rootCmd = &cobra.Command{
	Use:   "chai",
	Short: "Semantic search over the tea catalog",
	Long: `chai keeps a vector index of the tea shop catalog in sync with the
website and answers natural-language queries against it.

Run 'chai sync' to build the index, then 'chai search <query>'.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by 'chai version'.
func SetVersion(v string) {
	version = v
}

// SetSearchService injects the search service.
func SetSearchService(s driving.SearchService) {
	searchService = s
}

// SetSyncOrchestrator injects the sync orchestrator.
func SetSyncOrchestrator(o driving.SyncOrchestrator) {
	syncOrchestrator = o
}

// SetCacheService injects the page cache service.
func SetCacheService(s driving.CacheService) {
	cacheService = s
}

// SetSettingsService injects the settings service.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetCatalogExporter injects the catalog export service used by 'chai scrape'.
func SetCatalogExporter(e driving.CatalogExporter) {
	catalogExporter = e
}

// Execute runs the root command. Cancelling ctx interrupts long-running
// commands such as sync and serve.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}
