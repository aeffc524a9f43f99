package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

var cacheFillLimit int

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local page cache",
	Long: `The page cache keeps raw product pages so that 'chai sync --from-cache'
can rebuild the index without hitting the website.`,
}

var cacheFillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Download catalog pages that are not cached yet",
	Args:  cobra.NoArgs,
	RunE:  runCacheFill,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached page",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

var cacheImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import pages from a JSON file",
	Long:  `Imports a JSON object mapping product URLs to page HTML into the cache.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheImport,
}

func init() {
	cacheFillCmd.Flags().IntVar(&cacheFillLimit, "limit", 0, "maximum number of catalog URLs (0 = all)")
	cacheCmd.AddCommand(cacheFillCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheImportCmd)
	rootCmd.AddCommand(cacheCmd)
}

func requireCache() error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}
	return nil
}

func runCacheFill(cmd *cobra.Command, _ []string) error {
	if err := requireCache(); err != nil {
		return err
	}

	cmd.Println("Filling page cache...")
	stats, err := cacheService.Fill(cmd.Context(), cacheFillLimit)
	if err != nil {
		return fmt.Errorf("cache fill failed: %w", err)
	}

	cmd.Printf("Catalog URLs: %d\n", stats.Total)
	cmd.Printf("  Fetched: %d\n", stats.Fetched)
	cmd.Printf("  Already cached: %d\n", stats.Cached)
	cmd.Printf("  Errors: %d\n", stats.Errors)
	return nil
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	if err := requireCache(); err != nil {
		return err
	}

	stats, err := cacheService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get cache stats: %w", err)
	}
	printCacheStats(cmd, stats)
	return nil
}

func printCacheStats(cmd *cobra.Command, stats *domain.CacheStats) {
	cmd.Println("[Cache]")
	cmd.Printf("  Pages: %d\n", stats.EntryCount)
	cmd.Printf("  Size: %s\n", formatBytes(stats.TotalSizeBytes))
	if stats.Oldest != nil {
		cmd.Printf("  Oldest: %s\n", stats.Oldest.Local().Format("2006-01-02 15:04"))
	}
	if stats.Newest != nil {
		cmd.Printf("  Newest: %s\n", stats.Newest.Local().Format("2006-01-02 15:04"))
	}
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	if err := requireCache(); err != nil {
		return err
	}

	n, err := cacheService.Clear(cmd.Context())
	if err != nil {
		return fmt.Errorf("cache clear failed: %w", err)
	}
	cmd.Printf("Removed %d cached pages.\n", n)
	return nil
}

func runCacheImport(cmd *cobra.Command, args []string) error {
	if err := requireCache(); err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	n, err := cacheService.ImportJSON(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("cache import failed: %w", err)
	}
	cmd.Printf("Imported %d pages.\n", n)
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
