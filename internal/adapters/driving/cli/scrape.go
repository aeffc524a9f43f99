package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

const defaultScrapeOutput = "teas_data.json"

var (
	scrapeOutput        string
	scrapeLimit         int
	scrapeOnlyAvailable bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the catalog into a JSON file",
	Long: `Scrapes every catalog product into a JSON array without embedding
or storing anything. The file is rewritten periodically while scraping so an
interrupted run keeps its progress.`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeOutput, "output", "o", defaultScrapeOutput, "output JSON file")
	scrapeCmd.Flags().IntVarP(&scrapeLimit, "limit", "l", 0, "maximum number of catalog URLs (0 = all)")
	scrapeCmd.Flags().BoolVar(&scrapeOnlyAvailable, "only-available", false, "only save products in stock")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, _ []string) error {
	if catalogExporter == nil {
		return errors.New("export service not configured")
	}

	cmd.Println("Scraping catalog...")
	if scrapeOnlyAvailable {
		cmd.Println("Filter: only products in stock")
	}

	opts := domain.ExportOptions{Limit: scrapeLimit, OnlyInStock: scrapeOnlyAvailable}
	stats, err := catalogExporter.Export(cmd.Context(), opts, func(teas []domain.Tea) error {
		return saveTeas(scrapeOutput, teas)
	})
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	cmd.Printf("Saved %d teas to %s\n", stats.Exported, scrapeOutput)
	cmd.Printf("  Catalog URLs: %d\n", stats.Total)
	cmd.Printf("  With images: %d\n", stats.WithImages)
	cmd.Printf("  With composition: %d\n", stats.WithComposition)
	if stats.OutOfStock > 0 {
		cmd.Printf("  Out of stock (dropped): %d\n", stats.OutOfStock)
	}
	if stats.Skipped > 0 {
		cmd.Printf("  Skipped: %d\n", stats.Skipped)
	}
	if stats.Errors > 0 {
		cmd.Printf("  Errors: %d\n", stats.Errors)
	}
	return nil
}

// saveTeas writes teas as indented JSON, replacing path atomically.
func saveTeas(path string, teas []domain.Tea) error {
	if teas == nil {
		teas = []domain.Tea{}
	}
	data, err := json.MarshalIndent(teas, "", "  ")
	if err != nil {
		return fmt.Errorf("encode teas: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".teas-*.json")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
