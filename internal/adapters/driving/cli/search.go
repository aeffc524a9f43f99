package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

var (
	searchLimit          int
	searchJSON           bool
	searchCards          bool
	searchOnlyAvailable  bool
	searchSeries         string
	searchExcludeSamples bool
	searchExcludeSets    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the tea catalog",
	Long: `Embeds the query and returns the most similar teas from the index.

Filters are combined: --only-available --exclude-samples returns only
in-stock full-size products. Use --cards to also check whether the
linked sample of each result is in stock.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchCards, "cards", false, "include sample availability")
	searchCmd.Flags().BoolVar(&searchOnlyAvailable, "only-available", false, "only teas in stock")
	searchCmd.Flags().StringVar(&searchSeries, "series", "", "only teas from this series")
	searchCmd.Flags().BoolVar(&searchExcludeSamples, "exclude-samples", false, "drop sample listings")
	searchCmd.Flags().BoolVar(&searchExcludeSets, "exclude-sets", false, "drop set listings")
	rootCmd.AddCommand(searchCmd)
}

func searchFilters() domain.SearchFilters {
	return domain.SearchFilters{
		ExcludeSamples: searchExcludeSamples,
		ExcludeSets:    searchExcludeSets,
		OnlyInStock:    searchOnlyAvailable,
		Series:         strings.TrimSpace(searchSeries),
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	ctx := cmd.Context()
	results, err := searchService.Search(ctx, query, searchLimit, searchFilters())
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchCards {
		cards := searchService.Cards(ctx, results)
		if searchJSON {
			return outputJSON(cmd, cards)
		}
		return outputCardsTable(cmd, cards)
	}

	if searchJSON {
		return outputJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		printTeaLine(cmd, i+1, &results[i].Tea, results[i].Score)
		cmd.Println()
	}
	return nil
}

func outputCardsTable(cmd *cobra.Command, cards []domain.TeaCard) error {
	if len(cards) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range cards {
		tea := &cards[i].Tea
		printTeaLine(cmd, i+1, tea, cards[i].Score)
		if tea.HasSample() {
			cmd.Printf("      Sample: %s (%s)\n", availability(cards[i].SampleInStock), *tea.SampleURL)
		}
		cmd.Println()
	}
	return nil
}

// printTeaLine prints the summary of one hit.
// Format: [N] Name (Score), then price, series and stock on the next line.
func printTeaLine(cmd *cobra.Command, n int, tea *domain.Tea, score float64) {
	cmd.Printf("  [%d] %s (%.2f)\n", n, tea.DisplayName(), score)

	details := []string{availability(tea.InStock)}
	if tea.Price != nil {
		details = append(details, *tea.Price)
	}
	if series := tea.SeriesName(); series != "" {
		details = append(details, "series: "+series)
	}
	if tea.IsSample {
		details = append(details, "sample")
	}
	if tea.IsSet {
		details = append(details, "set")
	}
	cmd.Printf("      %s\n", strings.Join(details, " | "))
	cmd.Printf("      %s  [%s]\n", tea.URL, tea.ID)
}

func availability(inStock bool) string {
	if inStock {
		return "in stock"
	}
	return "out of stock"
}
