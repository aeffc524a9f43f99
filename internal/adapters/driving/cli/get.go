package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

var getJSON bool

var getCmd = &cobra.Command{
	Use:   "get [url|id]",
	Short: "Show a stored tea",
	Long: `Shows every stored field of a tea, looked up by product URL or short ID,
together with the content hash recorded at the last sync.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().BoolVar(&getJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	ref := strings.TrimSpace(args[0])
	var (
		stored *domain.StoredTea
		err    error
	)
	if strings.Contains(ref, "://") {
		stored, err = searchService.GetByURL(cmd.Context(), ref)
	} else {
		stored, err = searchService.GetByID(cmd.Context(), ref)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("tea %s not found", ref)
	}
	if err != nil {
		return fmt.Errorf("failed to get tea: %w", err)
	}

	if getJSON {
		return outputJSON(cmd, struct {
			Tea          domain.Tea `json:"tea"`
			ContentHash  string     `json:"content_hash"`
			HasEmbedding bool       `json:"has_embedding"`
		}{stored.Tea, stored.ContentHash, stored.HasEmbedding})
	}

	printTeaDetails(cmd, stored)
	return nil
}

func printTeaDetails(cmd *cobra.Command, stored *domain.StoredTea) {
	tea := &stored.Tea

	cmd.Println(tea.DisplayName())
	cmd.Println(strings.Repeat("=", len([]rune(tea.DisplayName()))))
	cmd.Println()
	cmd.Printf("  ID: %s\n", tea.ID)
	cmd.Printf("  URL: %s\n", tea.URL)
	printOptional(cmd, "Price", tea.Price)
	for _, v := range tea.PriceVariants {
		cmd.Printf("    - %s: %s (qty %s)\n", v.Packaging, v.Price, v.Quantity)
	}
	cmd.Printf("  Stock: %s\n", availability(tea.InStock))
	printOptional(cmd, "Series", tea.Series)
	if tea.IsSample {
		cmd.Println("  Type: sample")
	} else if tea.IsSet {
		cmd.Println("  Type: set")
	}
	printOptional(cmd, "Sample", tea.SampleURL)
	printList(cmd, "Composition", tea.Composition)
	printList(cmd, "Volume", tea.VolumeOptions)
	printOptional(cmd, "Weight", tea.Weight)
	printOptional(cmd, "Dimensions", tea.Dimensions)
	printOptional(cmd, "Storage", tea.StorageInfo)
	printList(cmd, "Tags", tea.SearchTags)
	if tea.Description != nil {
		cmd.Println()
		cmd.Println(*tea.Description)
	}
	cmd.Println()
	cmd.Printf("  Content hash: %s\n", stored.ContentHash)
	cmd.Printf("  Embedding: %s\n", yesNo(stored.HasEmbedding))
	if !stored.UpdatedAt.IsZero() {
		cmd.Printf("  Updated: %s\n", stored.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}

func printOptional(cmd *cobra.Command, label string, value *string) {
	if value != nil && *value != "" {
		cmd.Printf("  %s: %s\n", label, *value)
	}
}

func printList(cmd *cobra.Command, label string, values []string) {
	if len(values) > 0 {
		cmd.Printf("  %s: %s\n", label, strings.Join(values, ", "))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
