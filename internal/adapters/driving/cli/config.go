package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change the configuration file.

Environment variables such as OPENROUTER_API_KEY and QDRANT_URL take
precedence over values stored in the file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	status := "configured"
	if !settings.Embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Backend: %s\n", settings.Store.Backend)
	switch settings.Store.Backend {
	case domain.StoreBackendQdrant:
		cmd.Printf("  URL: %s\n", settings.Store.QdrantURL)
		cmd.Printf("  Collection: %s\n", settings.Store.QdrantCollection)
	case domain.StoreBackendSQLite:
		cmd.Printf("  Path: %s\n", settings.Store.SQLitePath)
	}
	cmd.Printf("  Vector size: %d\n", settings.Store.VectorSize)
	cmd.Println()

	cmd.Println("[Cache]")
	cmd.Printf("  Backend: %s\n", settings.Cache.Backend)
	if settings.Cache.Backend == domain.CacheBackendRedis {
		cmd.Printf("  Address: %s\n", settings.Cache.RedisAddr)
		cmd.Printf("  Prefix: %s\n", settings.Cache.RedisPrefix)
	}
	cmd.Println()

	cmd.Println("[Sync]")
	cmd.Printf("  Sitemap: %s\n", settings.Sync.SitemapURL)
	cmd.Printf("  Batch size: %d\n", settings.Sync.BatchSize)
	cmd.Printf("  Fetch delay: %s\n", settings.Sync.FetchDelay)
	cmd.Printf("  Sample overlap: %d%%\n", settings.Sync.MinOverlapPercent)
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Default limit: %d\n", settings.Search.DefaultLimit)
	cmd.Printf("  Sample timeout: %s\n", settings.Search.SampleLookupTimeout)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	display := value
	if key == "embedding.api_key" {
		display = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", key, display)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	cmd.Println(settingsService.Path())
	return nil
}

// maskAPIKey masks an API key for display.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
