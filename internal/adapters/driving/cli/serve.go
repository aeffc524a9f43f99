package cli

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/chai-cli/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves catalog search over HTTP until interrupted.

Endpoints:
  GET  /health
  POST /api/v1/search      {"query": "...", "limit": 5, "filters": {...}}
  GET  /api/v1/teas/:id
  GET  /api/v1/teas?url=...
  GET  /api/v1/stats`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", httpapi.DefaultAddr, "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	server := httpapi.NewServer(searchService, version)
	cmd.Printf("HTTP API listening on %s\n", serveAddr)
	return server.Run(cmd.Context(), serveAddr)
}
