package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driving"
)

var (
	syncLimit     int
	syncForce     bool
	syncFromCache bool
)

// progressInterval is how often sync progress is polled.
var progressInterval = 500 * time.Millisecond

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronise the catalog into the vector index",
	Long: `Reads every product page listed in the shop sitemap, links samples to
their main products, embeds new and changed teas and removes teas that
disappeared from the catalog.

Unchanged teas are skipped by content hash. Use --force to re-embed
everything, or --from-cache to read pages from the local page cache.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().IntVar(&syncLimit, "limit", 0, "maximum number of catalog URLs (0 = all)")
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "re-embed every tea and skip deletions")
	syncCmd.Flags().BoolVar(&syncFromCache, "from-cache", false, "read pages from the page cache")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	opts := domain.SyncOptions{
		Limit:     syncLimit,
		Force:     syncForce,
		FromCache: syncFromCache,
	}

	source := "website"
	if opts.FromCache {
		source = "page cache"
	}
	cmd.Printf("Synchronising catalog from %s...\n", source)

	stats, err := syncWithProgress(cmd.Context(), cmd.OutOrStdout(), syncOrchestrator, opts)
	if errors.Is(err, domain.ErrSyncInProgress) {
		return errors.New("another sync is already running")
	}
	if stats != nil {
		printSyncSummary(cmd, stats)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

// syncWithProgress runs sync while displaying progress updates.
// Progress lines are only written when out is a terminal.
func syncWithProgress(
	ctx context.Context,
	out io.Writer,
	syncOrch driving.SyncOrchestrator,
	opts domain.SyncOptions,
) (*domain.SyncStats, error) {
	type result struct {
		stats *domain.SyncStats
		err   error
	}

	done := make(chan result, 1)
	go func() {
		stats, err := syncOrch.Sync(ctx, opts)
		done <- result{stats, err}
	}()

	tty := isTerminal(out)
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case r := <-done:
			if tty && last != "" {
				fmt.Fprintln(out)
			}
			return r.stats, r.err
		case <-ticker.C:
			if !tty {
				continue
			}
			line := progressLine(syncOrch.Status(ctx))
			if line != "" && line != last {
				fmt.Fprintf(out, "\r\033[K%s", line)
				last = line
			}
		}
	}
}

func progressLine(s *domain.SyncStats) string {
	if s == nil || !s.Running() {
		return ""
	}
	switch s.Phase {
	case domain.SyncPhaseParsing:
		return fmt.Sprintf("Parsing... %d/%d pages (%d errors)", s.Processed, s.Total, s.Errors)
	case domain.SyncPhaseVectorizing:
		return fmt.Sprintf("Vectorizing... %d added, %d updated, %d skipped",
			s.Added, s.Updated, s.Skipped)
	default:
		return fmt.Sprintf("%s...", capitalize(s.Phase.String()))
	}
}

func printSyncSummary(cmd *cobra.Command, s *domain.SyncStats) {
	cmd.Println()
	cmd.Println("Sync summary")
	cmd.Println("============")
	cmd.Printf("  Pages processed: %d/%d\n", s.Processed, s.Total)
	cmd.Printf("  Main products: %d\n", s.MainProducts)
	cmd.Printf("  Samples: %d (linked %d, not linked %d)\n", s.Samples, s.Linked, s.NotLinked)
	cmd.Printf("  Added: %d\n", s.Added)
	cmd.Printf("  Updated: %d\n", s.Updated)
	cmd.Printf("  Skipped: %d\n", s.Skipped)
	cmd.Printf("  Deleted: %d\n", s.Deleted)
	cmd.Printf("  Errors: %d\n", s.Errors)
	if d := s.Duration(); d > 0 {
		cmd.Printf("  Duration: %s\n", d.Round(time.Second))
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
