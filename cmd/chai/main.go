// Command chai keeps a semantic index of the tea catalog and searches it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/custodia-labs/chai-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/chai-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/chai-cli/internal/adapters/driven/scraper/beliyles"
	"github.com/custodia-labs/chai-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/chai-cli/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/chai-cli/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/chai-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/chai-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/chai-cli/internal/core/domain"
	"github.com/custodia-labs/chai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/chai-cli/internal/core/services"
	"github.com/custodia-labs/chai-cli/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Adapters log while they are built, before cobra parses flags.
	if slices.Contains(os.Args[1:], "--verbose") || slices.Contains(os.Args[1:], "-v") {
		logger.SetVerbose(true)
	}

	app, err := wire(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	defer app.close()

	cli.SetVersion(version)
	return cli.Execute(ctx)
}

// app holds the handles opened by wire. Each one is closed exactly once.
type app struct {
	closers []func() error
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("close: %v", err)
		}
	}
}

func wire(ctx context.Context) (*app, error) {
	a := &app{}

	configStore := newConfigStore()
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	cli.SetSettingsService(settingsService)

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	var sqliteStore *sqlite.Store
	openSQLite := func() (*sqlite.Store, error) {
		if sqliteStore != nil {
			return sqliteStore, nil
		}
		s, err := sqlite.NewStore(settings.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		sqliteStore = s
		a.onClose(s.Close)
		return s, nil
	}

	store, err := newTeaStore(settings.Store, openSQLite, a)
	if err != nil {
		a.close()
		return nil, err
	}

	cache, err := newPageCache(ctx, settings.Cache, openSQLite, a)
	if err != nil {
		// The cache only backs offline syncs; everything else keeps working.
		logger.Warn("page cache disabled: %v", err)
		cache = nil
	}

	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		logger.Warn("embedding service disabled: %v", err)
		embedder = nil
	}
	if embedder != nil {
		a.onClose(embedder.Close)
	}

	scraper := beliyles.NewScraper(beliyles.Config{
		SitemapURL: settings.Sync.SitemapURL,
		UserAgent:  settings.Sync.UserAgent,
	})

	cli.SetSearchService(services.NewSearchService(store, embedder, services.SearchConfig{
		DefaultLimit:  settings.Search.DefaultLimit,
		SampleTimeout: settings.Search.SampleLookupTimeout,
	}))
	cli.SetSyncOrchestrator(services.NewSyncOrchestrator(store, embedder, scraper, cache, services.SyncConfig{
		BatchSize:         settings.Sync.BatchSize,
		FetchDelay:        settings.Sync.FetchDelay,
		MinOverlapPercent: settings.Sync.MinOverlapPercent,
	}))
	cli.SetCatalogExporter(services.NewExportService(scraper, settings.Sync.FetchDelay))
	if cache != nil {
		cli.SetCacheService(services.NewCacheService(cache, scraper, settings.Sync.FetchDelay))
	}

	return a, nil
}

// newConfigStore opens ~/.chai/config.toml, falling back to an in-memory
// store when the config directory is not writable.
func newConfigStore() driven.ConfigStore {
	store, err := file.NewConfigStore("")
	if err != nil {
		logger.Warn("config file unavailable, using defaults: %v", err)
		return memory.NewConfigStore()
	}
	return store
}

func newTeaStore(
	cfg domain.StoreSettings,
	openSQLite func() (*sqlite.Store, error),
	a *app,
) (driven.TeaStore, error) {
	switch cfg.Backend {
	case domain.StoreBackendQdrant:
		store, err := qdrant.NewStore(qdrant.Config{
			URL:        cfg.QdrantURL,
			Collection: cfg.QdrantCollection,
			VectorSize: cfg.VectorSize,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring qdrant: %w", err)
		}
		a.onClose(store.Close)
		return store, nil
	case domain.StoreBackendMemory:
		return memory.NewTeaStore(), nil
	case domain.StoreBackendSQLite, "":
		s, err := openSQLite()
		if err != nil {
			return nil, err
		}
		return s.TeaStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, cfg.Backend)
	}
}

func newPageCache(
	ctx context.Context,
	cfg domain.CacheSettings,
	openSQLite func() (*sqlite.Store, error),
	a *app,
) (driven.PageCache, error) {
	switch cfg.Backend {
	case domain.CacheBackendRedis:
		c, err := redis.NewPageCache(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.onClose(c.Close)
		return c, nil
	case domain.CacheBackendMemory:
		return memory.NewPageCache(), nil
	case domain.CacheBackendSQLite, "":
		s, err := openSQLite()
		if err != nil {
			return nil, err
		}
		return s.PageCache(), nil
	default:
		return nil, fmt.Errorf("%w: unknown cache backend %q", domain.ErrInvalidInput, cfg.Backend)
	}
}
