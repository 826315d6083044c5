package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scopecrawl/scopecrawl/internal/api"
	"github.com/scopecrawl/scopecrawl/internal/config"
	"github.com/scopecrawl/scopecrawl/internal/crawler"
	collyfetcher "github.com/scopecrawl/scopecrawl/internal/fetcher/colly"
	"github.com/scopecrawl/scopecrawl/internal/logging"
	"github.com/scopecrawl/scopecrawl/internal/metrics"
	"github.com/scopecrawl/scopecrawl/internal/orchestrator"
	"github.com/scopecrawl/scopecrawl/internal/policy/ratelimit"
	"github.com/scopecrawl/scopecrawl/internal/storage/postgres"
)

// newCrawlCmd creates the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	var (
		maxDepth    int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Crawl all pages under the seed URL's prefix",
		Long: `Seeds the frontier with the given URL at depth 0 and drains it with a
pool of concurrent fetch workers. Only links whose URL starts with the
seed URL are followed. The run ends, with exit code 0, once no claimable
frontier row remains.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd, args[0], maxDepth, concurrency)
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", -1, "override crawler.max_depth")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "override crawler.concurrency")

	return cmd
}

func runCrawl(cmd *cobra.Command, seedURL string, maxDepth, concurrency int) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if maxDepth >= 0 {
		cfg.Crawler.MaxDepth = maxDepth
	}
	if concurrency > 0 {
		cfg.Crawler.Concurrency = concurrency
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Init()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	frontier, pages, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer frontier.Close()
	defer pages.Close()

	limiter := ratelimit.New(ratelimit.Config{
		DefaultRPS:   cfg.Crawler.RateRPS,
		DefaultBurst: cfg.Crawler.RateBurst,
	})
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	}, limiter)
	extractor := crawler.NewExtractor(crawler.ExtractorConfig{
		TitleSelector:       cfg.Selectors.Title,
		DescriptionSelector: cfg.Selectors.Description,
	})

	orch := orchestrator.New(frontier, pages, fetcher, extractor, orchestrator.Config{
		SeedURL:             seedURL,
		MaxDepth:            cfg.Crawler.MaxDepth,
		Concurrency:         cfg.Crawler.Concurrency,
		UserAgent:           cfg.Crawler.UserAgent,
		ClaimBackoffInitial: cfg.ClaimBackoffInitial(),
		ClaimBackoffMax:     cfg.ClaimBackoffMax(),
		IdlePoll:            cfg.IdlePoll(),
	}, logger)

	var srv *api.Server
	if cfg.Server.Enabled {
		srv = api.NewServer(frontier, cfg.Server.Port, logger)
		go func() {
			if serr := srv.Start(); serr != nil {
				logger.Warn("status server stopped", zap.Error(serr))
			}
		}()
	}

	runErr := orch.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("status server shutdown", zap.Error(serr))
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("run crawl: %w", runErr)
	}
	return nil
}

// buildStores connects both Postgres stores and provisions their schemas.
// Any failure here is a startup error that aborts before seeding.
func buildStores(ctx context.Context, cfg config.Config) (*postgres.FrontierStore, *postgres.PageStore, error) {
	frontier, err := postgres.NewFrontierStore(ctx, postgres.FrontierStoreConfig{
		DSN:      cfg.DB.DSN,
		Table:    cfg.DB.FrontierTable,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init frontier store: %w", err)
	}
	if err := frontier.EnsureSchema(ctx); err != nil {
		frontier.Close()
		return nil, nil, fmt.Errorf("provision frontier schema: %w", err)
	}

	pages, err := postgres.NewPageStore(ctx, postgres.PageStoreConfig{
		DSN:      cfg.DB.DSN,
		Table:    cfg.DB.PagesTable,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		frontier.Close()
		return nil, nil, fmt.Errorf("init page store: %w", err)
	}
	if err := pages.EnsureSchema(ctx); err != nil {
		frontier.Close()
		pages.Close()
		return nil, nil, fmt.Errorf("provision pages schema: %w", err)
	}

	return frontier, pages, nil
}
