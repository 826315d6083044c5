// Package orchestrator owns the crawl control loop: seed the frontier, drain
// it with a bounded worker pool, stop when no claimable work remains.
package orchestrator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scopecrawl/scopecrawl/internal/crawler"
	"github.com/scopecrawl/scopecrawl/internal/metrics"
)

// Config controls Orchestrator behavior.
type Config struct {
	// SeedURL is the crawl entry point. Its normalized form is also the
	// scope prefix: only links starting with it are enqueued.
	SeedURL string

	MaxDepth    int
	Concurrency int
	UserAgent   string

	// ClaimBackoffInitial/Max bound the exponential backoff applied after a
	// transient claim failure, so a broken store never spins the loop hot.
	ClaimBackoffInitial time.Duration
	ClaimBackoffMax     time.Duration

	// IdlePoll is how long an idle worker waits before re-checking the
	// frontier while other workers are still mid-task.
	IdlePoll time.Duration
}

func (c *Config) applyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.ClaimBackoffInitial <= 0 {
		c.ClaimBackoffInitial = 250 * time.Millisecond
	}
	if c.ClaimBackoffMax <= 0 {
		c.ClaimBackoffMax = 5 * time.Second
	}
	if c.IdlePoll <= 0 {
		c.IdlePoll = 100 * time.Millisecond
	}
}

// Orchestrator drives one crawl run to completion. The frontier is the sole
// coordination point between workers; there is no in-memory visited set, so
// concurrent workers and later process restarts observe the same durable
// state.
type Orchestrator struct {
	frontier  crawler.Frontier
	pages     crawler.PageStore
	fetcher   crawler.Fetcher
	extractor *crawler.Extractor
	cfg       Config
	logger    *zap.Logger

	// inflight counts workers inside their claim-and-process critical
	// section. A worker that finds no claimable row may only conclude the
	// crawl is done when this is zero: any counted worker could still
	// enqueue new links.
	inflight atomic.Int64
}

// New constructs an Orchestrator.
func New(
	frontier crawler.Frontier,
	pages crawler.PageStore,
	fetcher crawler.Fetcher,
	extractor *crawler.Extractor,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if extractor == nil {
		extractor = crawler.NewExtractor(crawler.ExtractorConfig{})
	}
	return &Orchestrator{
		frontier:  frontier,
		pages:     pages,
		fetcher:   fetcher,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run seeds the frontier and blocks until it is drained or the context is
// canceled. Already-claimed rows from earlier runs are never re-fetched; a
// fresh run against a drained frontier exits after a single empty claim
// cycle per worker.
func (o *Orchestrator) Run(ctx context.Context) error {
	seed, err := crawler.NormalizeURL(o.cfg.SeedURL)
	if err != nil {
		return fmt.Errorf("normalize seed url: %w", err)
	}
	scope := seed

	logger := o.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("seed", seed),
	)

	if err := o.frontier.Seed(ctx, seed); err != nil {
		return fmt.Errorf("seed frontier: %w", err)
	}
	logger.Info("crawl started",
		zap.Int("max_depth", o.cfg.MaxDepth),
		zap.Int("concurrency", o.cfg.Concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < o.cfg.Concurrency; i++ {
		workerLogger := logger.With(zap.Int("worker", i))
		g.Go(func() error {
			return o.runWorker(gctx, scope, workerLogger)
		})
	}
	runErr := g.Wait()

	if stats, err := o.frontier.Stats(context.WithoutCancel(ctx)); err == nil {
		logger.Info("crawl finished",
			zap.Int64("visited", stats.Claimed),
			zap.Int64("unclaimed", stats.Unclaimed),
		)
	} else {
		logger.Warn("frontier stats unavailable", zap.Error(err))
	}
	return runErr
}

// runWorker claims and processes frontier rows until the frontier is
// exhausted or the context ends.
func (o *Orchestrator) runWorker(ctx context.Context, scope string, logger *zap.Logger) error {
	backoff := o.cfg.ClaimBackoffInitial
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		o.inflight.Add(1)
		task, ok, err := o.frontier.ClaimNext(ctx, o.cfg.MaxDepth)
		if err != nil {
			o.inflight.Add(-1)
			metrics.ObserveClaimError()
			logger.Warn("claim failed", zap.Error(err))
			if serr := sleepCtx(ctx, backoff); serr != nil {
				return serr
			}
			backoff = min(backoff*2, o.cfg.ClaimBackoffMax)
			continue
		}
		backoff = o.cfg.ClaimBackoffInitial

		if !ok {
			remaining := o.inflight.Add(-1)
			if remaining == 0 {
				logger.Debug("frontier exhausted")
				return nil
			}
			if serr := sleepCtx(ctx, o.cfg.IdlePoll); serr != nil {
				return serr
			}
			continue
		}

		metrics.ObserveClaim()
		metrics.IncBusyWorkers()
		o.process(ctx, scope, task, logger)
		metrics.DecBusyWorkers()
		o.inflight.Add(-1)
	}
}

// process runs the fetch-persist-expand pipeline for one claimed task. Every
// failure here is per-task: the row stays claimed, nothing is retried, and
// the loop moves on. A canceled run lets the in-flight task complete or time
// out rather than stranding a half-processed claim.
func (o *Orchestrator) process(ctx context.Context, scope string, task crawler.CrawlTask, logger *zap.Logger) {
	taskCtx := context.WithoutCancel(ctx)

	resp, err := o.fetcher.Fetch(taskCtx, crawler.FetchRequest{
		URL:       task.URL,
		Depth:     task.Depth,
		UserAgent: o.cfg.UserAgent,
	})
	if err != nil {
		metrics.ObserveFetchError()
		logger.Warn("fetch failed",
			zap.String("url", task.URL),
			zap.Int("depth", task.Depth),
			zap.Error(err),
		)
		return
	}

	page := crawler.PageRecord{
		URL:         task.URL,
		Title:       o.extractor.Title(resp.Document),
		Description: o.extractor.Description(resp.Document),
		RawContent:  resp.Body,
		FetchedAt:   time.Now().UTC(),
	}
	if err := o.pages.Upsert(taskCtx, page); err != nil {
		metrics.ObservePersistError()
		logger.Error("persist page failed",
			zap.String("url", task.URL),
			zap.Error(err),
		)
		return
	}
	metrics.ObservePage(resp.StatusCode)

	// depth == MaxDepth pages are fetched for their content but never
	// expanded; that strictly bounds the crawl's breadth.
	if task.Depth >= o.cfg.MaxDepth {
		return
	}

	links, err := o.extractor.Links(resp.Document, resp.URL, scope)
	if err != nil {
		logger.Warn("link extraction failed",
			zap.String("url", task.URL),
			zap.Error(err),
		)
		return
	}
	if len(links) == 0 {
		return
	}
	if err := o.frontier.Enqueue(taskCtx, links, task.Depth+1); err != nil {
		metrics.ObservePersistError()
		logger.Error("enqueue links failed",
			zap.String("url", task.URL),
			zap.Int("links", len(links)),
			zap.Error(err),
		)
		return
	}
	metrics.ObserveLinksEnqueued(len(links))
	logger.Debug("page processed",
		zap.String("url", task.URL),
		zap.Int("depth", task.Depth),
		zap.Int("links", len(links)),
	)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
