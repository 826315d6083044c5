package crawler

import "context"

// Frontier is the durable set of discovered URLs and the single source of
// truth for "is this URL known / claimed". Implementations must make
// ClaimNext atomic against concurrent callers: two claims never return the
// same row.
type Frontier interface {
	// Seed inserts the URL at depth 0 if absent. Duplicate seeding is a
	// silent no-op.
	Seed(ctx context.Context, url string) error

	// Enqueue bulk-inserts candidate URLs at the given depth, skipping any
	// URL already present regardless of that row's depth or claimed state.
	// First discovery wins; a known URL is never re-queued and its depth is
	// never changed.
	Enqueue(ctx context.Context, urls []string, depth int) error

	// ClaimNext atomically selects one unclaimed row with depth <= maxDepth,
	// ordered by (depth, id) to approximate breadth-first order, marks it
	// claimed and returns it. ok is false when no eligible row exists; that
	// is the loop's termination signal, not an error.
	ClaimNext(ctx context.Context, maxDepth int) (task CrawlTask, ok bool, err error)

	// ClaimBatch claims up to n tasks, stopping early if the frontier is
	// exhausted.
	ClaimBatch(ctx context.Context, n, maxDepth int) ([]CrawlTask, error)

	// Stats reports claimed/unclaimed row counts.
	Stats(ctx context.Context) (FrontierStats, error)
}

// PageStore persists crawled pages keyed by normalized URL.
type PageStore interface {
	// Upsert inserts the record if the URL is new, otherwise overwrites all
	// fields. The replace is atomic and idempotent.
	Upsert(ctx context.Context, page PageRecord) error
}

// Fetcher fetches a single URL and returns the raw body plus parsed document.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}
