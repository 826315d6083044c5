// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scopecrawl/scopecrawl/internal/crawler"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// pgxPool is the subset of pgxpool.Pool the stores use, extracted so tests
// can substitute a pgxmock pool.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// FrontierStoreConfig controls the Postgres connection pool backing the
// frontier table.
type FrontierStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// FrontierStore implements crawler.Frontier on a Postgres table. The table is
// append-only apart from the single false->true flip of the claimed flag, so
// it doubles as the permanent visited set across process restarts.
type FrontierStore struct {
	pool  pgxPool
	table string
}

// NewFrontierStore connects a pool and returns a store using the provided
// config.
func NewFrontierStore(ctx context.Context, cfg FrontierStoreConfig) (*FrontierStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "frontier"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &FrontierStore{pool: pool, table: table}, nil
}

// NewFrontierStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewFrontierStoreWithPool(pool pgxPool, table string) (*FrontierStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "frontier"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &FrontierStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *FrontierStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the frontier table and its claim index if missing.
func (s *FrontierStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	url TEXT NOT NULL UNIQUE,
	depth INTEGER NOT NULL CHECK (depth >= 0),
	claimed BOOLEAN NOT NULL DEFAULT FALSE
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create frontier table: %w", err)
	}
	idx := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_claim_idx ON %s (depth, id) WHERE NOT claimed`,
		s.table, s.table,
	)
	if _, err := s.pool.Exec(ctx, idx); err != nil {
		return fmt.Errorf("create frontier claim index: %w", err)
	}
	return nil
}

// Seed inserts the URL at depth 0. Seeding an already-known URL is a no-op.
func (s *FrontierStore) Seed(ctx context.Context, url string) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (url, depth, claimed) VALUES ($1, 0, FALSE) ON CONFLICT (url) DO NOTHING`,
		s.table,
	)
	if _, err := s.pool.Exec(ctx, query, url); err != nil {
		return fmt.Errorf("seed frontier: %w", err)
	}
	return nil
}

// Enqueue bulk-inserts candidate URLs at the given depth. URLs already
// present are skipped whatever their stored depth or claimed state: first
// discovery wins, and a row's depth is frozen at insertion.
func (s *FrontierStore) Enqueue(ctx context.Context, urls []string, depth int) error {
	if len(urls) == 0 {
		return nil
	}
	if depth < 0 {
		return fmt.Errorf("depth must be >= 0, got %d", depth)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (url, depth, claimed)
SELECT u, $2, FALSE FROM unnest($1::text[]) AS u
ON CONFLICT (url) DO NOTHING`, s.table)
	if _, err := s.pool.Exec(ctx, query, urls, depth); err != nil {
		return fmt.Errorf("enqueue urls: %w", err)
	}
	return nil
}

// ClaimNext marks and returns one unclaimed row with depth <= maxDepth,
// shallowest first. The select-and-mark is a single statement, and SKIP
// LOCKED keeps concurrent claimers off rows locked by an in-flight claim, so
// no two callers can ever receive the same row. ok is false when the
// frontier holds no eligible row.
func (s *FrontierStore) ClaimNext(ctx context.Context, maxDepth int) (crawler.CrawlTask, bool, error) {
	query := fmt.Sprintf(`
UPDATE %s SET claimed = TRUE
WHERE id = (
	SELECT id FROM %s
	WHERE NOT claimed AND depth <= $1
	ORDER BY depth, id
	FOR UPDATE SKIP LOCKED
	LIMIT 1
)
RETURNING url, depth`, s.table, s.table)

	var task crawler.CrawlTask
	err := s.pool.QueryRow(ctx, query, maxDepth).Scan(&task.URL, &task.Depth)
	if errors.Is(err, pgx.ErrNoRows) {
		return crawler.CrawlTask{}, false, nil
	}
	if err != nil {
		return crawler.CrawlTask{}, false, fmt.Errorf("claim next: %w", err)
	}
	return task, true, nil
}

// ClaimBatch claims up to n tasks, stopping early once the frontier is
// exhausted.
func (s *FrontierStore) ClaimBatch(ctx context.Context, n, maxDepth int) ([]crawler.CrawlTask, error) {
	var tasks []crawler.CrawlTask
	for len(tasks) < n {
		task, ok, err := s.ClaimNext(ctx, maxDepth)
		if err != nil {
			return tasks, err
		}
		if !ok {
			break
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Stats reports claimed/unclaimed row counts.
func (s *FrontierStore) Stats(ctx context.Context) (crawler.FrontierStats, error) {
	query := fmt.Sprintf(`
SELECT
	COUNT(*) FILTER (WHERE claimed),
	COUNT(*) FILTER (WHERE NOT claimed)
FROM %s`, s.table)

	var stats crawler.FrontierStats
	if err := s.pool.QueryRow(ctx, query).Scan(&stats.Claimed, &stats.Unclaimed); err != nil {
		return crawler.FrontierStats{}, fmt.Errorf("frontier stats: %w", err)
	}
	return stats, nil
}
