package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scopecrawl/scopecrawl/internal/crawler"
)

// PageStoreConfig controls the Postgres connection pool backing the pages
// table.
type PageStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// PageStore implements crawler.PageStore on a Postgres table keyed by
// normalized URL.
type PageStore struct {
	pool  pgxPool
	table string
}

// NewPageStore connects a pool and returns a store using the provided config.
func NewPageStore(ctx context.Context, cfg PageStoreConfig) (*PageStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "pages"
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
	return &PageStore{pool: pool, table: table}, nil
}

// NewPageStoreWithPool constructs a store from an existing pool (primarily
// for testing).
func NewPageStoreWithPool(pool pgxPool, table string) (*PageStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "pages"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PageStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *PageStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the pages table if missing.
func (s *PageStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	url TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	raw_content BYTEA NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create pages table: %w", err)
	}
	return nil
}

// Upsert inserts the page or replaces every field of the existing row. The
// single-statement ON CONFLICT form keeps the replace atomic under
// concurrent writers and retries.
func (s *PageStore) Upsert(ctx context.Context, page crawler.PageRecord) error {
	if page.URL == "" {
		return fmt.Errorf("page url is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (url, title, description, raw_content, fetched_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (url) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	raw_content = EXCLUDED.raw_content,
	fetched_at = EXCLUDED.fetched_at`, s.table)

	_, err := s.pool.Exec(ctx, query,
		page.URL,
		page.Title,
		page.Description,
		page.RawContent,
		page.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert page: %w", err)
	}
	return nil
}
