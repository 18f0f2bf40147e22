package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of *pgxpool.Pool the archive needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Connect opens a pool and checks that the server answers.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS mirror_runs (
	id BIGSERIAL PRIMARY KEY,
	target_url TEXT NOT NULL,
	crawled_at TIMESTAMPTZ NOT NULL,
	pages_total INT NOT NULL,
	pages_successful INT NOT NULL,
	pages_failed INT NOT NULL,
	assets_total INT NOT NULL,
	total_bytes BIGINT NOT NULL,
	assets_by_type JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS mirror_pages (
	run_id BIGINT NOT NULL REFERENCES mirror_runs(id) ON DELETE CASCADE,
	url TEXT NOT NULL,
	status INT NOT NULL,
	title TEXT NOT NULL,
	links_count INT NOT NULL,
	error TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS mirror_assets (
	run_id BIGINT NOT NULL REFERENCES mirror_runs(id) ON DELETE CASCADE,
	url TEXT NOT NULL,
	local_path TEXT NOT NULL,
	size BIGINT NOT NULL,
	type TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS mirror_errors (
	run_id BIGINT NOT NULL REFERENCES mirror_runs(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	url TEXT NOT NULL,
	error TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS mirror_diff_runs (
	id BIGSERIAL PRIMARY KEY,
	target_url TEXT NOT NULL,
	total INT NOT NULL,
	passed INT NOT NULL,
	failed INT NOT NULL,
	pass_rate TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS mirror_diff_breakpoints (
	diff_run_id BIGINT NOT NULL REFERENCES mirror_diff_runs(id) ON DELETE CASCADE,
	page_url TEXT NOT NULL,
	local_url TEXT NOT NULL,
	width INT NOT NULL,
	mismatch DOUBLE PRECISION NOT NULL,
	pass BOOLEAN NOT NULL,
	diff_pixels INT NOT NULL,
	total_pixels INT NOT NULL,
	error TEXT NOT NULL DEFAULT ''
);`

// EnsureSchema creates the archive tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func inTx(ctx context.Context, db DB, fn func(pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
