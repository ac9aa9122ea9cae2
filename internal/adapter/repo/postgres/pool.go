package postgres

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arc-halo/fusiondb/internal/adapter/observability"
	"github.com/arc-halo/fusiondb/internal/config"
	"github.com/arc-halo/fusiondb/internal/domain"
)

// DB wraps a pgx connection pool and adds the generic query helpers used by
// scripts and diagnostics. Repositories take the embedded pool directly.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates the shared connection pool from configuration and verifies it
// with a ping before returning, so a bad DSN fails at startup rather than on
// the first query.
func New(ctx context.Context, cfg config.Config) (*DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("op=postgres.new: NEON_DATABASE_URL is not set: %w", domain.ErrConfig)
	}
	pc, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("op=postgres.new: %w", err)
	}
	minConns := cfg.PoolMinConns
	if minConns <= 0 {
		minConns = 1
	}
	maxConns := cfg.PoolMaxConns
	if maxConns <= 0 {
		maxConns = 20
	}
	pc.MinConns = minConns
	pc.MaxConns = maxConns
	if cfg.ConnectTimeout > 0 {
		pc.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	pc.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("op=postgres.new: %w", err)
	}

	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("op=postgres.new: ping: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Acquire checks a connection out of the pool; the caller must Release it.
// Blocks when all connections are busy.
func (d *DB) Acquire(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := d.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("op=postgres.acquire: %w", err)
	}
	return conn, nil
}

// Close closes every pooled connection.
func (d *DB) Close() { d.Pool.Close() }

// Ping verifies the pool can reach the server.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("op=postgres.ping: %w", err)
	}
	return nil
}

// Stat returns pool statistics for the metrics collector.
func (d *DB) Stat() *pgxpool.Stat { return d.Pool.Stat() }

// Query runs a read statement and returns every row as a column-to-value
// map. The pool connection is acquired and released internally on all paths.
func (d *DB) Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	start := time.Now()
	rows, err := d.Pool.Query(ctx, sql, args...)
	if err != nil {
		observability.ObserveDBCommand("query", err, time.Since(start))
		return nil, fmt.Errorf("op=postgres.query: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	observability.ObserveDBCommand("query", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("op=postgres.query: %w", err)
	}
	return out, nil
}

// Exec runs a write statement inside its own transaction and returns the
// affected-row count. The transaction commits on success and rolls back on
// any failure, with the statement error returned unchanged.
func (d *DB) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	start := time.Now()
	var affected int64
	err := d.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	observability.ObserveDBCommand("exec", err, time.Since(start))
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// WithTx runs fn inside a transaction. Rollback is automatic unless the
// commit happened; an error from fn is returned unchanged.
func (d *DB) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("op=postgres.with_tx: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op once committed
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("op=postgres.with_tx: commit: %w", err)
	}
	return nil
}

// RunScriptFile executes a SQL file inside one transaction. Multi-statement
// scripts run over the simple protocol, so no statement splitting happens
// here.
func (d *DB) RunScriptFile(ctx context.Context, path string) error {
	start := time.Now()
	script, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("op=postgres.run_script: %w", err)
	}
	err = d.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(script)); err != nil {
			return fmt.Errorf("op=postgres.run_script: %w", err)
		}
		return nil
	})
	observability.ObserveDBCommand("script", err, time.Since(start))
	return err
}
