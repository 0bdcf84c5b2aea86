// Package postgres implements a Postgres run-history store using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"csvreduce/internal/storage"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN      string // connection string for pgxpool
	Table    string // optionally schema-qualified, e.g. "ops.csvreduce_runs"
	MaxConns int32  // pool size; zero keeps the pgxpool default
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a Close function for
// cleanup. The pool connects lazily; the first query surfaces connection
// errors.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, nil, fmt.Errorf("postgres: table must not be empty")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	close := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, close, nil
}

// pgFQN quotes a possibly schema-qualified name like "ops.runs" to
// "ops"."runs".
func pgFQN(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

func pgIdent(id string) string { return pgx.Identifier{id}.Sanitize() }

func createTableSQL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + pgFQN(table) + ` (
	id          BIGSERIAL PRIMARY KEY,
	job         TEXT        NOT NULL,
	input       TEXT        NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT      NOT NULL,
	checksum    CHAR(16)    NOT NULL,
	k           INTEGER     NOT NULL,
	lines       BIGINT      NOT NULL,
	rows_read   BIGINT      NOT NULL,
	selected    INTEGER     NOT NULL,
	evicted     BIGINT      NOT NULL,
	discarded   BIGINT      NOT NULL,
	totals      TEXT        NOT NULL,
	status      TEXT        NOT NULL,
	error       TEXT        NOT NULL
)`
}

func insertSQL(table string) string {
	return storage.InsertSQL(pgFQN(table), pgIdent, storage.Dollar)
}

// EnsureSchema creates the history table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createTableSQL(r.cfg.Table)); err != nil {
		return fmt.Errorf("postgres: create table: %w", err)
	}
	return nil
}

// SaveRun inserts one run.
func (r *Repository) SaveRun(ctx context.Context, run storage.Run) error {
	if _, err := r.pool.Exec(ctx, insertSQL(r.cfg.Table), run.Values()...); err != nil {
		return fmt.Errorf("postgres: insert: %w", err)
	}
	return nil
}
