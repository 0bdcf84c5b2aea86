// Package sqlite implements a SQLite-backed run-history store using
// database/sql and the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"csvreduce/internal/storage"

	_ "modernc.org/sqlite"
)

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:runs.db?cache=shared"
	//   "runs.db"
	DSN string

	// Table receives one row per run.
	Table string

	// BusyTimeout makes concurrent writers wait instead of failing with
	// SQLITE_BUSY. Zero leaves the driver default.
	BusyTimeout time.Duration
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, nil, fmt.Errorf("sqlite: table must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	if cfg.BusyTimeout > 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d;", cfg.BusyTimeout.Milliseconds())); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("sqlite: busy_timeout: %w", err)
		}
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// quote quotes a SQLite identifier; "main.runs" becomes "main"."runs".
func quote(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

func createTableSQL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + quote(table) + ` (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	job         TEXT    NOT NULL,
	input       TEXT    NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	duration_ms INTEGER NOT NULL,
	checksum    TEXT    NOT NULL,
	k           INTEGER NOT NULL,
	lines       INTEGER NOT NULL,
	rows_read   INTEGER NOT NULL,
	selected    INTEGER NOT NULL,
	evicted     INTEGER NOT NULL,
	discarded   INTEGER NOT NULL,
	totals      TEXT    NOT NULL,
	status      TEXT    NOT NULL,
	error       TEXT    NOT NULL
)`
}

// EnsureSchema creates the history table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTableSQL(r.cfg.Table)); err != nil {
		return fmt.Errorf("sqlite: create table: %w", err)
	}
	return nil
}

// SaveRun inserts one run.
func (r *Repository) SaveRun(ctx context.Context, run storage.Run) error {
	stmt := storage.InsertSQL(quote(r.cfg.Table), quote, storage.QuestionMark)
	if _, err := r.db.ExecContext(ctx, stmt, run.Values()...); err != nil {
		return fmt.Errorf("sqlite: insert: %w", err)
	}
	return nil
}

// Count returns the number of stored runs.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quote(r.cfg.Table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count: %w", err)
	}
	return n, nil
}
