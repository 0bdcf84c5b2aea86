// Package mysql implements a MySQL run-history store using database/sql and
// github.com/go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"csvreduce/internal/storage"
)

// Config holds MySQL repository configuration.
type Config struct {
	// DSN uses the driver format, e.g. "user:pass@tcp(db:3306)/ops".
	DSN   string
	Table string
	// DialTimeout overrides the DSN's dial timeout when > 0.
	DialTimeout time.Duration
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// normalizeDSN parses dsn and forces the settings the repository relies on:
// DATETIME values in UTC as time.Time. A positive dialTimeout replaces the
// DSN's own.
func normalizeDSN(dsn string, dialTimeout time.Duration) (string, error) {
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	mc.ParseTime = true
	mc.Loc = time.UTC
	if dialTimeout > 0 {
		mc.Timeout = dialTimeout
	}
	return mc.FormatDSN(), nil
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, nil, fmt.Errorf("mysql: table must not be empty")
	}
	dsn, err := normalizeDSN(cfg.DSN, cfg.DialTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	close := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, close, nil
}

// myIdent quotes an identifier with backticks; "ops.runs" becomes `ops`.`runs`.
func myIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
	}
	return strings.Join(parts, ".")
}

func createTableSQL(table string) string {
	return "CREATE TABLE IF NOT EXISTS " + myIdent(table) + ` (
	id          BIGINT AUTO_INCREMENT PRIMARY KEY,
	job         VARCHAR(255) NOT NULL,
	input       TEXT         NOT NULL,
	started_at  DATETIME(6)  NOT NULL,
	duration_ms BIGINT       NOT NULL,
	checksum    CHAR(16)     NOT NULL,
	k           INT          NOT NULL,
	` + "`lines`" + `       BIGINT       NOT NULL,
	rows_read   BIGINT       NOT NULL,
	selected    INT          NOT NULL,
	evicted     BIGINT       NOT NULL,
	discarded   BIGINT       NOT NULL,
	totals      TEXT         NOT NULL,
	status      VARCHAR(16)  NOT NULL,
	error       TEXT         NOT NULL
)`
}

func insertSQL(table string) string {
	return storage.InsertSQL(myIdent(table), myIdent, storage.QuestionMark)
}

// EnsureSchema creates the history table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTableSQL(r.cfg.Table)); err != nil {
		return fmt.Errorf("mysql: create table: %w", err)
	}
	return nil
}

// SaveRun inserts one run.
func (r *Repository) SaveRun(ctx context.Context, run storage.Run) error {
	if _, err := r.db.ExecContext(ctx, insertSQL(r.cfg.Table), run.Values()...); err != nil {
		return fmt.Errorf("mysql: insert: %w", err)
	}
	return nil
}
