// Package storage records one row per reduction run in an optional history
// store. Backends (sqlite, postgres, mysql, mssql) live in subpackages and
// register a Factory for their kind from init; import storage/all to enable
// every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"csvreduce/internal/config"
)

// Run is the history record of one reduction.
type Run struct {
	Job       string
	Input     string
	StartedAt time.Time
	Duration  time.Duration
	Checksum  uint64
	K         int
	Lines     int
	Rows      int
	Selected  int
	Evicted   int
	Discarded int
	// Totals is the unscaled totals row, e.g. "TOTALS,30,350".
	Totals string
	// Err is the failure message; empty for a successful run.
	Err string
}

// Status is "success" or "failure".
func (r Run) Status() string {
	if r.Err != "" {
		return "failure"
	}
	return "success"
}

// RunColumns is the column order used by every backend's INSERT.
var RunColumns = []string{
	"job", "input", "started_at", "duration_ms", "checksum",
	"k", "lines", "rows_read", "selected", "evicted", "discarded",
	"totals", "status", "error",
}

// Values returns the insert arguments in RunColumns order. The checksum is
// rendered as 16 hex digits since not every database has an unsigned 64-bit
// integer type.
func (r Run) Values() []any {
	return []any{
		r.Job,
		r.Input,
		r.StartedAt.UTC(),
		r.Duration.Milliseconds(),
		fmt.Sprintf("%016x", r.Checksum),
		r.K,
		r.Lines,
		r.Rows,
		r.Selected,
		r.Evicted,
		r.Discarded,
		r.Totals,
		r.Status(),
		r.Err,
	}
}

// Repository stores run history.
type Repository interface {
	// EnsureSchema creates the history table when it does not exist.
	EnsureSchema(ctx context.Context) error
	// SaveRun appends one run.
	SaveRun(ctx context.Context, run Run) error
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind    string
	DSN     string
	Table   string
	Options config.Options
}

// Factory opens a Repository for one kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens the repository registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// InsertSQL renders "INSERT INTO <table> (<cols>) VALUES (<placeholders>)"
// for RunColumns. quote quotes one identifier; placeholder renders the
// 1-based i-th bind parameter ("?", "$1", "@p1", ...).
func InsertSQL(table string, quote func(string) string, placeholder func(i int) string) string {
	cols := make([]byte, 0, 256)
	vals := make([]byte, 0, 128)
	for i, c := range RunColumns {
		if i > 0 {
			cols = append(cols, ", "...)
			vals = append(vals, ", "...)
		}
		cols = append(cols, quote(c)...)
		vals = append(vals, placeholder(i+1)...)
	}
	return "INSERT INTO " + table + " (" + string(cols) + ") VALUES (" + string(vals) + ")"
}

// QuestionMark is the placeholder style of sqlite and mysql.
func QuestionMark(int) string { return "?" }

// Dollar is the placeholder style of postgres.
func Dollar(i int) string { return "$" + strconv.Itoa(i) }

// AtP is the placeholder style of mssql.
func AtP(i int) string { return "@p" + strconv.Itoa(i) }
