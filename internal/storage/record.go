package storage

import (
	"context"
	"fmt"
	"time"
)

// recordTimeout bounds the whole history write; a slow history database must
// not hold the process after the output is already written.
const recordTimeout = 10 * time.Second

// Record opens the configured store, makes sure the table exists, appends run
// and closes the store. Callers treat a failure as a warning.
func Record(ctx context.Context, cfg Config, run Run) error {
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	repo, err := New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("history: open %s: %w", cfg.Kind, err)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("history: ensure schema: %w", err)
	}
	if err := repo.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("history: save run: %w", err)
	}
	return nil
}
