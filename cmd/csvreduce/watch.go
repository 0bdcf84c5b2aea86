package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"csvreduce/internal/datasource/file"
	"csvreduce/internal/datasource/httpds"
)

// watchDebounce coalesces the burst of events an editor or copy produces
// into one rerun.
const watchDebounce = 250 * time.Millisecond

// watch runs once, then again after every settled write to the input file,
// until ctx is canceled. A failed rerun is logged and watching continues.
func (a *app) watch(ctx context.Context) error {
	if a.cfg.Input == file.Stdin || httpds.IsURL(a.cfg.Input) {
		return errors.New("--watch needs a local file input")
	}
	target, err := filepath.Abs(a.cfg.Input)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	// Watch the directory: editors often replace the file, which drops a
	// watch placed on the file itself.
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	if err := a.runOnce(ctx); err != nil {
		log.Printf("watch: %v", err)
	}
	log.Printf("watch: waiting for changes to %s", target)

	err = watchLoop(ctx, w.Events, w.Errors, target, watchDebounce, a.runOnce)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watchLoop calls run once per debounced burst of write/create events on
// target. It returns ctx.Err() on cancellation and nil when the event stream
// closes.
func watchLoop(
	ctx context.Context,
	events <-chan fsnotify.Event,
	errs <-chan error,
	target string,
	debounce time.Duration,
	run func(context.Context) error,
) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time // nil while no rerun is pending
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			log.Printf("watch: %v", err)

		case e, ok := <-events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != target || e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := run(ctx); err != nil {
				log.Printf("watch: %v", err)
			}
		}
	}
}
