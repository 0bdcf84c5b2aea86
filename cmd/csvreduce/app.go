package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"csvreduce/internal/config"
	"csvreduce/internal/datasource"
	"csvreduce/internal/datasource/file"
	"csvreduce/internal/datasource/httpds"
	"csvreduce/internal/metrics"
	"csvreduce/internal/reduce"
	"csvreduce/internal/storage"
)

// app runs reductions for one resolved configuration.
type app struct {
	cfg     config.Config
	stdout  io.Writer
	stderr  io.Writer
	stats   bool
	verbose bool
}

func (a *app) options() (reduce.Options, error) {
	div, err := a.cfg.Divisor()
	if err != nil {
		return reduce.Options{}, err
	}
	ties, err := a.cfg.TiePolicy()
	if err != nil {
		return reduce.Options{}, err
	}
	return reduce.Options{
		Lines:   a.cfg.Lines,
		NoTotal: a.cfg.NoTotal,
		Divisor: div,
		Ties:    ties,
		Job:     a.cfg.Job,
	}, nil
}

// runOnce performs one reduction of the configured input. stdout receives
// the whole result or nothing.
func (a *app) runOnce(ctx context.Context) error {
	opts, err := a.options()
	if err != nil {
		return err
	}

	metrics.RecordRun(a.cfg.Job)
	start := time.Now()
	if a.verbose {
		log.Printf("pipeline: input=%s k=%d no_total=%v divide=%q ties=%s encoding=%s",
			a.cfg.Input, opts.K(), opts.NoTotal, a.cfg.Divide.String(), opts.Ties, a.cfg.Encoding)
	}

	st, err := a.reduce(ctx, opts)
	dur := time.Since(start)

	a.recordHistory(ctx, start, dur, st, err)
	if err != nil {
		return err
	}

	if a.stats {
		if err := renderStats(a.stderr, a.cfg.Input, st, dur); err != nil {
			log.Printf("stats: %v", err)
		}
	}
	if a.verbose {
		log.Printf("summary: lines=%d rows=%d selected=%d evicted=%d discarded=%d checksum=%016x",
			st.Lines, st.Rows, st.Selected, st.Evicted, st.Discarded, st.Checksum)
		log.Printf("completed in %s", dur.Truncate(time.Millisecond))
	}
	return nil
}

// source picks the input implementation: http(s) URLs are fetched, anything
// else is a local path or "-".
func (a *app) source() (datasource.Source, error) {
	if !httpds.IsURL(a.cfg.Input) {
		return file.NewLocal(a.cfg.Input), nil
	}
	timeout, err := a.cfg.HTTP.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	client := httpds.NewClient(httpds.Config{
		Timeout:            timeout,
		MaxRetries:         a.cfg.HTTP.MaxRetries,
		InsecureSkipVerify: a.cfg.HTTP.InsecureSkipVerify,
		Header:             http.Header{"User-Agent": {"csvreduce"}},
	})
	return httpds.New(client, a.cfg.Input), nil
}

func (a *app) reduce(ctx context.Context, opts reduce.Options) (reduce.Stats, error) {
	src, err := a.source()
	if err != nil {
		return reduce.Stats{K: opts.K()}, err
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return reduce.Stats{K: opts.K()}, err
	}
	defer rc.Close()

	r, err := file.Decode(rc, a.cfg.Encoding)
	if err != nil {
		return reduce.Stats{K: opts.K()}, err
	}

	st, err := reduce.Run(ctx, r, a.stdout, opts)
	if err != nil {
		return st, fmt.Errorf("%s: %w", a.cfg.Input, err)
	}
	return st, nil
}

// recordHistory appends the run to the history store, if one is configured.
// Failures are logged and never change the outcome of the run.
func (a *app) recordHistory(ctx context.Context, start time.Time, dur time.Duration, st reduce.Stats, runErr error) {
	h := a.cfg.History
	if h.Kind == "" {
		return
	}
	run := storage.Run{
		Job:       a.cfg.Job,
		Input:     a.cfg.Input,
		StartedAt: start,
		Duration:  dur,
		Checksum:  st.Checksum,
		K:         st.K,
		Lines:     st.Lines,
		Rows:      st.Rows,
		Selected:  st.Selected,
		Evicted:   st.Evicted,
		Discarded: st.Discarded,
		Totals:    st.Totals,
	}
	if runErr != nil {
		run.Err = runErr.Error()
	}

	hstart := time.Now()
	err := storage.Record(context.WithoutCancel(ctx), storage.Config{
		Kind:    h.Kind,
		DSN:     h.DSN,
		Table:   h.Table,
		Options: h.Options,
	}, run)
	metrics.RecordStep(a.cfg.Job, "history", err, time.Since(hstart))
	if err != nil {
		log.Printf("warning: %v", err)
	} else if a.verbose {
		log.Printf("history: recorded run in %s table=%s", h.Kind, h.Table)
	}
}
