package reduce

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"csvreduce/internal/metrics"
	"csvreduce/internal/parser/csv"
)

const (
	// lineBuffer bounds the reader→driver channel; a full channel blocks the
	// reader, so memory stays O(lineBuffer + K) however large the input.
	lineBuffer = 4096

	writeBufSize = 4 << 20 // 4 MiB
)

// Run reduces r in a single pass and writes the result to w. The reader and
// the driver run as two errgroup stages joined by a bounded channel; the
// driver alone owns the run state and sees lines in arrival order.
//
// w receives nothing unless the whole input was consumed without error.
func Run(ctx context.Context, r io.Reader, w io.Writer, opts Options) (st Stats, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStep(opts.Job, "reduce", err, time.Since(start))
		metrics.RecordRow(opts.Job, "lines", int64(st.Lines))
		metrics.RecordRow(opts.Job, "rows", int64(st.Rows))
		metrics.RecordRow(opts.Job, "selected", int64(st.Selected))
		metrics.RecordRow(opts.Job, "evicted", int64(st.Evicted))
		metrics.RecordRow(opts.Job, "discarded", int64(st.Discarded))
	}()

	d, err := New(opts)
	if err != nil {
		return Stats{}, err
	}

	lr := csv.NewLineReader(r)
	lines := make(chan csv.Line, lineBuffer)

	g, gctx := errgroup.WithContext(ctx)

	// Reader: raw bytes → lines.
	g.Go(func() error {
		defer close(lines)
		return csv.StreamLines(gctx, lr, lines)
	})

	// Driver: the only goroutine that touches d.
	g.Go(func() error {
		for ln := range lines {
			if err := d.Feed(ln.Text); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return d.Stats(), err
	}

	out, err := d.Finish()
	st = d.Stats()
	st.Checksum = lr.Checksum()
	if err != nil {
		return st, err
	}

	bw := bufio.NewWriterSize(w, writeBufSize)
	for _, line := range out {
		if _, err := bw.WriteString(line); err != nil {
			return st, fmt.Errorf("write output: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return st, fmt.Errorf("write output: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return st, fmt.Errorf("write output: %w", err)
	}
	return st, nil
}
