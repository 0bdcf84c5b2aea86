// Package reduce drives a single reduction run: the header is captured,
// every data row is summed into the totals and offered to the top-K
// selector, and the result is rendered once the input is exhausted.
//
// A Driver holds all state for one run; nothing is shared between runs.
package reduce

import (
	"errors"
	"fmt"

	"csvreduce/internal/decimal"
	"csvreduce/internal/parser/csv"
	"csvreduce/internal/rescale"
	"csvreduce/internal/topk"
	"csvreduce/internal/totals"
)

// TotalsName is the name field of the synthesized totals row.
const TotalsName = "TOTALS"

var (
	// ErrEmptyInput is returned by Finish when not even a header was read.
	ErrEmptyInput = errors.New("reduce: empty input, no header line")
	// ErrFinished is returned by Feed and Finish after Finish has run.
	ErrFinished = errors.New("reduce: run already finished")
)

// State of a Driver.
type State int

const (
	AwaitingHeader State = iota
	Streaming
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingHeader:
		return "awaiting-header"
	case Streaming:
		return "streaming"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures a run.
type Options struct {
	// Lines is the total number of output data lines, totals row included.
	Lines int
	// NoTotal suppresses the totals row.
	NoTotal bool
	// Divisor rescales output cells; nil leaves them as read.
	Divisor *decimal.Decimal
	// Ties selects how equal ranks at the boundary are resolved.
	Ties topk.TiePolicy
	// Job labels metrics emitted by Run.
	Job string
}

// K is the selector capacity: Lines minus one slot for the totals row when
// it is enabled, never below zero.
func (o Options) K() int {
	k := o.Lines
	if !o.NoTotal {
		k--
	}
	if k < 0 {
		return 0
	}
	return k
}

// Stats describes a finished or in-progress run.
type Stats struct {
	K         int
	Lines     int // every line fed, header included
	Rows      int // data rows accepted
	Selected  int // rows emitted
	Evicted   int // rows that entered the selector and were later pushed out
	Discarded int // rows that never entered the selector
	Checksum  uint64
	// Totals is the unscaled totals row, set by Finish even when the row is
	// not emitted.
	Totals string
}

// Driver is the two-state reduction machine for one input.
type Driver struct {
	opts   Options
	state  State
	header string
	totals *totals.Accumulator
	sel    *topk.Selector
	stats  Stats
}

// New validates opts and returns a driver awaiting its header line.
func New(opts Options) (*Driver, error) {
	if opts.Lines < 0 {
		return nil, fmt.Errorf("reduce: lines must be >= 0, got %d", opts.Lines)
	}
	if opts.Divisor != nil && opts.Divisor.IsZero() {
		return nil, fmt.Errorf("reduce: divisor: %w", decimal.ErrDivisionByZero)
	}
	return &Driver{
		opts:  opts,
		sel:   topk.New(opts.K(), opts.Ties),
		stats: Stats{K: opts.K()},
	}, nil
}

// State reports where the driver is in its run.
func (d *Driver) State() State { return d.state }

// Stats returns a copy of the counters so far.
func (d *Driver) Stats() Stats { return d.stats }

// Feed consumes the next input line. The first line becomes the header and
// fixes the column count; every later line must be a data row of that width.
func (d *Driver) Feed(line string) error {
	switch d.state {
	case Done:
		return ErrFinished
	case AwaitingHeader:
		d.stats.Lines++
		d.header = line
		d.totals = totals.New(len(csv.SplitFields(line)))
		d.state = Streaming
		return nil
	}

	d.stats.Lines++
	row, err := csv.ParseRow(line, d.stats.Lines)
	if err != nil {
		return err
	}
	if err := d.totals.Accumulate(row); err != nil {
		return &csv.MalformedRowError{
			Line:   d.stats.Lines,
			Field:  -1,
			Raw:    line,
			Reason: "incorrect number of fields",
			Err:    err,
		}
	}
	d.stats.Rows++

	switch d.sel.Offer(row) {
	case topk.Replaced:
		d.stats.Evicted++
	case topk.Discarded:
		d.stats.Discarded++
	}
	return nil
}

// Finish renders the output lines: header, the totals row unless disabled,
// then the selected rows by descending rank. Rescaling happens here and only
// here. Nothing is returned unless every line rendered cleanly.
func (d *Driver) Finish() ([]string, error) {
	switch d.state {
	case AwaitingHeader:
		return nil, ErrEmptyInput
	case Done:
		return nil, ErrFinished
	}
	d.state = Done

	rows := d.sel.Drain()
	out := make([]string, 0, len(rows)+2)
	out = append(out, d.header)
	d.stats.Totals = d.totals.Row(TotalsName)

	if !d.opts.NoTotal {
		line, err := rescale.Rescale(d.stats.Totals, d.opts.Divisor)
		if err != nil {
			return nil, fmt.Errorf("totals row: %w", err)
		}
		out = append(out, line)
	}

	for _, r := range rows {
		line, err := rescale.Rescale(r.Raw, d.opts.Divisor)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.Line, err)
		}
		out = append(out, line)
	}

	d.stats.Selected = len(rows)
	return out, nil
}
