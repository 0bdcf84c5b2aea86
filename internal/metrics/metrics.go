// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from a reduction run.
//
// The package exposes a narrow Backend interface (counters and timings) and a
// global, pluggable backend that defaults to a no-op, so callers can record
// unconditionally whether or not a real backend is configured. Concrete
// systems live in subpackages (prompush, datadog) so the core never imports
// them.
package metrics

import "time"

// Metric names shared by every backend.
const (
	StepTotal           = "csvreduce_step_total"
	StepDurationSeconds = "csvreduce_step_duration_seconds"
	RecordsTotal        = "csvreduce_records_total"
	RunsTotal           = "csvreduce_runs_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and success/failure of one step.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind.
//
// Kinds mirror reduce.Stats:
//   - "lines"
//   - "rows"
//   - "selected"
//   - "evicted"
//   - "discarded"
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordRun counts one reduction started for job, e.g. each rerun in watch mode.
func RecordRun(job string) {
	backend.IncCounter(RunsTotal, 1, Labels{
		"job": job,
	})
}
