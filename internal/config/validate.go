package config

// This file adds a lightweight linter for Config values. It performs static
// checks and returns a list of issues (errors and warnings) that the CLI
// surfaces before any input is opened.

import (
	"errors"
	"fmt"
	"strings"

	"csvreduce/internal/datasource/file"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "metrics.pushgateway_url").
// Err, when set, is the underlying cause and is exposed through Unwrap.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
	Err      error
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

func (i Issue) Unwrap() error { return i.Err }

// knownHistoryKinds lists the storage kinds shipped with the binary. Other
// kinds are only a warning, since a build may register more.
var knownHistoryKinds = map[string]struct{}{
	"sqlite":   {},
	"postgres": {},
	"mysql":    {},
	"mssql":    {},
}

// Validate performs static validation of c. It does not mutate c.
// A missing input is not reported here; see Check.
func Validate(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics and history rows will be unlabeled",
		})
	}

	issues = append(issues, validateReduce(c)...)
	issues = append(issues, validateHTTP(c.HTTP)...)
	issues = append(issues, validateMetrics(c.Metrics)...)
	issues = append(issues, validateHistory(c.History)...)
	return issues
}

func validateReduce(c Config) []Issue {
	var issues []Issue

	switch {
	case c.Lines < 0:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "lines",
			Message:  fmt.Sprintf("lines must be >= 0, got %d", c.Lines),
		})
	case c.Lines == 0:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "lines",
			Message:  "lines is 0; output will contain only the header",
		})
	case c.Lines == 1 && !c.NoTotal:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "lines",
			Message:  "lines is 1; output will contain only the header and the totals row",
		})
	}

	if _, err := c.Divisor(); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "divide",
			Message:  err.Error(),
			Err:      err,
		})
	}

	if _, err := c.TiePolicy(); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "ties",
			Message:  err.Error(),
			Err:      err,
		})
	}

	if _, err := file.LookupEncoding(c.Encoding); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "encoding",
			Message:  err.Error(),
			Err:      err,
		})
	}
	return issues
}

func validateHTTP(h HTTP) []Issue {
	var issues []Issue
	if _, err := h.TimeoutDuration(); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "http.timeout",
			Message:  err.Error(),
			Err:      err,
		})
	}
	if h.MaxRetries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "http.max_retries",
			Message:  fmt.Sprintf("max_retries must be >= 0, got %d", h.MaxRetries),
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch strings.ToLower(strings.TrimSpace(m.Backend)) {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend requires a gateway URL",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.StatsdAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.statsd_addr",
				Message:  "datadog backend requires a DogStatsD address",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q (use none, pushgateway or datadog)", m.Backend),
		})
	}
	return issues
}

func validateHistory(h History) []Issue {
	var issues []Issue

	kind := strings.TrimSpace(h.Kind)
	if kind == "" {
		return nil
	}
	if _, ok := knownHistoryKinds[kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "history.kind",
			Message:  fmt.Sprintf("unknown history kind %q; ensure a matching implementation is registered", kind),
		})
	}
	if strings.TrimSpace(h.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "history.dsn",
			Message:  "history store requires a DSN",
		})
	}
	if strings.TrimSpace(h.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "history.table",
			Message:  "history store requires a table name",
		})
	}
	return issues
}

// Check returns *MissingInputError when no input is configured, otherwise
// the error-severity issues of Validate joined into one error (nil if none).
func Check(c Config) error {
	if strings.TrimSpace(c.Input) == "" {
		return &MissingInputError{}
	}
	var errs []error
	for _, iss := range Validate(c) {
		if iss.Severity == SeverityError {
			errs = append(errs, iss)
		}
	}
	return errors.Join(errs...)
}

// Warnings filters the warning-severity issues of Validate.
func Warnings(c Config) []Issue {
	var out []Issue
	for _, iss := range Validate(c) {
		if iss.Severity == SeverityWarning {
			out = append(out, iss)
		}
	}
	return out
}
