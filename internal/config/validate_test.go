package config

import (
	"errors"
	"strings"
	"testing"

	"csvreduce/internal/decimal"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validConfig() Config {
	c := Default()
	c.Input = "in.csv"
	return c
}

func TestValidate_DefaultsAreClean(t *testing.T) {
	t.Parallel()

	if issues := Validate(validConfig()); len(issues) != 0 {
		t.Fatalf("Validate(default) = %+v; want none", issues)
	}
	if err := Check(validConfig()); err != nil {
		t.Fatalf("Check(default) = %v", err)
	}
}

func TestValidate_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		sev    IssueSeverity
		path   string
		substr string
	}{
		{"negative lines", func(c *Config) { c.Lines = -1 }, SeverityError, "lines", ">= 0"},
		{"zero lines", func(c *Config) { c.Lines = 0 }, SeverityWarning, "lines", "only the header"},
		{"only totals", func(c *Config) { c.Lines = 1 }, SeverityWarning, "lines", "totals row"},
		{"zero divide", func(c *Config) { c.Divide = "0" }, SeverityError, "divide", "division by zero"},
		{"bad divide", func(c *Config) { c.Divide = "1e2" }, SeverityError, "divide", "invalid numeral"},
		{"bad ties", func(c *Config) { c.Ties = "random" }, SeverityError, "ties", "unknown tie policy"},
		{"bad encoding", func(c *Config) { c.Encoding = "klingon" }, SeverityError, "encoding", "klingon"},
		{"empty job", func(c *Config) { c.Job = " " }, SeverityWarning, "job", "job is empty"},
		{"bad http timeout", func(c *Config) { c.HTTP.Timeout = "soon" }, SeverityError, "http.timeout", "http.timeout"},
		{"negative http timeout", func(c *Config) { c.HTTP.Timeout = "-1s" }, SeverityError, "http.timeout", ">= 0"},
		{"negative retries", func(c *Config) { c.HTTP.MaxRetries = -1 }, SeverityError, "http.max_retries", ">= 0"},
		{"unknown metrics", func(c *Config) { c.Metrics.Backend = "graphite" }, SeverityError, "metrics.backend", "graphite"},
		{"pushgateway url", func(c *Config) { c.Metrics.Backend = "pushgateway" }, SeverityError, "metrics.pushgateway_url", "gateway URL"},
		{"statsd addr", func(c *Config) { c.Metrics.Backend = "datadog" }, SeverityError, "metrics.statsd_addr", "DogStatsD"},
		{"history dsn", func(c *Config) { c.History.Kind = "sqlite" }, SeverityError, "history.dsn", "DSN"},
		{"history table", func(c *Config) {
			c.History = History{Kind: "postgres", DSN: "postgres://x"}
		}, SeverityError, "history.table", "table"},
		{"history unknown kind", func(c *Config) {
			c.History = History{Kind: "oracle", DSN: "x", Table: "t"}
		}, SeverityWarning, "history.kind", "oracle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			issues := Validate(c)
			if !hasIssue(t, issues, tt.sev, tt.path, tt.substr) {
				t.Fatalf("expected %s at %s containing %q; got %+v", tt.sev, tt.path, tt.substr, issues)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()

	var mi *MissingInputError
	if err := Check(Default()); !errors.As(err, &mi) {
		t.Fatalf("Check(no input) = %v; want *MissingInputError", err)
	}

	c := validConfig()
	c.Divide = "0"
	c.Lines = -3
	err := Check(c)
	if !errors.Is(err, decimal.ErrDivisionByZero) {
		t.Fatalf("Check = %v; want ErrDivisionByZero in chain", err)
	}
	if !strings.Contains(err.Error(), "lines") {
		t.Fatalf("Check = %v; want lines issue joined", err)
	}

	w := validConfig()
	w.Lines = 0
	if err := Check(w); err != nil {
		t.Fatalf("warnings must not fail Check: %v", err)
	}
	if got := Warnings(w); len(got) != 1 || got[0].Path != "lines" {
		t.Fatalf("Warnings = %+v", got)
	}
}
