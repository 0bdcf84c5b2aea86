// Package config defines the JSON-serializable configuration of a reduction
// run. Values are resolved in layers: Default, then an optional JSON file
// (Load), then CSVREDUCE_* environment variables (ApplyEnv), then command-line
// flags applied by the caller.
//
// Example:
//
//	{
//	  "job":      "daily-sales",
//	  "input":    "sales.csv",
//	  "lines":    25,
//	  "divide":   "1000",
//	  "ties":     "keep-first",
//	  "http":     { "timeout": "30s", "max_retries": 3 },
//	  "metrics":  { "backend": "pushgateway", "pushgateway_url": "http://pg:9091" },
//	  "history":  { "kind": "sqlite", "dsn": "file:runs.db", "table": "csvreduce_runs" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"csvreduce/internal/decimal"
	"csvreduce/internal/topk"
)

// DefaultLines is the output line budget when nothing else sets it.
const DefaultLines = 25

// Config describes one reduction run.
type Config struct {
	// Job labels metrics and history rows.
	Job string `json:"job"`

	// Input is the path of the CSV file; "-" reads stdin.
	Input string `json:"input"`

	// Lines is the number of output data lines, totals row included.
	Lines int `json:"lines"`

	// NoTotal suppresses the totals row.
	NoTotal bool `json:"no_total"`

	// Divide is an exact decimal divisor applied to every output numeric cell.
	// It accepts a JSON number or string; empty means no rescaling.
	Divide json.Number `json:"divide,omitempty"`

	// Ties is "keep-first" (default) or "keep-last".
	Ties string `json:"ties"`

	// Encoding names the input character set (WHATWG label, e.g. "windows-1250").
	Encoding string `json:"encoding"`

	HTTP    HTTP    `json:"http"`
	Metrics Metrics `json:"metrics"`
	History History `json:"history"`
}

// HTTP tunes fetching when Input is an http:// or https:// URL.
type HTTP struct {
	// Timeout bounds the wait for response headers (Go duration, e.g. "30s").
	// The body itself streams without a deadline.
	Timeout string `json:"timeout"`

	// MaxRetries is the number of retries after the first attempt on network
	// errors, 429 and 5xx.
	MaxRetries int `json:"max_retries"`

	InsecureSkipVerify bool `json:"insecure_skip_verify"`
}

// TimeoutDuration parses Timeout; empty yields 0 (client default).
func (h HTTP) TimeoutDuration() (time.Duration, error) {
	s := strings.TrimSpace(h.Timeout)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("http.timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("http.timeout: must be >= 0, got %s", s)
	}
	return d, nil
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "none" (default), "pushgateway" or "datadog".
	Backend        string `json:"backend"`
	PushgatewayURL string `json:"pushgateway_url"`
	StatsdAddr     string `json:"statsd_addr"`
}

// History configures the optional run-history store.
type History struct {
	// Kind selects the storage implementation: sqlite, postgres, mysql, mssql.
	// Empty disables history.
	Kind string `json:"kind"`

	// DSN is the driver-specific connection string.
	DSN string `json:"dsn"`

	// Table receives one row per run.
	Table string `json:"table"`

	// Options carries backend-specific settings such as max_conns.
	Options Options `json:"options"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Job:      "csvreduce",
		Lines:    DefaultLines,
		Ties:     topk.KeepFirst.String(),
		Encoding: "utf-8",
		HTTP:     HTTP{Timeout: "30s", MaxRetries: 3},
		Metrics:  Metrics{Backend: "none"},
		History:  History{Table: "csvreduce_runs", Options: Options{}},
	}
}

// Load reads a JSON config file on top of Default. Unknown fields are an error
// so typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays CSVREDUCE_* variables read through getenv (os.Getenv in
// production). Unset or empty variables leave the value alone.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	str("CSVREDUCE_JOB", &c.Job)
	str("CSVREDUCE_INPUT", &c.Input)
	str("CSVREDUCE_TIES", &c.Ties)
	str("CSVREDUCE_ENCODING", &c.Encoding)
	str("CSVREDUCE_METRICS_BACKEND", &c.Metrics.Backend)
	str("CSVREDUCE_PUSHGATEWAY_URL", &c.Metrics.PushgatewayURL)
	str("CSVREDUCE_STATSD_ADDR", &c.Metrics.StatsdAddr)
	str("CSVREDUCE_HISTORY_KIND", &c.History.Kind)
	str("CSVREDUCE_HISTORY_DSN", &c.History.DSN)
	str("CSVREDUCE_HISTORY_TABLE", &c.History.Table)
	str("CSVREDUCE_HTTP_TIMEOUT", &c.HTTP.Timeout)

	if v := strings.TrimSpace(getenv("CSVREDUCE_DIVIDE")); v != "" {
		c.Divide = json.Number(v)
	}
	if v := strings.TrimSpace(getenv("CSVREDUCE_LINES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: CSVREDUCE_LINES: %w", err)
		}
		c.Lines = n
	}
	if v := strings.TrimSpace(getenv("CSVREDUCE_HTTP_MAX_RETRIES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: CSVREDUCE_HTTP_MAX_RETRIES: %w", err)
		}
		c.HTTP.MaxRetries = n
	}
	if v := strings.TrimSpace(getenv("CSVREDUCE_NO_TOTAL")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: CSVREDUCE_NO_TOTAL: %w", err)
		}
		c.NoTotal = b
	}
	return nil
}

// K is the selector capacity: Lines minus the totals slot, never negative.
func (c Config) K() int {
	k := c.Lines
	if !c.NoTotal {
		k--
	}
	if k < 0 {
		return 0
	}
	return k
}

// Divisor parses Divide. It returns nil when no divisor is configured and
// wraps decimal.ErrDivisionByZero for a zero divisor.
func (c Config) Divisor() (*decimal.Decimal, error) {
	s := strings.TrimSpace(c.Divide.String())
	if s == "" {
		return nil, nil
	}
	d, err := decimal.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("divide: %w", err)
	}
	if d.IsZero() {
		return nil, fmt.Errorf("divide: %w", decimal.ErrDivisionByZero)
	}
	return &d, nil
}

// TiePolicy parses Ties; empty means keep-first.
func (c Config) TiePolicy() (topk.TiePolicy, error) {
	if strings.TrimSpace(c.Ties) == "" {
		return topk.KeepFirst, nil
	}
	return topk.ParseTiePolicy(c.Ties)
}

// MissingInputError reports a run started without an input path.
type MissingInputError struct{}

func (*MissingInputError) Error() string {
	return "missing required input: pass --input <path> (or - for stdin)"
}

// Options is a small helper to fetch typed values from arbitrary JSON maps.
// It performs only minimal type coercion and returns the provided default
// when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// UnmarshalJSON makes a missing or null "options" object decode to a non-nil,
// empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
