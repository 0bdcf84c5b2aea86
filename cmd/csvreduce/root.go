package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"csvreduce/internal/config"
)

// flags holds raw command-line values. Only flags the user actually set
// override the file and environment layers.
type flags struct {
	configPath string
	input      string
	lines      int
	noTotal    bool
	divide     string
	ties       string
	encoding   string
	job        string

	metricsBackend string
	pushgatewayURL string
	statsdAddr     string

	historyKind  string
	historyDSN   string
	historyTable string

	stats    bool
	watch    bool
	validate bool
	verbose  bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "csvreduce",
		Short: "Keep the top rows of a CSV file ranked by its last column",
		Long: `csvreduce streams a CSV file once and writes its header, an optional
TOTALS row with per-column sums, and the rows with the largest value in the
last column, largest first. Numbers are exact decimals; --divide rescales
every numeric output cell.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(stderr)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd.Flags(), f, os.Getenv)
			if err != nil {
				return err
			}

			for _, iss := range config.Warnings(cfg) {
				fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
			}
			if err := config.Check(cfg); err != nil {
				return err
			}
			if f.validate {
				log.Printf("configuration is valid")
				return nil
			}

			flush := setupMetrics(cfg, f.verbose)
			defer flush()

			app := &app{cfg: cfg, stdout: stdout, stderr: stderr, stats: f.stats, verbose: f.verbose}
			if f.watch {
				return app.watch(cmd.Context())
			}
			return app.runOnce(cmd.Context())
		},
	}

	bindFlags(cmd.Flags(), &f)
	return cmd
}

// bindFlags defines every command-line flag on fs, storing values in f.
func bindFlags(fs *pflag.FlagSet, f *flags) {
	fs.StringVarP(&f.input, "input", "i", "", "input CSV path (- for stdin)")
	fs.IntVarP(&f.lines, "lines", "l", config.DefaultLines, "output data lines, totals row included")
	fs.BoolVarP(&f.noTotal, "no_total", "T", false, "do not emit the TOTALS row")
	fs.StringVarP(&f.divide, "divide", "d", "", "divide every numeric output cell by this exact decimal")
	fs.StringVar(&f.ties, "ties", "keep-first", "equal ranks at the cut: keep-first or keep-last")
	fs.StringVar(&f.encoding, "encoding", "utf-8", "input character set (e.g. windows-1250)")
	fs.StringVar(&f.job, "job", "", "job name for metrics and history")
	fs.StringVar(&f.configPath, "config", "", "optional JSON config file")

	fs.StringVar(&f.metricsBackend, "metrics-backend", "", "metrics backend: none, pushgateway or datadog (overrides env CSVREDUCE_METRICS_BACKEND)")
	fs.StringVar(&f.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL")
	fs.StringVar(&f.statsdAddr, "statsd-addr", "", "DogStatsD address, e.g. 127.0.0.1:8125")

	fs.StringVar(&f.historyKind, "history-kind", "", "run-history store: sqlite, postgres, mysql or mssql")
	fs.StringVar(&f.historyDSN, "history-dsn", "", "run-history connection string")
	fs.StringVar(&f.historyTable, "history-table", "", "run-history table (default csvreduce_runs)")

	fs.BoolVar(&f.stats, "stats", false, "print a run summary table to stderr")
	fs.BoolVar(&f.watch, "watch", false, "re-run whenever the input file is rewritten")
	fs.BoolVar(&f.validate, "validate", false, "validate the configuration and exit")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "enable verbose logs")
}

// resolveConfig layers defaults, the optional config file, CSVREDUCE_*
// environment variables and finally the flags that were set explicitly.
func resolveConfig(fs *pflag.FlagSet, f flags, getenv func(string) string) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return cfg, err
	}

	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("input", func() { cfg.Input = f.input })
	set("lines", func() { cfg.Lines = f.lines })
	set("no_total", func() { cfg.NoTotal = f.noTotal })
	set("divide", func() { cfg.Divide = json.Number(f.divide) })
	set("ties", func() { cfg.Ties = f.ties })
	set("encoding", func() { cfg.Encoding = f.encoding })
	set("job", func() { cfg.Job = f.job })
	set("metrics-backend", func() { cfg.Metrics.Backend = f.metricsBackend })
	set("pushgateway-url", func() { cfg.Metrics.PushgatewayURL = f.pushgatewayURL })
	set("statsd-addr", func() { cfg.Metrics.StatsdAddr = f.statsdAddr })
	set("history-kind", func() { cfg.History.Kind = f.historyKind })
	set("history-dsn", func() { cfg.History.DSN = f.historyDSN })
	set("history-table", func() { cfg.History.Table = f.historyTable })
	return cfg, nil
}
