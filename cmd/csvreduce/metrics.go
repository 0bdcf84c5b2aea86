package main

import (
	"log"
	"strings"

	"csvreduce/internal/config"
	"csvreduce/internal/metrics"
	"csvreduce/internal/metrics/datadog"
	"csvreduce/internal/metrics/prompush"
)

// setupMetrics installs the configured backend and returns the function that
// flushes it at exit. A backend that fails to initialize leaves the nop
// backend in place.
func setupMetrics(cfg config.Config, verbose bool) (flush func()) {
	flush = func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}

	name := strings.ToLower(strings.TrimSpace(cfg.Metrics.Backend))
	switch name {
	case "pushgateway":
		b, err := prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return func() {}
		}
		if verbose {
			log.Printf("metrics: url=%v, backend=%v, job_name=%v", cfg.Metrics.PushgatewayURL, name, cfg.Job)
		}
		metrics.SetBackend(b)
		return flush

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.Metrics.StatsdAddr,
			GlobalTags: []string{"service:csvreduce"},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return func() {}
		}
		if verbose {
			log.Printf("metrics: addr=%v, backend=%v", cfg.Metrics.StatsdAddr, name)
		}
		metrics.SetBackend(b)
		return flush

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", name)
		}
		return func() {}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", name)
		return func() {}
	}
}
