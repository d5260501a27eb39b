// Package cli holds the start-up plumbing shared by the commands: config
// validation output, metrics backend selection and the skipped-row log.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"ghtdump/internal/config"
	"ghtdump/internal/metrics"
	"ghtdump/internal/metrics/datadog"
	"ghtdump/internal/metrics/prompush"
	"ghtdump/internal/skiplog"
)

// ErrInvalidConfig is returned by CheckConfig when any issue is an error.
var ErrInvalidConfig = errors.New("invalid configuration")

// CheckConfig validates cfg and prints every issue to w.
func CheckConfig(w io.Writer, cfg *config.Config) error {
	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return ErrInvalidConfig
	}
	return nil
}

// StartMetrics installs the backend cfg asks for and returns the function
// that flushes it. A backend that fails to start leaves metrics disabled.
func StartMetrics(cfg *config.Config) (flush func()) {
	var (
		b   metrics.Backend
		err error
	)
	switch cfg.MetricsBackend {
	case "pushgateway":
		b, err = prompush.NewBackend(cfg.Job, cfg.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       cfg.DatadogAddr,
			Namespace:  "ghtdump",
			GlobalTags: []string{"job:" + cfg.Job},
		})
	default:
		return func() {}
	}
	if err != nil {
		log.Printf("metrics: failed to init %s backend: %v; using nop", cfg.MetricsBackend, err)
		return func() {}
	}

	log.Printf("metrics: backend=%s job=%s", cfg.MetricsBackend, cfg.Job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}

// OpenSkipLog opens <SkippedDir>/<job>_skipped.csv. It returns a nil Log,
// which discards, when SkippedDir is empty.
func OpenSkipLog(cfg *config.Config) (*skiplog.Log, error) {
	if cfg.SkippedDir == "" {
		return nil, nil
	}
	path := filepath.Join(cfg.SkippedDir, cfg.Job+"_skipped.csv")
	l, err := skiplog.Open(path)
	if err != nil {
		return nil, fmt.Errorf("skip log: %w", err)
	}
	log.Printf("skiplog: path=%s", path)
	return l, nil
}

// CloseSkipLog closes l and logs its per-reason summary.
func CloseSkipLog(l *skiplog.Log) {
	if l == nil {
		return
	}
	if s := l.Summary(); s != "" {
		log.Printf("skiplog: %s", s)
	}
	if err := l.Close(); err != nil {
		log.Printf("skiplog: %v", err)
	}
}
