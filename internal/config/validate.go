package config

import (
	"fmt"
	"strings"

	"ghtdump/internal/transformer"
)

// IssueSeverity grades a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is one validation finding. Path names the flag it concerns.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks the registered groups of cfg and returns every finding.
func Validate(cfg *Config) []Issue {
	var issues []Issue
	if strings.TrimSpace(cfg.Job) == "" {
		issues = append(issues, errorf("job", "must not be empty; it labels logs and metrics"))
	}
	if cfg.Has(GroupDialect) {
		issues = append(issues, validateDialect(cfg)...)
	}
	if cfg.Has(GroupFilter) {
		issues = append(issues, validateFilter(cfg)...)
	}
	if cfg.Has(GroupLoad) {
		issues = append(issues, validateLoad(cfg)...)
	}
	if cfg.Has(GroupMetrics) {
		issues = append(issues, validateMetrics(cfg)...)
	}
	return issues
}

func validateDialect(cfg *Config) []Issue {
	var issues []Issue
	if len(cfg.Quote) != 1 {
		issues = append(issues, errorf("quote", "must be a single byte, got %q", cfg.Quote))
	}
	if len(cfg.Separator) != 1 && cfg.Separator != `\t` {
		issues = append(issues, errorf("sep", "must be a single byte or \\t, got %q", cfg.Separator))
	}
	if cfg.Quote == cfg.Separator {
		issues = append(issues, errorf("sep", "must differ from quote"))
	}
	if cfg.Quote == `\` || cfg.Separator == `\` {
		issues = append(issues, errorf("quote", `'\' is reserved for escapes`))
	}
	if cfg.MaxQuoteLines < 0 {
		issues = append(issues, errorf("max_quote_lines", "must not be negative"))
	}
	if cfg.ProgressEvery <= 0 {
		issues = append(issues, warnf("progress_every", "non-positive value falls back to the parser default"))
	}
	return issues
}

func validateFilter(cfg *Config) []Issue {
	var issues []Issue
	if cfg.InputDir == "" {
		issues = append(issues, errorf("input", "is required"))
	}
	if cfg.OutputDir == "" {
		issues = append(issues, errorf("output", "is required"))
	}
	if cfg.InputDir != "" && cfg.InputDir == cfg.OutputDir {
		issues = append(issues, errorf("output", "must differ from input; filtered files would overwrite the dump"))
	}

	byLang := cfg.Languages != "" || cfg.LanguagesFile != ""
	switch {
	case cfg.First < 0:
		issues = append(issues, errorf("first", "must not be negative"))
	case cfg.First > 0 && byLang:
		issues = append(issues, errorf("first", "cannot be combined with -lang or -languages_file"))
	case cfg.First == 0 && !byLang:
		issues = append(issues, errorf("lang", "one of -first, -lang or -languages_file is required"))
	}

	if cfg.MinCommits < 0 {
		issues = append(issues, errorf("min_commits", "must not be negative"))
	}
	if cfg.Sample < 0 {
		issues = append(issues, errorf("sample", "must not be negative"))
	}
	if cfg.PerLanguage && cfg.Sample == 0 {
		issues = append(issues, warnf("per_language", "has no effect without -sample"))
	}
	if cfg.PerLanguage && !byLang {
		issues = append(issues, errorf("per_language", "requires -lang or -languages_file"))
	}
	return issues
}

var knownDrivers = map[string]bool{"sqlite": true, "postgres": true, "mssql": true, "mysql": true}

func validateLoad(cfg *Config) []Issue {
	var issues []Issue
	switch {
	case cfg.Input == "" && cfg.URL == "":
		issues = append(issues, errorf("in", "one of -in or -url is required"))
	case cfg.Input != "" && cfg.URL != "":
		issues = append(issues, errorf("url", "cannot be combined with -in"))
	}
	if cfg.URL != "" && !strings.HasPrefix(cfg.URL, "http://") && !strings.HasPrefix(cfg.URL, "https://") {
		issues = append(issues, errorf("url", "must be an http or https URL"))
	}
	if !knownDrivers[cfg.DBDriver] {
		issues = append(issues, errorf("db_driver", "unknown driver %q", cfg.DBDriver))
	}
	if cfg.DSN == "" {
		issues = append(issues, errorf("dsn", "is required"))
	}
	if cfg.Table == "" {
		issues = append(issues, errorf("table", "is required"))
	}
	if cfg.BatchSize <= 0 {
		issues = append(issues, errorf("batch_size", "must be positive"))
	} else if cfg.BatchSize > 100000 {
		issues = append(issues, warnf("batch_size", "very large batches (%d) hold many rows in memory", cfg.BatchSize))
	}
	if cfg.HTTPRetries < 0 {
		issues = append(issues, errorf("http_retries", "must not be negative"))
	}
	if _, err := transformer.ParseTypes(cfg.Types); err != nil {
		issues = append(issues, errorf("types", "%v", err))
	}
	return issues
}

func validateMetrics(cfg *Config) []Issue {
	switch cfg.MetricsBackend {
	case "", "none":
	case "pushgateway":
		if cfg.PushgatewayURL == "" {
			return []Issue{errorf("pushgateway_url", "is required for the pushgateway backend")}
		}
	case "datadog":
		if cfg.DatadogAddr == "" {
			return []Issue{errorf("datadog_addr", "is required for the datadog backend")}
		}
	default:
		return []Issue{errorf("metrics_backend", "unknown backend %q", cfg.MetricsBackend)}
	}
	return nil
}

func errorf(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)}
}

func warnf(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)}
}
