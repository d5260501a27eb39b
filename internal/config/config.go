// Package config gathers the tunables of the ghtdump commands. Every knob is
// a flag whose default is seeded from a GHT_* environment variable, so the
// tools work both interactively and from job schedulers.
//
// Commands register only the flag groups they use:
//
//	cfg, err := config.LoadFromArgs(fs, os.Getenv, os.Args[1:], config.GroupDialect, config.GroupFilter)
package config

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ghtdump/internal/parser/csv"
)

// Group selects a set of related flags.
type Group uint8

const (
	// GroupDialect: quote, separator, header handling, progress cadence.
	GroupDialect Group = iota
	// GroupFilter: dump directories and project selection.
	GroupFilter
	// GroupLoad: input location and database target.
	GroupLoad
	// GroupMetrics: metrics backend selection.
	GroupMetrics
)

// Config holds the parsed configuration. Fields of groups that were not
// registered keep their zero value.
type Config struct {
	Job        string // label for logs and metrics
	SkippedDir string // directory for skipped-row logs; empty disables them

	// Dialect.
	Quote            string
	Separator        string
	HasHeader        bool
	NoEmbeddedQuotes bool
	ProgressEvery    int
	MaxQuoteLines    int

	// Filter.
	InputDir      string
	OutputDir     string
	Languages     string // comma-separated
	LanguagesFile string
	First         int
	MinCommits    int
	Sample        int
	PerLanguage   bool
	Seed          uint64
	Watchers      bool

	// Load.
	Input       string
	URL         string
	Table       string
	DBDriver    string
	DSN         string
	BatchSize   int
	CreateTable bool
	HTTPTimeout time.Duration
	HTTPRetries int
	Types       string // column:type pairs, e.g. "id:int,created_at:timestamp"
	Normalize   bool
	DedupKey    string // comma-separated key columns; empty disables

	// Metrics.
	MetricsBackend string // none, pushgateway, datadog
	PushgatewayURL string
	DatadogAddr    string

	groups map[Group]bool
}

// LoadFromArgs defines the flags of the requested groups on fs, seeds their
// defaults through getenv and parses args. Environment values lose to
// explicit flags.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string, groups ...Group) (*Config, error) {
	cfg := &Config{groups: make(map[Group]bool, len(groups))}
	env := envReader(getenv)

	fs.StringVar(&cfg.Job, "job", env.str("GHT_JOB", filepath.Base(fs.Name())), "Job name used in logs and metrics")
	fs.StringVar(&cfg.SkippedDir, "skipped_dir", env.str("GHT_SKIPPED_DIR", ""), "Directory for skipped-row CSV logs (empty disables)")

	for _, g := range groups {
		if cfg.groups[g] {
			continue
		}
		cfg.groups[g] = true

		switch g {
		case GroupDialect:
			fs.StringVar(&cfg.Quote, "quote", env.str("GHT_QUOTE", `"`), "Quote character")
			fs.StringVar(&cfg.Separator, "sep", env.str("GHT_SEPARATOR", ","), "Field separator")
			fs.BoolVar(&cfg.HasHeader, "header", env.boolean("GHT_HEADER", false), "Discard the first row as a header")
			fs.BoolVar(&cfg.NoEmbeddedQuotes, "no_embedded_quotes", env.boolean("GHT_NO_EMBEDDED_QUOTES", false), "Treat quotes inside unquoted fields as plain characters")
			fs.IntVar(&cfg.ProgressEvery, "progress_every", env.integer("GHT_PROGRESS_EVERY", 1000000), "Log progress every N lines")
			fs.IntVar(&cfg.MaxQuoteLines, "max_quote_lines", env.integer("GHT_MAX_QUOTE_LINES", 0), "Give up on a quoted field after N continuation lines (0: no limit)")

		case GroupFilter:
			fs.StringVar(&cfg.InputDir, "input", env.str("GHT_INPUT_DIR", ""), "Directory with the GHTorrent CSV dump")
			fs.StringVar(&cfg.OutputDir, "output", env.str("GHT_OUTPUT_DIR", ""), "Directory for the filtered dump")
			fs.StringVar(&cfg.Languages, "lang", env.str("GHT_LANGUAGES", ""), "Comma-separated project languages to keep")
			fs.StringVar(&cfg.LanguagesFile, "languages_file", env.str("GHT_LANGUAGES_FILE", ""), "File listing project languages to keep")
			fs.IntVar(&cfg.First, "first", env.integer("GHT_FIRST", 0), "Keep the first N projects instead of filtering by language")
			fs.IntVar(&cfg.MinCommits, "min_commits", env.integer("GHT_MIN_COMMITS", 0), "Drop projects with fewer commits")
			fs.IntVar(&cfg.Sample, "sample", env.integer("GHT_SAMPLE", 0), "Randomly keep N projects (0 keeps all)")
			fs.BoolVar(&cfg.PerLanguage, "per_language", env.boolean("GHT_PER_LANGUAGE", false), "Apply -sample per language")
			fs.Uint64Var(&cfg.Seed, "seed", env.uint64("GHT_SEED", 0), "Sampling seed")
			fs.BoolVar(&cfg.Watchers, "watchers", env.boolean("GHT_WATCHERS", false), "Also filter watchers.csv and keep watching users")

		case GroupLoad:
			fs.StringVar(&cfg.Input, "in", env.str("GHT_INPUT", ""), "CSV file to read (may be .gz, .zst or .xz)")
			fs.StringVar(&cfg.URL, "url", env.str("GHT_URL", ""), "HTTP(S) URL to read instead of -in")
			fs.StringVar(&cfg.Table, "table", env.str("GHT_TABLE", ""), "Destination table")
			fs.StringVar(&cfg.DBDriver, "db_driver", env.str("GHT_DB_DRIVER", "sqlite"), "Database: sqlite, postgres, mssql or mysql")
			fs.StringVar(&cfg.DSN, "dsn", env.str("GHT_DB_DSN", ""), "Database DSN")
			fs.IntVar(&cfg.BatchSize, "batch_size", env.integer("GHT_BATCH_SIZE", 5000), "Rows per bulk copy")
			fs.BoolVar(&cfg.CreateTable, "create_table", env.boolean("GHT_CREATE_TABLE", true), "Create the table from the header when missing")
			fs.DurationVar(&cfg.HTTPTimeout, "http_timeout", env.duration("GHT_HTTP_TIMEOUT", 0), "Overall HTTP timeout (0 disables)")
			fs.IntVar(&cfg.HTTPRetries, "http_retries", env.integer("GHT_HTTP_RETRIES", 3), "HTTP retries on transient failures")
			fs.StringVar(&cfg.Types, "types", env.str("GHT_TYPES", ""), "Column types, e.g. id:int,fake:bool,created_at:timestamp")
			fs.BoolVar(&cfg.Normalize, "normalize", env.boolean("GHT_NORMALIZE", false), "Trim text fields and normalize them to Unicode NFC")
			fs.StringVar(&cfg.DedupKey, "dedup_key", env.str("GHT_DEDUP_KEY", ""), "Comma-separated columns; later rows with a seen key are skipped")

		case GroupMetrics:
			fs.StringVar(&cfg.MetricsBackend, "metrics_backend", env.str("GHT_METRICS_BACKEND", "none"), "Metrics backend: none, pushgateway or datadog")
			fs.StringVar(&cfg.PushgatewayURL, "pushgateway_url", env.str("GHT_PUSHGATEWAY_URL", ""), "Prometheus Pushgateway URL")
			fs.StringVar(&cfg.DatadogAddr, "datadog_addr", env.str("GHT_DATADOG_ADDR", "127.0.0.1:8125"), "DogStatsD address")
		}
	}

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load parses os.Args against flag.CommandLine with the process environment.
// flag.CommandLine exits on parse errors.
func Load(groups ...Group) *Config {
	cfg, _ := LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:], groups...)
	return cfg
}

// Has reports whether g was registered.
func (c *Config) Has(g Group) bool { return c.groups[g] }

// CSVOptions maps the dialect flags onto parser options. Callbacks are left
// for the caller to install.
func (c *Config) CSVOptions() csv.Options {
	opt := csv.Options{
		HasHeader:        c.HasHeader,
		NoEmbeddedQuotes: c.NoEmbeddedQuotes,
		ProgressEvery:    c.ProgressEvery,
		MaxQuoteLines:    c.MaxQuoteLines,
	}
	if len(c.Quote) == 1 {
		opt.Quote = c.Quote[0]
	}
	if len(c.Separator) == 1 {
		opt.Separator = c.Separator[0]
	}
	if c.Separator == `\t` {
		opt.Separator = '\t'
	}
	return opt
}

// LanguageList splits -lang on commas, dropping blanks.
func (c *Config) LanguageList() []string { return splitList(c.Languages) }

// DedupColumns splits -dedup_key on commas, dropping blanks.
func (c *Config) DedupColumns() []string { return splitList(c.DedupKey) }

func splitList(s string) []string {
	var out []string
	for _, l := range strings.Split(s, ",") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

type envReader func(string) string

func (e envReader) str(k, d string) string {
	if v := e(k); v != "" {
		return v
	}
	return d
}

func (e envReader) integer(k string, d int) int {
	if v := e(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return d
}

func (e envReader) uint64(k string, d uint64) uint64 {
	if v := e(k); v != "" {
		if i, err := strconv.ParseUint(v, 10, 64); err == nil {
			return i
		}
	}
	return d
}

func (e envReader) duration(k string, d time.Duration) time.Duration {
	if v := e(k); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			return dur
		}
	}
	return d
}

func (e envReader) boolean(k string, d bool) bool {
	switch strings.ToLower(e(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}
