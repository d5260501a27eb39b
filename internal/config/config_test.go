package config

import (
	"flag"
	"io"
	"testing"
	"time"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("ghtfilter", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestLoadFromArgs_EnvDefaultsAndFlags(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"GHT_INPUT_DIR":  "/dump",
		"GHT_OUTPUT_DIR": "/out",
		"GHT_SAMPLE":     "50",
		"GHT_WATCHERS":   "yes",
		"GHT_SEED":       "42",
		"GHT_FIRST":      "not-a-number",
	}
	getenv := func(k string) string { return env[k] }

	cfg, err := LoadFromArgs(newFlagSet(), getenv, []string{"-sample=7", "-lang=Go,Java"}, GroupFilter)
	if err != nil {
		t.Fatalf("LoadFromArgs: %v", err)
	}
	if cfg.InputDir != "/dump" || cfg.OutputDir != "/out" {
		t.Errorf("dirs = %q, %q; want env values", cfg.InputDir, cfg.OutputDir)
	}
	if cfg.Sample != 7 {
		t.Errorf("Sample = %d, want flag override 7", cfg.Sample)
	}
	if !cfg.Watchers || cfg.Seed != 42 {
		t.Errorf("Watchers = %v, Seed = %d; want true, 42", cfg.Watchers, cfg.Seed)
	}
	if cfg.First != 0 {
		t.Errorf("First = %d, want default 0 for unparsable env", cfg.First)
	}
	if got := cfg.LanguageList(); len(got) != 2 || got[0] != "Go" || got[1] != "Java" {
		t.Errorf("LanguageList = %q", got)
	}
	if cfg.Job != "ghtfilter" {
		t.Errorf("Job = %q, want flag set name", cfg.Job)
	}
	if cfg.Has(GroupLoad) || !cfg.Has(GroupFilter) {
		t.Errorf("groups = %v", cfg.groups)
	}
}

func TestLoadFromArgs_UnregisteredGroupFlagFails(t *testing.T) {
	t.Parallel()

	_, err := LoadFromArgs(newFlagSet(), func(string) string { return "" }, []string{"-dsn=x"}, GroupFilter)
	if err == nil {
		t.Fatal("expected error for flag of an unregistered group")
	}
}

func TestLoadFromArgs_LoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromArgs(newFlagSet(), func(string) string { return "" }, nil, GroupLoad, GroupDialect, GroupLoad)
	if err != nil {
		t.Fatalf("LoadFromArgs: %v", err)
	}
	if cfg.DBDriver != "sqlite" || cfg.BatchSize != 5000 || !cfg.CreateTable {
		t.Errorf("load defaults = %+v", cfg)
	}
	if cfg.HTTPTimeout != 0 || cfg.HTTPRetries != 3 {
		t.Errorf("http defaults = %v, %d", cfg.HTTPTimeout, cfg.HTTPRetries)
	}
	if cfg.Quote != `"` || cfg.Separator != "," {
		t.Errorf("dialect defaults = %q %q", cfg.Quote, cfg.Separator)
	}
	if cfg.Normalize || cfg.DedupColumns() != nil {
		t.Errorf("transform defaults = %v %q", cfg.Normalize, cfg.DedupColumns())
	}
}

func TestLoadFromArgs_Duration(t *testing.T) {
	t.Parallel()

	getenv := func(k string) string {
		if k == "GHT_HTTP_TIMEOUT" {
			return "90s"
		}
		return ""
	}
	cfg, err := LoadFromArgs(newFlagSet(), getenv, nil, GroupLoad)
	if err != nil {
		t.Fatalf("LoadFromArgs: %v", err)
	}
	if cfg.HTTPTimeout != 90*time.Second {
		t.Fatalf("HTTPTimeout = %v, want 90s", cfg.HTTPTimeout)
	}
}

func TestCSVOptions(t *testing.T) {
	t.Parallel()

	cfg := &Config{Quote: "'", Separator: `\t`, HasHeader: true, ProgressEvery: 10, MaxQuoteLines: 50}
	opt := cfg.CSVOptions()
	if opt.Quote != '\'' || opt.Separator != '\t' || !opt.HasHeader || opt.ProgressEvery != 10 || opt.MaxQuoteLines != 50 {
		t.Fatalf("CSVOptions = %+v", opt)
	}
}
