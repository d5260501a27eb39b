package cli

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ghtdump/internal/config"
)

func load(t *testing.T, args ...string) *config.Config {
	t.Helper()
	fs := flag.NewFlagSet("ghtfilter", flag.ContinueOnError)
	cfg, err := config.LoadFromArgs(fs, func(string) string { return "" }, args, config.GroupFilter, config.GroupMetrics)
	if err != nil {
		t.Fatalf("LoadFromArgs: %v", err)
	}
	return cfg
}

func TestCheckConfig(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := CheckConfig(&buf, load(t, "-input", "in"))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
	if !strings.Contains(buf.String(), "error: output: is required") {
		t.Fatalf("output = %q", buf.String())
	}

	buf.Reset()
	if err := CheckConfig(&buf, load(t, "-input", "in", "-output", "out", "-first", "3")); err != nil {
		t.Fatalf("valid config: %v\n%s", err, buf.String())
	}
}

func TestStartMetrics_None(t *testing.T) {
	t.Parallel()

	flush := StartMetrics(load(t))
	flush()
}

func TestOpenSkipLog(t *testing.T) {
	t.Parallel()

	l, err := OpenSkipLog(load(t))
	if err != nil || l != nil {
		t.Fatalf("disabled: got %v, %v", l, err)
	}
	CloseSkipLog(l)

	dir := t.TempDir()
	l, err = OpenSkipLog(load(t, "-skipped_dir", dir, "-job", "run1"))
	if err != nil {
		t.Fatalf("OpenSkipLog: %v", err)
	}
	l.Add("users.csv", 4, errors.New("boom"))
	CloseSkipLog(l)

	b, err := os.ReadFile(filepath.Join(dir, "run1_skipped.csv"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), `"users.csv",4,error,"boom"`) {
		t.Fatalf("skip log = %q", b)
	}
}
