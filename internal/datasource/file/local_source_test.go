package file

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

const payload = "1,\"https://api.github.com/repos/a/b\",3\n2,\"x\",4\n"

// compress encodes payload with the codec implied by name.
func compress(t *testing.T, name string) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch filepath.Ext(name) {
	case ".gz":
		w = gzip.NewWriter(&buf)
	case ".zst":
		w, err = zstd.NewWriter(&buf)
	case ".xz":
		w, err = xz.NewWriter(&buf)
	default:
		return []byte(payload)
	}
	if err != nil {
		t.Fatalf("new writer for %s: %v", name, err)
	}
	if _, err := io.WriteString(w, payload); err != nil {
		t.Fatalf("compress %s: %v", name, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer for %s: %v", name, err)
	}
	return buf.Bytes()
}

// TestLocalOpen covers plain and compressed files, a missing file, and a
// pre-canceled context.
func TestLocalOpen(t *testing.T) {
	t.Parallel()

	type tc struct {
		name            string
		file            string // created with payload unless missing is set
		missing         bool
		canceled        bool
		wantErrIs       error
		wantErrContains string
	}

	cases := []tc{
		{name: "plain", file: "projects.csv"},
		{name: "gzip", file: "projects.csv.gz"},
		{name: "zstd", file: "projects.csv.zst"},
		{name: "xz", file: "projects.csv.xz"},
		{
			name:            "missing_file_errors_with_wrapping",
			file:            "missing.csv",
			missing:         true,
			wantErrIs:       os.ErrNotExist,
			wantErrContains: "open ",
		},
		{
			name:      "pre_canceled_context_short_circuits",
			file:      "projects.csv",
			canceled:  true,
			wantErrIs: context.Canceled,
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), c.file)
			if !c.missing {
				if err := os.WriteFile(path, compress(t, c.file), 0o644); err != nil {
					t.Fatalf("write test file: %v", err)
				}
			}
			ctx := context.Background()
			if c.canceled {
				var cancel context.CancelFunc
				ctx, cancel = context.WithCancel(ctx)
				cancel()
			}

			rc, err := NewLocal(path).Open(ctx)

			if c.wantErrIs != nil {
				if err == nil {
					t.Fatalf("expected error %v, got nil", c.wantErrIs)
				}
				if !errors.Is(err, c.wantErrIs) {
					t.Fatalf("errors.Is(%v, %v) = false", err, c.wantErrIs)
				}
				if c.wantErrContains != "" && !strings.Contains(err.Error(), c.wantErrContains) {
					t.Fatalf("error %q does not contain substring %q", err, c.wantErrContains)
				}
				if rc != nil {
					_ = rc.Close()
					t.Fatalf("got non-nil ReadCloser on error: %T", rc)
				}
				return
			}

			if err != nil {
				t.Fatalf("Open() unexpected error: %v", err)
			}
			defer rc.Close()

			got, rerr := io.ReadAll(rc)
			if rerr != nil {
				t.Fatalf("reading: %v", rerr)
			}
			if string(got) != payload {
				t.Fatalf("content mismatch: got %q, want %q", string(got), payload)
			}
		})
	}
}

func TestLocalOpen_CorruptGzip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.csv.gz")
	if err := os.WriteFile(path, []byte("not gzip at all"), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	rc, err := NewLocal(path).Open(context.Background())
	if err == nil {
		rc.Close()
		t.Fatalf("expected error for corrupt gzip, got nil")
	}
	if !strings.Contains(err.Error(), "gzip reader") {
		t.Fatalf("error %q does not mention the codec", err)
	}
}

// BenchmarkLocalOpen_Success measures the steady-state cost of opening a small file.
func BenchmarkLocalOpen_Success(b *testing.B) {
	p := filepath.Join(b.TempDir(), "data.csv")
	if err := os.WriteFile(p, []byte(payload), 0o644); err != nil {
		b.Fatalf("write test file: %v", err)
	}

	src := NewLocal(p)
	ctx := context.Background()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rc, err := src.Open(ctx)
		if err != nil {
			b.Fatal(err)
		}
		if err := rc.Close(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkLocalOpen_Missing measures the cost of failing fast on missing files.
func BenchmarkLocalOpen_Missing(b *testing.B) {
	src := NewLocal(filepath.Join(b.TempDir(), "missing.csv"))
	ctx := context.Background()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rc, err := src.Open(ctx)
		if err == nil {
			rc.Close()
			b.Fatal("expected error, got nil")
		}
	}
}
