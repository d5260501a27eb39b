// Package ghtorrent cuts a GHTorrent CSV dump down to a subset of projects
// and everything reachable from them: their commits, the parents of those
// commits, the users who authored, committed or starred, and optionally the
// stars themselves.
//
// A run has two phases. A Selection of projects is built first (first N,
// by language, optionally pruned by commit count and sampled), then
// FilterDataset streams the remaining tables through it. Each table is read
// once; the tables that only depend on the selection are filtered
// concurrently.
package ghtorrent

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"ghtdump/internal/datasource/file"
	"ghtdump/internal/metrics"
	"ghtdump/internal/parser/csv"
)

// Dump file names.
const (
	ProjectsFile       = "projects.csv"
	ProjectCommitsFile = "project_commits.csv"
	CommitsFile        = "commits.csv"
	CommitParentsFile  = "commit_parents.csv"
	WatchersFile       = "watchers.csv"
	UsersFile          = "users.csv"
)

// Output headers. Only projects.csv and users.csv carry one.
var (
	ProjectsHeader = []string{"id", "url", "ownerId", "name", "desc", "lang", "createdAt", "forkedFrom", "deleted", "updatedAt", "forkedCommitId"}
	UsersHeader    = []string{"id", "login", "company", "createdAt", "type", "fake", "deleted", "long", "lat", "countryCode", "state", "city", "location"}
)

// compressedSuffixes are tried, in order, when a dump file is not present
// uncompressed.
var compressedSuffixes = []string{"", ".gz", ".zst", ".xz"}

// Dataset is one filtering job: where the dump lives, where the result goes,
// and how rows are parsed and rejected.
type Dataset struct {
	InputDir  string
	OutputDir string

	// Options is the CSV dialect. HasHeader, OnError and OnProgress are set
	// per file and ignored here.
	Options csv.Options

	// Job labels metrics. Empty means "ghtfilter".
	Job string

	// OnReject receives every row that was skipped, whether the parser
	// rejected it or its fields did not fit the table. It may be called from
	// several goroutines at once. Nil discards.
	OnReject func(file string, line int, err error)
}

// FileStats summarizes one pass over a dump file.
type FileStats struct {
	File     string
	Read     int
	Kept     int
	Rejected int
	Duration time.Duration
}

func (s FileStats) String() string {
	return fmt.Sprintf("file=%s read=%d kept=%d rejected=%d took=%s",
		s.File, s.Read, s.Kept, s.Rejected, s.Duration.Truncate(time.Millisecond))
}

func (d *Dataset) job() string {
	if d.Job == "" {
		return "ghtfilter"
	}
	return d.Job
}

func (d *Dataset) reject(name string, line int, err error) {
	if d.OnReject != nil {
		d.OnReject(name, line, err)
	}
}

// inputPath finds name in InputDir, accepting a compressed variant.
func (d *Dataset) inputPath(name string) (string, error) {
	base := filepath.Join(d.InputDir, name)
	for _, suf := range compressedSuffixes {
		if _, err := os.Stat(base + suf); err == nil {
			return base + suf, nil
		}
	}
	return "", fmt.Errorf("%s: %w", base, os.ErrNotExist)
}

// verdict is what a row handler decided about one row.
type verdict uint8

const (
	skip     verdict = iota // not wanted
	keep                    // wanted
	keepLast                // wanted, and no further rows are needed
	abort                   // the returned error is fatal for the pass
)

// rowFunc handles one row. An error with any verdict but abort rejects the
// row; it is reported with its line and the pass continues.
type rowFunc func(row []string) (verdict, error)

// scan parses one input file, routing parser errors and rejected rows to
// OnReject.
func (d *Dataset) scan(ctx context.Context, name string, header bool, fn rowFunc) (st FileStats, err error) {
	st.File = name
	start := time.Now()
	defer func() { st.Duration = time.Since(start) }()

	path, err := d.inputPath(name)
	if err != nil {
		return st, err
	}
	rc, err := file.NewLocal(path).Open(ctx)
	if err != nil {
		return st, err
	}
	defer rc.Close()

	opt := d.Options
	opt.HasHeader = header
	opt.OnError = func(line int, err error) {
		st.Rejected++
		d.reject(name, line, err)
	}
	lastLines := 0
	opt.OnProgress = func(lines int) {
		metrics.RecordLines(d.job(), name, int64(lines-lastLines))
		lastLines = lines
	}

	var fatal error
	r := csv.NewReader(rc, opt)
	_, err = r.Parse(ctx, func(row []string) csv.Action {
		st.Read++
		v, rerr := fn(row)
		switch {
		case v == abort:
			fatal = rerr
			return csv.Stop
		case rerr != nil:
			st.Rejected++
			d.reject(name, r.Line(), rerr)
		case v == keep || v == keepLast:
			st.Kept++
		}
		if v == keepLast {
			return csv.Stop
		}
		return csv.Continue
	})
	metrics.RecordLines(d.job(), name, int64(r.Lines()-lastLines))
	metrics.RecordRow(d.job(), name, metrics.KindRead, int64(st.Read))
	metrics.RecordRow(d.job(), name, metrics.KindKept, int64(st.Kept))
	metrics.RecordRow(d.job(), name, metrics.KindRejected, int64(st.Rejected))
	if err == nil {
		err = fatal
	}
	if err != nil {
		return st, fmt.Errorf("%s: %w", name, err)
	}
	return st, nil
}

// output is a file in OutputDir being written row by row.
type output struct {
	f *os.File
	w *csv.Writer
}

func (d *Dataset) create(name string, header []string) (*output, error) {
	if err := os.MkdirAll(d.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(filepath.Join(d.OutputDir, name))
	if err != nil {
		return nil, err
	}
	o := &output{f: f, w: csv.NewWriter(f, ',')}
	if header != nil {
		if err := o.w.Write(header...); err != nil {
			f.Close()
			return nil, err
		}
	}
	return o, nil
}

// close flushes and closes the file, keeping the first error.
func (o *output) close(err error) error {
	ferr := o.w.Flush()
	cerr := o.f.Close()
	switch {
	case err != nil:
		return err
	case ferr != nil:
		return fmt.Errorf("flush %s: %w", o.f.Name(), ferr)
	case cerr != nil:
		return fmt.Errorf("close %s: %w", o.f.Name(), cerr)
	}
	return nil
}

// step times fn and records it as a job step.
func (d *Dataset) step(name string, fn func() (FileStats, error)) (FileStats, error) {
	log.Printf("ghtorrent: %s: started", name)
	start := time.Now()
	st, err := fn()
	metrics.RecordStep(d.job(), name, err, time.Since(start))
	if err != nil {
		log.Printf("ghtorrent: %s: failed: %v", name, err)
		return st, err
	}
	log.Printf("ghtorrent: %s: %s", name, st)
	return st, nil
}
