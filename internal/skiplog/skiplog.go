// Package skiplog records rows that were skipped while reading a dump into a
// CSV file, and keeps per-reason totals for the end-of-run summary.
package skiplog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"ghtdump/internal/parser/csv"
)

// Header is the first row of every skip log.
var Header = []string{"file", "line", "reason", "message"}

// Reasoner is implemented by errors that carry a short machine-readable
// reason such as "bad_id".
type Reasoner interface {
	Reason() string
}

// Reason classifies err for the skip log.
func Reason(err error) string {
	var qe *csv.QuoteError
	if errors.As(err, &qe) {
		return "unterminated_quote"
	}
	var r Reasoner
	if errors.As(err, &r) {
		return r.Reason()
	}
	return "error"
}

// Log is a skip log. It is safe for concurrent use; the filters of
// independent dump files share one Log.
type Log struct {
	mu      sync.Mutex
	f       *os.File
	w       *csv.Writer
	reasons map[string]int
}

// Open creates path (and its parent directories) and writes the header.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f, ',')
	if err := w.Write(Header...); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Log{f: f, w: w, reasons: make(map[string]int)}, nil
}

// Add records one skipped row. A nil Log only discards.
func (l *Log) Add(file string, line int, err error) {
	if l == nil {
		return
	}
	reason := Reason(err)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.reasons[reason]++
	_ = l.w.Write(csv.Quote(file), strconv.Itoa(line), reason, csv.Quote(err.Error()))
}

// Hook adapts Add to the parser's OnError callback for one file.
func (l *Log) Hook(file string) func(line int, err error) {
	return func(line int, err error) { l.Add(file, line, err) }
}

// Counts returns a copy of the per-reason totals.
func (l *Log) Counts() map[string]int {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.reasons))
	for k, v := range l.reasons {
		out[k] = v
	}
	return out
}

// Summary renders the totals as "reason=n" pairs sorted by reason.
func (l *Log) Summary() string {
	counts := l.Counts()
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += k + "=" + strconv.Itoa(counts[k])
	}
	return s
}

// Close flushes and closes the file.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Flush(); err != nil {
		l.f.Close()
		return fmt.Errorf("flush skip log: %w", err)
	}
	return l.f.Close()
}
