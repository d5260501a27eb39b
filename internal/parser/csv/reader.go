// Package csv implements a streaming reader for the permissive CSV dialect
// found in GHTorrent-style database dumps:
//
//   - quoted fields may span several physical lines;
//   - inside quotes, '\' escapes the next character, and a trailing '\'
//     escapes the line break itself;
//   - a quoted run embedded in an otherwise unquoted field is kept verbatim,
//     quotes included (e.g. `a "b,c" d` is a single field);
//   - a trailing separator denotes a trailing empty column.
//
// Rows are delivered one at a time to a callback. Row-level problems (an
// unterminated quote, a transient read fault) are reported through
// Options.OnError and never stop the stream; only failing to open or read the
// source at all aborts a session.
package csv

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ghtdump/internal/datasource/file"
)

// Action tells the reader whether to keep going after a row was delivered.
type Action uint8

const (
	// Continue asks for the next row.
	Continue Action = iota
	// Stop ends the session after the current row.
	Stop
)

// RowFunc receives one non-header, non-empty row. The slice is owned by the
// callee; the reader never touches it again.
type RowFunc func(row []string) Action

// Reader drives the tokenizer over one input stream. A Reader is a single
// parse session and is not safe for concurrent use.
type Reader struct {
	opt Options
	err error // configuration error, surfaced by Parse

	src *lineSource
	tok *tokenizer

	header       []string
	needHeader   bool
	rows         int
	lastProgress int
}

// NewReader returns a Reader over r configured by opt.
func NewReader(r io.Reader, opt Options) *Reader {
	opt = opt.withDefaults()
	src := newLineSource(r)
	return &Reader{
		opt:        opt,
		err:        opt.validate(),
		src:        src,
		tok:        newTokenizer(src, opt),
		needHeader: opt.HasHeader,
	}
}

// Parse reads rows until the input is exhausted, fn returns Stop, or ctx is
// canceled, and returns the number of rows delivered to fn. Header and empty
// rows are not counted. Row-level failures go to Options.OnError; the
// returned error is non-nil only when the session itself could not proceed.
func (r *Reader) Parse(ctx context.Context, fn RowFunc) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if fn == nil {
		return 0, errors.New("csv: nil RowFunc")
	}

	for !r.src.atEnd() {
		select {
		case <-ctx.Done():
			return r.rows, ctx.Err()
		default:
		}

		row, err := r.tok.readRow()
		r.progress()
		if err != nil {
			r.opt.OnError(r.src.line, err)
			if r.src.broken() {
				return r.rows, fmt.Errorf("%w: %v", ErrSourceFailed, err)
			}
			continue
		}
		if len(row) == 0 {
			continue
		}
		if r.needHeader {
			r.needHeader = false
			r.header = row
			continue
		}

		r.rows++
		if fn(row) == Stop {
			return r.rows, nil
		}
	}
	return r.rows, nil
}

// progress fires OnProgress whenever another ProgressEvery lines were read.
func (r *Reader) progress() {
	if r.opt.OnProgress == nil {
		return
	}
	n := r.src.consumed
	if n/r.opt.ProgressEvery > r.lastProgress/r.opt.ProgressEvery {
		r.lastProgress = n
		r.opt.OnProgress(n)
	}
}

// Header returns the discarded header row, or nil when HasHeader was not
// requested or no row has been read yet.
func (r *Reader) Header() []string { return r.header }

// Rows returns the number of rows delivered so far.
func (r *Reader) Rows() int { return r.rows }

// Lines returns the number of physical lines consumed so far. A row may span
// several lines.
func (r *Reader) Lines() int { return r.src.consumed }

// Line returns the physical line number the reader is positioned on.
func (r *Reader) Line() int { return r.src.line }

// ParseFile opens path (transparently decompressing it when its extension
// asks for it), parses it, and closes it. Failing to open the file aborts the
// session before any row is delivered.
func ParseFile(ctx context.Context, path string, opt Options, fn RowFunc) (int, error) {
	rc, err := file.NewLocal(path).Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer rc.Close()

	return NewReader(rc, opt).Parse(ctx, fn)
}
