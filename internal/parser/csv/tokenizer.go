package csv

import (
	"errors"
	"fmt"
	"strings"
)

// escapeChar escapes the following character (or line break) inside quotes.
const escapeChar = '\\'

// QuoteError reports a quote that was still open when the input ended.
type QuoteError struct {
	// StartLine is the physical line on which the quote was opened.
	StartLine int
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("unterminated quote, starting at line %d", e.StartLine)
}

// mode is the scanning state of the field under the cursor.
type mode uint8

const (
	// modeUnquoted copies characters until a separator or the line end.
	modeUnquoted mode = iota
	// modeQuoted is inside a field that started with a quote; the enclosing
	// quotes are dropped from the output.
	modeQuoted
	// modeEmbedded is inside a quoted run that started mid-field; its quotes
	// are kept literally and scanning returns to modeUnquoted when it closes.
	modeEmbedded
)

func (m mode) inQuote() bool { return m == modeQuoted || m == modeEmbedded }

// tokenizer assembles one logical row at a time from a lineSource.
type tokenizer struct {
	src      *lineSource
	quote    byte
	sep      byte
	embedded bool
	maxPull  int

	line string // current physical line
	pos  int    // cursor into line

	acc        strings.Builder
	fields     []string
	sepEnded   bool       // last field was terminated by a separator
	quoteStart int        // line on which the open quote began
	pulled     []physLine // lines pulled while the current quote was open
}

func newTokenizer(src *lineSource, opt Options) *tokenizer {
	return &tokenizer{
		src:      src,
		quote:    opt.Quote,
		sep:      opt.Separator,
		embedded: !opt.NoEmbeddedQuotes,
		maxPull:  opt.MaxQuoteLines,
	}
}

// readRow assembles the next logical row. A nil row with a nil error means
// the physical line produced no fields (or the source is exhausted). On error
// all partial row state is discarded.
func (t *tokenizer) readRow() ([]string, error) {
	t.reset()

	line, found, err := t.src.next()
	if err != nil || !found {
		return nil, err
	}
	t.line, t.pos = line, 0

	for t.pos < len(t.line) {
		if err := t.field(); err != nil {
			var qe *QuoteError
			if errors.As(err, &qe) {
				t.src.unread(t.pulled)
			}
			t.reset()
			return nil, err
		}
	}
	if t.sepEnded {
		t.fields = append(t.fields, "")
	}

	row := t.fields
	t.fields = nil
	return row, nil
}

// field scans one field starting at the cursor and appends it to the row.
func (t *tokenizer) field() error {
	t.acc.Reset()
	t.sepEnded = false

	m := modeUnquoted
	if t.line[t.pos] == t.quote {
		m = modeQuoted
		t.openQuote()
		t.pos++
	}

	for {
		if t.pos >= len(t.line) {
			if !m.inQuote() {
				t.emit()
				return nil
			}
			// The quote spans the line break.
			if err := t.continueLine(); err != nil {
				return err
			}
			t.acc.WriteByte('\n')
			continue
		}

		c := t.line[t.pos]
		switch m {
		case modeUnquoted:
			switch {
			case c == t.sep:
				t.pos++
				t.sepEnded = true
				t.emit()
				return nil
			case c == t.quote && t.embedded:
				t.acc.WriteByte(c)
				t.openQuote()
				t.pos++
				m = modeEmbedded
			default:
				t.acc.WriteByte(c)
				t.pos++
			}

		case modeQuoted, modeEmbedded:
			switch c {
			case escapeChar:
				t.pos++
				if t.pos >= len(t.line) {
					// Escaped line break: join the lines without a newline.
					if err := t.continueLine(); err != nil {
						return err
					}
					continue
				}
				t.acc.WriteByte(t.line[t.pos])
				t.pos++
			case t.quote:
				t.pos++
				if m == modeEmbedded {
					t.acc.WriteByte(c)
					m = modeUnquoted
					continue
				}
				if t.pos < len(t.line) && t.line[t.pos] == t.sep {
					t.pos++
					t.sepEnded = true
				}
				t.emit()
				return nil
			default:
				t.acc.WriteByte(c)
				t.pos++
			}
		}
	}
}

// openQuote records where the quote under the cursor began.
func (t *tokenizer) openQuote() {
	t.quoteStart = t.src.line
	t.pulled = t.pulled[:0]
}

// continueLine replaces the cursor line with the next physical line while a
// quote is open. Running out of input, or pulling more than maxPull lines,
// yields a *QuoteError.
func (t *tokenizer) continueLine() error {
	line, found, err := t.src.next()
	if err != nil {
		return err
	}
	if !found {
		return &QuoteError{StartLine: t.quoteStart}
	}
	t.pulled = append(t.pulled, physLine{text: line, num: t.src.line})
	if t.maxPull > 0 && len(t.pulled) > t.maxPull {
		return &QuoteError{StartLine: t.quoteStart}
	}
	t.line, t.pos = line, 0
	return nil
}

func (t *tokenizer) emit() {
	t.fields = append(t.fields, t.acc.String())
	t.acc.Reset()
}

func (t *tokenizer) reset() {
	t.acc.Reset()
	t.fields = nil
	t.sepEnded = false
	t.quoteStart = 0
	t.line, t.pos = "", 0
}
