package csv

import (
	"bufio"
	"io"
	"strings"
)

// Quote wraps s in double quotes, backslash-escaping quotes, apostrophes and
// backslashes so a reader with the default quote character returns s
// unchanged. Use QuoteWith for other dialects.
func Quote(s string) string { return QuoteWith(s, '"') }

// QuoteWith wraps s in quote, backslash-escaping quote, the other common
// quote characters and backslashes.
func QuoteWith(s string, quote byte) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(quote)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\'', '"', quote, escapeChar:
			b.WriteByte(escapeChar)
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

// Writer writes rows of already formatted fields. Callers decide per field
// whether to emit it raw or through Quote.
type Writer struct {
	bw  *bufio.Writer
	sep byte
}

// NewWriter returns a Writer that joins fields with sep. A zero sep selects
// ','.
func NewWriter(w io.Writer, sep byte) *Writer {
	if sep == 0 {
		sep = ','
	}
	return &Writer{bw: bufio.NewWriterSize(w, 256*1024), sep: sep}
}

// Write emits one row followed by a newline.
func (w *Writer) Write(fields ...string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.bw.WriteByte(w.sep); err != nil {
				return err
			}
		}
		if _, err := w.bw.WriteString(f); err != nil {
			return err
		}
	}
	return w.bw.WriteByte('\n')
}

// Flush writes any buffered data to the underlying io.Writer.
func (w *Writer) Flush() error { return w.bw.Flush() }
