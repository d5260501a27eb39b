package csv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxReadFailures bounds how many consecutive failed reads (no data, non-EOF
// error) are tolerated before the session gives up on the stream.
const maxReadFailures = 3

// ErrSourceFailed is returned by Parse when the underlying stream keeps
// failing and no further line can be read.
var ErrSourceFailed = errors.New("csv: source failed")

// physLine is one physical line together with its 1-based line number.
type physLine struct {
	text string
	num  int
}

// lineSource yields physical lines from a buffered stream. EOF is known only
// after a read attempt failed to produce data, mirroring bufio semantics.
type lineSource struct {
	br       *bufio.Reader
	line     int // number of the line most recently returned by next
	consumed int // highest line number read from the stream
	eof      bool
	failures int

	// pending holds lines handed back by unread; they are served before the
	// stream is read again.
	pending []physLine
}

func newLineSource(r io.Reader) *lineSource {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 64*1024)
	}
	return &lineSource{br: br}
}

// next returns the next physical line with its terminator stripped. found is
// false once the stream is exhausted. A non-EOF read error that produced no
// data is returned as err; the caller decides whether to retry.
func (s *lineSource) next() (text string, found bool, err error) {
	if len(s.pending) > 0 {
		pl := s.pending[0]
		s.pending = s.pending[1:]
		s.line = pl.num
		return pl.text, true, nil
	}
	if s.eof {
		return "", false, nil
	}

	text, rerr := s.br.ReadString('\n')
	switch {
	case rerr == io.EOF:
		s.eof = true
		if text == "" {
			return "", false, nil
		}
	case rerr != nil:
		if text == "" {
			s.failures++
			return "", false, fmt.Errorf("read line %d: %w", s.consumed+1, rerr)
		}
	}
	s.failures = 0

	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	s.consumed++
	if s.consumed == 1 {
		text = stripBOM(text)
	}
	s.line = s.consumed
	return text, true, nil
}

// atEnd reports whether the stream has been exhausted and nothing is queued
// for replay.
func (s *lineSource) atEnd() bool {
	return s.eof && len(s.pending) == 0
}

// broken reports whether the stream kept failing without making progress.
func (s *lineSource) broken() bool {
	return s.failures >= maxReadFailures
}

// unread queues lines to be served again, ahead of anything already pending.
func (s *lineSource) unread(lines []physLine) {
	if len(lines) == 0 {
		return
	}
	q := make([]physLine, 0, len(lines)+len(s.pending))
	q = append(q, lines...)
	s.pending = append(q, s.pending...)
}
