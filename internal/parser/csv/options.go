package csv

import (
	"errors"
	"log"
)

// Options configures a parse session. Zero values select the defaults.
type Options struct {
	// Quote is the quote character. When zero, '"' is used.
	Quote byte

	// Separator is the field delimiter. When zero, ',' is used.
	Separator byte

	// HasHeader discards the first non-empty row. It is still available via
	// Reader.Header.
	HasHeader bool

	// NoEmbeddedQuotes treats a quote inside an unquoted field as an ordinary
	// character instead of opening a literal quoted run.
	NoEmbeddedQuotes bool

	// MaxQuoteLines bounds how many continuation lines a quoted field may
	// pull before it is reported as an unterminated quote and the pulled
	// lines are replayed as ordinary rows. Until a quote closes, every pulled
	// line is held twice: in the field and in the replay buffer. When zero,
	// the bound is off and a stray quote may buffer the rest of the input.
	MaxQuoteLines int

	// OnError receives every recoverable row-level failure together with the
	// best-known physical line number. When nil, failures are logged.
	OnError func(line int, err error)

	// OnProgress is called with the number of physical lines consumed every
	// ProgressEvery lines. It is purely observational.
	OnProgress func(lines int)

	// ProgressEvery sets the OnProgress cadence. When zero, 1000 is used.
	ProgressEvery int
}

// defaultProgressEvery matches the coarse cadence of the dump tools.
const defaultProgressEvery = 1000

// withDefaults returns a copy of o with zero fields filled in.
func (o Options) withDefaults() Options {
	if o.Quote == 0 {
		o.Quote = '"'
	}
	if o.Separator == 0 {
		o.Separator = ','
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = defaultProgressEvery
	}
	if o.OnError == nil {
		o.OnError = logRowError
	}
	return o
}

// validate rejects configurations the tokenizer cannot scan unambiguously.
func (o Options) validate() error {
	switch {
	case o.Quote == o.Separator:
		return errors.New("csv: quote and separator must differ")
	case o.Quote == escapeChar || o.Separator == escapeChar:
		return errors.New(`csv: '\' is reserved for escapes`)
	case o.MaxQuoteLines < 0:
		return errors.New("csv: negative MaxQuoteLines")
	case o.Quote == '\n' || o.Separator == '\n' || o.Quote == '\r' || o.Separator == '\r':
		return errors.New("csv: quote and separator must not be line terminators")
	}
	return nil
}

func logRowError(line int, err error) {
	log.Printf("line %d: %v", line, err)
}
