package ghtorrent

import (
	"fmt"
	"strconv"

	"ghtdump/internal/bitmap"
)

// RowError explains why a dump row was skipped.
type RowError struct {
	reason string
	msg    string
	err    error
}

func (e *RowError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *RowError) Unwrap() error { return e.err }

// Reason is the short classification used by skip logs.
func (e *RowError) Reason() string { return e.reason }

func shortRow(got, want int) error {
	return &RowError{reason: "short_row", msg: fmt.Sprintf("row has %d columns, need at least %d", got, want)}
}

// nullID is the dump's NULL marker.
const nullID = `\N`

// parseID parses an id in [0, bitmap.MaxID] from column col.
func parseID(row []string, col int) (int, error) {
	id, err := strconv.Atoi(row[col])
	if err != nil || id < 0 || id > bitmap.MaxID {
		return 0, &RowError{reason: "bad_id", msg: fmt.Sprintf("column %d: bad id %q", col, row[col]), err: err}
	}
	return id, nil
}

// parseOptionalID is parseID that accepts the NULL marker, reporting ok=false.
func parseOptionalID(row []string, col int) (id int, ok bool, err error) {
	if row[col] == nullID {
		return 0, false, nil
	}
	id, err = parseID(row, col)
	return id, err == nil, err
}
