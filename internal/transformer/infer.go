package transformer

import (
	"strings"
)

// Inferrer guesses column types from the rows it observes. A type sticks
// only while every non-null, non-blank value parses as it; int wins over
// bool so that 0/1 flags stay numeric. Columns with no values are text.
type Inferrer struct {
	columns []string
	cols    []inference
}

type inference struct {
	seen    bool
	notInt  bool
	notBool bool
	notTime bool
}

// NewInferrer starts inference for columns.
func NewInferrer(columns []string) *Inferrer {
	return &Inferrer{columns: columns, cols: make([]inference, len(columns))}
}

// Observe folds one row in. Extra fields are ignored; missing ones are
// treated as null.
func (in *Inferrer) Observe(fields []string) {
	for i := range in.cols {
		if i >= len(fields) {
			return
		}
		s := strings.TrimSpace(fields[i])
		if s == "" || s == NullMarker {
			continue
		}
		c := &in.cols[i]
		c.seen = true
		if !c.notInt {
			if _, ok := toInt(s); !ok || strings.IndexByte(s, '.') >= 0 {
				c.notInt = true
			}
		}
		if !c.notBool {
			if _, ok := toBool(s); !ok {
				c.notBool = true
			}
		}
		if !c.notTime {
			if _, ok := toTimestamp(s); !ok {
				c.notTime = true
			}
		}
	}
}

// Types returns the inferred type per column.
func (in *Inferrer) Types() map[string]string {
	out := make(map[string]string, len(in.columns))
	for i, c := range in.cols {
		typ := TypeText
		switch {
		case !c.seen:
		case !c.notInt:
			typ = TypeInt
		case !c.notBool:
			typ = TypeBool
		case !c.notTime:
			typ = TypeTimestamp
		}
		out[in.columns[i]] = typ
	}
	return out
}

// String renders the non-text columns in column order in the syntax
// ParseTypes reads.
func (in *Inferrer) String() string {
	types := in.Types()
	var parts []string
	for _, c := range in.columns {
		if t := types[c]; t != TypeText {
			parts = append(parts, c+":"+t)
		}
	}
	return strings.Join(parts, ",")
}
