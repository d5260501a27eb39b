// Package transformer turns parsed dump rows ([]string) into database-ready
// rows ([]any) with a per-column coercion plan compiled once per file, and
// drops rows whose key was already seen.
package transformer

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NullMarker is the dump's spelling of SQL NULL.
const NullMarker = `\N`

// Column types understood by Compile.
const (
	TypeText      = "text"
	TypeInt       = "int"
	TypeBool      = "bool"
	TypeTimestamp = "timestamp"
)

// Spec describes how fields are converted.
type Spec struct {
	// Types maps column name to one of the Type constants. Missing columns
	// are text.
	Types map[string]string
	// Normalize trims text fields and puts them in Unicode NFC.
	Normalize bool
}

// ParseTypes parses "id:int,fake:bool,created_at:timestamp".
func ParseTypes(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		col, typ, ok := strings.Cut(item, ":")
		col, typ = strings.TrimSpace(col), strings.ToLower(strings.TrimSpace(typ))
		if !ok || col == "" {
			return nil, fmt.Errorf("types: %q is not column:type", item)
		}
		switch typ {
		case TypeText, TypeInt, TypeBool, TypeTimestamp:
		default:
			return nil, fmt.Errorf("types: column %q has unknown type %q", col, typ)
		}
		out[col] = typ
	}
	return out, nil
}

// CoerceError rejects a row whose field does not parse as its column type.
type CoerceError struct {
	Column string
	Type   string
	Value  string
}

func (e *CoerceError) Error() string {
	return fmt.Sprintf("column %s: %q is not a valid %s", e.Column, e.Value, e.Type)
}

// Reason classifies the rejection for skip logs.
func (e *CoerceError) Reason() string { return "bad_value" }

type coerceFunc func(s string) (any, bool)

// Plan converts rows of one file.
type Plan struct {
	columns []string
	types   []string
	coerce  []coerceFunc
}

// Compile builds a Plan for columns. Types naming a column that is not
// present are an error.
func Compile(columns []string, spec Spec) (*Plan, error) {
	pos := make(map[string]bool, len(columns))
	for _, c := range columns {
		pos[c] = true
	}
	var unknown []string
	for c := range spec.Types {
		if !pos[c] {
			unknown = append(unknown, c)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("types reference unknown columns: %s", strings.Join(unknown, ", "))
	}

	p := &Plan{
		columns: columns,
		types:   make([]string, len(columns)),
		coerce:  make([]coerceFunc, len(columns)),
	}
	for i, c := range columns {
		typ := spec.Types[c]
		if typ == "" {
			typ = TypeText
		}
		p.types[i] = typ

		switch typ {
		case TypeInt:
			p.coerce[i] = func(s string) (any, bool) { return toInt(strings.TrimSpace(s)) }
		case TypeBool:
			p.coerce[i] = func(s string) (any, bool) { return toBool(strings.TrimSpace(s)) }
		case TypeTimestamp:
			p.coerce[i] = func(s string) (any, bool) { return toTimestamp(strings.TrimSpace(s)) }
		default:
			if spec.Normalize {
				p.coerce[i] = func(s string) (any, bool) { return norm.NFC.String(strings.TrimSpace(s)), true }
			} else {
				p.coerce[i] = func(s string) (any, bool) { return s, true }
			}
		}
	}
	return p, nil
}

// Columns returns the column names the plan was compiled for.
func (p *Plan) Columns() []string { return p.columns }

// Types returns the resolved type of every column.
func (p *Plan) Types() []string { return p.types }

// Convert maps fields to values: NullMarker becomes nil, typed columns are
// parsed. fields must have one entry per column.
func (p *Plan) Convert(fields []string) ([]any, error) {
	if len(fields) != len(p.columns) {
		return nil, &WidthError{Got: len(fields), Want: len(p.columns)}
	}
	out := make([]any, len(fields))
	for i, f := range fields {
		if f == NullMarker {
			continue
		}
		v, ok := p.coerce[i](f)
		if !ok {
			return nil, &CoerceError{Column: p.columns[i], Type: p.types[i], Value: f}
		}
		out[i] = v
	}
	return out, nil
}

// WidthError rejects a row whose field count differs from the column count.
type WidthError struct{ Got, Want int }

func (e *WidthError) Error() string {
	return fmt.Sprintf("row has %d fields, want %d", e.Got, e.Want)
}

func (e *WidthError) Reason() string { return "column_count" }
