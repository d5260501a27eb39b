package transformer

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// DuplicateError rejects a row whose key was already loaded.
type DuplicateError struct{ Key string }

func (e *DuplicateError) Error() string { return "duplicate key " + e.Key }

func (e *DuplicateError) Reason() string { return "duplicate" }

// Dedup keeps the first row for every key. Keys are remembered as 128-bit
// xxh3 digests, so memory grows with the number of distinct keys, not with
// their length. A Dedup is not safe for concurrent use.
type Dedup struct {
	cols []int
	seen map[xxh3.Uint128]struct{}
	h    *xxh3.Hasher
}

// NewDedup keys rows on the named columns.
func NewDedup(columns, keys []string) (*Dedup, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("dedup: no key columns")
	}
	pos := make(map[string]int, len(columns))
	for i, c := range columns {
		pos[c] = i
	}
	d := &Dedup{seen: make(map[xxh3.Uint128]struct{}), h: xxh3.New()}
	for _, k := range keys {
		i, ok := pos[k]
		if !ok {
			return nil, fmt.Errorf("dedup: unknown key column %q", k)
		}
		d.cols = append(d.cols, i)
	}
	return d, nil
}

// Check records the key of fields and returns a *DuplicateError when it was
// seen before.
func (d *Dedup) Check(fields []string) error {
	d.h.Reset()
	for _, i := range d.cols {
		d.h.WriteString(fields[i])
		d.h.Write([]byte{0x1f})
	}
	sum := d.h.Sum128()
	if _, dup := d.seen[sum]; dup {
		parts := make([]string, len(d.cols))
		for j, i := range d.cols {
			parts[j] = fields[i]
		}
		return &DuplicateError{Key: strings.Join(parts, ",")}
	}
	d.seen[sum] = struct{}{}
	return nil
}

// Len returns the number of distinct keys seen.
func (d *Dedup) Len() int { return len(d.seen) }
