// Package bitmap provides a growable bitset for sets of non-negative integer
// IDs. The dump filters use it to remember which project, commit and user ids
// survive a pass so later passes can test membership in O(1).
package bitmap

import "math/bits"

// MaxID is the largest id a Bitmap holds. A full bitmap is 2 GiB.
const MaxID = 1<<34 - 1

// Bitmap is a bitset backed by a slice of uint64 words. The zero value is an
// empty set ready to use. A Bitmap is not safe for concurrent mutation.
type Bitmap struct {
	data []uint64
	n    int
}

// New returns a bitmap pre-sized to hold IDs in [0, maxID] without growing.
// A non-positive maxID yields an empty bitmap; one above MaxID is clamped.
func New(maxID int) *Bitmap {
	if maxID <= 0 {
		return &Bitmap{}
	}
	if maxID > MaxID {
		maxID = MaxID
	}
	return &Bitmap{data: make([]uint64, maxID/64+1)}
}

// Add sets id and reports whether it is in range. Ids outside [0, MaxID]
// are not stored. The bitmap grows as needed.
func (b *Bitmap) Add(id int) bool {
	if id < 0 || id > MaxID {
		return false
	}
	word := id / 64
	if word >= len(b.data) {
		b.grow(word + 1)
	}
	mask := uint64(1) << uint(id%64)
	if b.data[word]&mask == 0 {
		b.data[word] |= mask
		b.n++
	}
	return true
}

// Has reports whether id is set. Negative ids always return false.
func (b *Bitmap) Has(id int) bool {
	if id < 0 {
		return false
	}
	word := id / 64
	if word >= len(b.data) {
		return false
	}
	return b.data[word]&(uint64(1)<<uint(id%64)) != 0
}

// Len returns the number of ids set.
func (b *Bitmap) Len() int { return b.n }

// Union adds every id of o to b.
func (b *Bitmap) Union(o *Bitmap) {
	if o == nil {
		return
	}
	if len(o.data) > len(b.data) {
		b.grow(len(o.data))
	}
	n := 0
	for i, w := range b.data {
		if i < len(o.data) {
			w |= o.data[i]
			b.data[i] = w
		}
		n += bits.OnesCount64(w)
	}
	b.n = n
}

// Range calls fn for each set id in ascending order until fn returns false.
func (b *Bitmap) Range(fn func(id int) bool) {
	for i, w := range b.data {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			if !fn(i*64 + tz) {
				return
			}
			w &= w - 1
		}
	}
}

func (b *Bitmap) grow(words int) {
	if words <= cap(b.data) {
		b.data = b.data[:words]
		return
	}
	c := 2 * cap(b.data)
	if c < words {
		c = words
	}
	data := make([]uint64, words, c)
	copy(data, b.data)
	b.data = data
}
