package bitmap

import (
	"reflect"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		maxID   int
		wantLen int
	}{
		{"non-positive maxID yields empty backing slice", 0, 0},
		{"small positive maxID", 1, 1},
		{"63 fits in one word", 63, 1},
		{"64 needs a second word", 64, 2},
		{"large maxID", 150000000, 150000000/64 + 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bm := New(tt.maxID)
			if got := len(bm.data); got != tt.wantLen {
				t.Fatalf("New(%d) data length = %d, want %d", tt.maxID, got, tt.wantLen)
			}
			if bm.Len() != 0 {
				t.Fatalf("new bitmap Len = %d, want 0", bm.Len())
			}
		})
	}
}

func TestAdd_OutOfRange(t *testing.T) {
	t.Parallel()

	var bm Bitmap
	for _, id := range []int{-1, MaxID + 1, 9000000000000000000} {
		if bm.Add(id) {
			t.Errorf("Add(%d) = true, want false", id)
		}
		if bm.Has(id) {
			t.Errorf("Has(%d) = true, want false", id)
		}
	}
	if len(bm.data) != 0 || bm.Len() != 0 {
		t.Fatalf("out-of-range ids grew the bitmap: words=%d Len=%d", len(bm.data), bm.Len())
	}
	if !bm.Add(7) {
		t.Fatal("Add(7) = false, want true")
	}
}

func TestAddAndHas(t *testing.T) {
	t.Parallel()

	var bm Bitmap
	for _, id := range []int{-1, 0, 63, 64, 199, 1 << 20} {
		bm.Add(id)
	}
	bm.Add(64) // duplicate

	for _, id := range []int{0, 63, 64, 199, 1 << 20} {
		if !bm.Has(id) {
			t.Errorf("Has(%d) = false, want true", id)
		}
	}
	for _, id := range []int{-1, 1, 62, 65, 200, 1<<20 + 1, 1 << 30} {
		if bm.Has(id) {
			t.Errorf("Has(%d) = true, want false", id)
		}
	}
	if bm.Len() != 5 {
		t.Fatalf("Len = %d, want 5", bm.Len())
	}
}

func TestUnion(t *testing.T) {
	t.Parallel()

	a := New(10)
	a.Add(1)
	a.Add(5)
	b := New(0)
	b.Add(5)
	b.Add(700)

	a.Union(b)
	a.Union(nil)

	var got []int
	a.Range(func(id int) bool {
		got = append(got, id)
		return true
	})
	if want := []int{1, 5, 700}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	if a.Len() != 3 {
		t.Fatalf("Len = %d, want 3", a.Len())
	}
}

func TestRange_StopsEarly(t *testing.T) {
	t.Parallel()

	var bm Bitmap
	for i := 0; i < 300; i += 3 {
		bm.Add(i)
	}
	var seen int
	bm.Range(func(int) bool {
		seen++
		return seen < 4
	})
	if seen != 4 {
		t.Fatalf("seen = %d, want 4", seen)
	}
}

func BenchmarkBitmapAddHas(b *testing.B) {
	bm := New(1 << 20)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := i & (1<<20 - 1)
		bm.Add(id)
		if !bm.Has(id) {
			b.Fatalf("missing %d", id)
		}
	}
}
