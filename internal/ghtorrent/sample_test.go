package ghtorrent

import (
	"reflect"
	"testing"
)

func selectionOf(langs map[string]int) *Selection {
	sel := NewSelection()
	id := 1
	for _, l := range []string{"go", "java", "c"} {
		for i := 0; i < langs[l]; i++ {
			sel.Add(id, l)
			id++
		}
	}
	return sel
}

func TestSample(t *testing.T) {
	t.Parallel()

	a := selectionOf(map[string]int{"go": 60, "java": 40})
	b := selectionOf(map[string]int{"go": 60, "java": 40})
	Sample(a, 10, false, 7)
	Sample(b, 10, false, 7)

	if a.Len() != 10 {
		t.Fatalf("Len = %d, want 10", a.Len())
	}
	if !reflect.DeepEqual(a.IDs(), b.IDs()) {
		t.Fatalf("same seed picked %v and %v", a.IDs(), b.IDs())
	}
}

func TestSample_PerLanguage(t *testing.T) {
	t.Parallel()

	sel := selectionOf(map[string]int{"go": 60, "java": 40, "c": 3})
	Sample(sel, 10, true, 1)

	counts := map[string]int{}
	for lang, ids := range sel.ByLanguage() {
		counts[lang] = len(ids)
	}
	if want := map[string]int{"go": 10, "java": 10, "c": 3}; !reflect.DeepEqual(counts, want) {
		t.Fatalf("per-language counts = %v, want %v", counts, want)
	}
}

func TestSample_NonPositiveKeepsAll(t *testing.T) {
	t.Parallel()

	sel := selectionOf(map[string]int{"go": 5})
	Sample(sel, 0, false, 1)
	if sel.Len() != 5 {
		t.Fatalf("Len = %d, want 5", sel.Len())
	}
}

func TestFoldLanguage(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"  C++ ":      "c++",
		"JavaScript":  "javascript",
		"Élixir":      "elixir",
		"Objective-C": "objective-c",
	}
	for in, want := range tests {
		if got := FoldLanguage(in); got != want {
			t.Errorf("FoldLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLanguageSet_StudyAlias(t *testing.T) {
	t.Parallel()

	set := LanguageSet([]string{"Study", "Rust", ""})
	if len(set) != len(StudyLanguages)+1 {
		t.Fatalf("len = %d, want %d", len(set), len(StudyLanguages)+1)
	}
	if !set["go"] || !set["rust"] || set[""] {
		t.Fatalf("set = %v", set)
	}
}

func BenchmarkSample(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		sel := selectionOf(map[string]int{"go": 50000, "java": 50000})
		b.StartTimer()
		Sample(sel, 1000, true, uint64(i))
	}
}
