package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

// fakeBackend records calls in memory.
type fakeBackend struct {
	mu         sync.Mutex
	counters   []counterCall
	histograms []histCall
	flushes    int
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

func install(t *testing.T) *fakeBackend {
	t.Helper()
	orig := backend
	t.Cleanup(func() { backend = orig })
	fb := &fakeBackend{}
	backend = fb
	return fb
}

func TestRecordStep(t *testing.T) {
	fb := install(t)

	RecordStep("filter", "projects", nil, 2*time.Second)
	RecordStep("filter", "users", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("calls: %d counters, %d histograms; want 2 each", len(fb.counters), len(fb.histograms))
	}
	if c := fb.counters[0]; c.name != StepTotal || c.labels["step"] != "projects" || c.labels["status"] != "success" {
		t.Fatalf("counter[0] = %#v", c)
	}
	if c := fb.counters[1]; c.labels["status"] != "failure" || c.labels["job"] != "filter" {
		t.Fatalf("counter[1] = %#v", c)
	}
	if h := fb.histograms[1]; h.name != StepDuration || h.value < 1.499 || h.value > 1.501 {
		t.Fatalf("hist[1] = %#v, want ~1.5s", h)
	}
}

func TestRecordRowLinesAndBatches(t *testing.T) {
	fb := install(t)

	RecordRow("filter", "commits.csv", KindKept, 3)
	RecordRow("filter", "commits.csv", KindKept, 0)
	RecordLines("filter", "commits.csv", 1000)
	RecordLines("filter", "commits.csv", -1)
	RecordBatches("load", 2)

	want := []counterCall{
		{RowsTotal, 3, Labels{"job": "filter", "file": "commits.csv", "kind": KindKept}},
		{LinesReadTotal, 1000, Labels{"job": "filter", "file": "commits.csv"}},
		{BatchesTotal, 2, Labels{"job": "load"}},
	}
	if len(fb.counters) != len(want) {
		t.Fatalf("got %d counter calls, want %d", len(fb.counters), len(want))
	}
	for i, w := range want {
		got := fb.counters[i]
		if got.name != w.name || got.delta != w.delta {
			t.Errorf("counter[%d] = %s/%v, want %s/%v", i, got.name, got.delta, w.name, w.delta)
		}
		for k, v := range w.labels {
			if got.labels[k] != v {
				t.Errorf("counter[%d] label %s = %q, want %q", i, k, got.labels[k], v)
			}
		}
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	SetBackend(fb)
	SetBackend(nil)
	if backend != fb {
		t.Fatal("SetBackend(nil) replaced the backend")
	}
	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if fb.flushes != 1 {
		t.Fatalf("flushes = %d, want 1", fb.flushes)
	}
}
