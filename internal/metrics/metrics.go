// Package metrics records operational counters for the dump tools behind a
// pluggable Backend. The default backend discards everything, so callers can
// instrument unconditionally; cmd/ wires Prometheus or Datadog when asked to.
package metrics

import "time"

// Metric names emitted by the helpers below.
const (
	StepTotal      = "ght_step_total"
	StepDuration   = "ght_step_duration_seconds"
	RowsTotal      = "ght_rows_total"
	BatchesTotal   = "ght_batches_total"
	LinesReadTotal = "ght_lines_read_total"
)

// Row kinds used with RecordRow.
const (
	KindRead     = "read"
	KindKept     = "kept"
	KindRejected = "rejected"
	KindInserted = "inserted"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend receives counters and duration observations.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics, if the backend buffers at all.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs b. It must be called before any metric is recorded.
// Passing nil keeps the current backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the installed backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of a job step (e.g. "projects",
// "commits") and observes its duration, labelled by outcome.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow adds delta rows of the given kind for a dump file.
func RecordRow(job, file, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{"job": job, "file": file, "kind": kind})
}

// RecordLines adds delta physical lines read from a dump file. It is fed by
// the parser's progress callback.
func RecordLines(job, file string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(LinesReadTotal, float64(delta), Labels{"job": job, "file": file})
}

// RecordBatches counts database batches flushed by a load job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{"job": job})
}
