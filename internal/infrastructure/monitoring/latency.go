package monitoring

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

const latencyWindow = 1024

// Latency summarises a window of durations in milliseconds.
type Latency struct {
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean_ms"`
	P50     float64 `json:"p50_ms"`
	P95     float64 `json:"p95_ms"`
	P99     float64 `json:"p99_ms"`
	Max     float64 `json:"max_ms"`
}

// window is a fixed-size ring of samples. It is not safe for concurrent
// use; Metrics guards it with its own lock.
type window struct {
	samples []float64
	next    int
	full    bool
}

func newWindow(size int) *window {
	return &window{samples: make([]float64, size)}
}

func (w *window) add(v float64) {
	w.samples[w.next] = v
	w.next++
	if w.next == len(w.samples) {
		w.next = 0
		w.full = true
	}
}

func (w *window) values() []float64 {
	if w.full {
		return w.samples
	}
	return w.samples[:w.next]
}

func (w *window) latency() Latency {
	values := w.values()
	if len(values) == 0 {
		return Latency{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Latency{
		Samples: len(sorted),
		Mean:    stat.Mean(sorted, nil),
		P50:     stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P95:     stat.Quantile(0.95, stat.Empirical, sorted, nil),
		P99:     stat.Quantile(0.99, stat.Empirical, sorted, nil),
		Max:     sorted[len(sorted)-1],
	}
}
