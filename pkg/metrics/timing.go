// Package metrics records in-process timings and cache counters for the
// tree engine: flattening, offset recomputation, measurement passes, row
// rendering and source loads.
//
// Collection is on unless VT_METRICS=0. `vt --metrics` prints a Snapshot
// on exit.
//
//	func flatten() {
//	    defer metrics.Timer(metrics.Flatten)()
//	    ...
//	}
package metrics

import (
	"math"
	"os"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("VT_METRICS") != "0")
}

// Enabled reports whether samples are recorded.
func Enabled() bool { return enabled.Load() }

// SetEnabled turns collection on or off.
func SetEnabled(e bool) { enabled.Store(e) }

// TimingMetric aggregates durations of one operation.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64
	max   atomic.Int64
	min   atomic.Int64 // math.MaxInt64 while empty
}

var timings []*TimingMetric

func newTimingMetric(name string) *TimingMetric {
	m := &TimingMetric{name: name}
	m.min.Store(math.MaxInt64)
	return m
}

// registerTiming creates a metric that Snapshot and ResetAll cover.
func registerTiming(name string) *TimingMetric {
	m := newTimingMetric(name)
	timings = append(timings, m)
	return m
}

// Engine timings.
var (
	Flatten         = registerTiming("flatten")
	OffsetRecompute = registerTiming("offset_recompute")
	Measure         = registerTiming("measure")
	RowRender       = registerTiming("row_render")
	FrameRender     = registerTiming("frame_render")
	SourceLoad      = registerTiming("source_load")
)

// Record adds one sample.
func (m *TimingMetric) Record(d time.Duration) {
	if !enabled.Load() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.total.Add(ns)
	raise(&m.max, ns)
	lower(&m.min, ns)
}

func raise(v *atomic.Int64, ns int64) {
	for {
		cur := v.Load()
		if ns <= cur || v.CompareAndSwap(cur, ns) {
			return
		}
	}
}

func lower(v *atomic.Int64, ns int64) {
	for {
		cur := v.Load()
		if ns >= cur || v.CompareAndSwap(cur, ns) {
			return
		}
	}
}

func (m *TimingMetric) Name() string { return m.name }

func (m *TimingMetric) Count() int64 { return m.count.Load() }

func (m *TimingMetric) TotalNs() int64 { return m.total.Load() }

func (m *TimingMetric) MaxNs() int64 { return m.max.Load() }

// MinNs returns the smallest sample, or 0 without samples.
func (m *TimingMetric) MinNs() int64 {
	if v := m.min.Load(); v != math.MaxInt64 {
		return v
	}
	return 0
}

// AvgNs returns the mean sample, or 0 without samples.
func (m *TimingMetric) AvgNs() int64 {
	n := m.count.Load()
	if n == 0 {
		return 0
	}
	return m.total.Load() / n
}

// Reset drops every sample.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.total.Store(0)
	m.max.Store(0)
	m.min.Store(math.MaxInt64)
}

// TimingStats is the serialized form of a TimingMetric.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

func ms(ns int64) float64 { return float64(ns) / 1e6 }

// Stats returns the current aggregates.
func (m *TimingMetric) Stats() TimingStats {
	return TimingStats{
		Name:    m.name,
		Count:   m.Count(),
		TotalMs: ms(m.TotalNs()),
		AvgMs:   ms(m.AvgNs()),
		MaxMs:   ms(m.MaxNs()),
		MinMs:   ms(m.MinNs()),
	}
}

// Timer starts timing m; call the result to record the sample.
func Timer(m *TimingMetric) func() {
	return TimerWithCallback(m, nil)
}

// TimerWithCallback is Timer that also hands the duration to cb.
func TimerWithCallback(m *TimingMetric, cb func(time.Duration)) func() {
	if m == nil || !enabled.Load() {
		return func() {}
	}
	start := time.Now()
	return func() {
		d := time.Since(start)
		m.Record(d)
		if cb != nil {
			cb(d)
		}
	}
}

// AllTimingMetrics returns the registered timings.
func AllTimingMetrics() []*TimingMetric {
	return timings
}

// AllTimingStats returns stats of the timings that have samples.
func AllTimingStats() []TimingStats {
	var out []TimingStats
	for _, m := range timings {
		if m.Count() > 0 {
			out = append(out, m.Stats())
		}
	}
	return out
}

// ResetAll clears every registered metric.
func ResetAll() {
	for _, m := range timings {
		m.Reset()
	}
	for _, c := range caches {
		c.Reset()
	}
}
