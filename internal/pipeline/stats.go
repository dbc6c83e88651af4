package pipeline

import (
	"math"
	"sort"
	"time"

	"github.com/mira-agent/mira/internal/domain"
)

// statsAggregator keeps rolling frame-timing statistics over a bounded
// sample window. Percentiles are sort-on-read; at these window sizes
// (≤ a few hundred samples) that beats maintaining an order-statistics
// structure.
type statsAggregator struct {
	samples *ring[float64] // frame times, ms

	framesRendered  int64
	framesDropped   int64
	throttledFrames int64
	budgetOverruns  int64
}

func newStatsAggregator(window int) *statsAggregator {
	return &statsAggregator{samples: newRing[float64](window)}
}

// RecordFrame appends one rendered frame's wall time.
func (a *statsAggregator) RecordFrame(frameTime time.Duration) {
	a.framesRendered++
	a.samples.Append(float64(frameTime) / float64(time.Millisecond))
}

// RecordDropped counts frames the host refresh delivered late or not at all.
func (a *statsAggregator) RecordDropped(n int) {
	if n > 0 {
		a.framesDropped += int64(n)
	}
}

// RecordThrottled counts a tick skipped by the throttled fallback cadence.
func (a *statsAggregator) RecordThrottled() { a.throttledFrames++ }

// RecordOverrun counts a frame that blew its budget.
func (a *statsAggregator) RecordOverrun() { a.budgetOverruns++ }

// Reset returns every counter and sample to the freshly constructed state.
func (a *statsAggregator) Reset() {
	a.samples.Reset()
	a.framesRendered = 0
	a.framesDropped = 0
	a.throttledFrames = 0
	a.budgetOverruns = 0
}

// Snapshot folds the window into the exposed metrics structure. Scheduler
// counters and the LOD change count are merged in by the engine.
func (a *statsAggregator) Snapshot() domain.PipelineMetrics {
	m := domain.PipelineMetrics{
		FramesRendered:  a.framesRendered,
		FramesDropped:   a.framesDropped,
		ThrottledFrames: a.throttledFrames,
		BudgetOverruns:  a.budgetOverruns,
	}
	if total := a.framesRendered + a.framesDropped; total > 0 {
		m.FrameDropRate = float64(a.framesDropped) / float64(total)
	}

	vals := a.samples.Values()
	if len(vals) == 0 {
		return m
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	sort.Float64s(vals)
	m.AvgFrameTimeMs = sum / float64(len(vals))
	m.P50FrameTimeMs = percentile(vals, 50)
	m.P95FrameTimeMs = percentile(vals, 95)
	m.P99FrameTimeMs = percentile(vals, 99)
	return m
}

// percentile reads the pth percentile from an ascending-sorted slice using
// the nearest-rank method.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
