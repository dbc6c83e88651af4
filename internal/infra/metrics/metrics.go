// Package metrics provides Prometheus metrics for Mira.
// Counters, gauges, and histograms covering frame pacing, render work,
// adaptation decisions, and device signals.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Frames ─────────────────────────────────────────────────────────────────

// FrameTime tracks per-frame render duration in milliseconds.
var FrameTime = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "mira",
	Name:      "frame_time_milliseconds",
	Help:      "Per-frame render duration in milliseconds.",
	Buckets:   []float64{1, 2, 4, 8, 12, 16, 24, 33, 50, 100},
})

// FramesRendered tracks total rendered frames.
var FramesRendered = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mira",
	Name:      "frames_rendered_total",
	Help:      "Total frames rendered.",
})

// FramesDropped tracks frames missed or intentionally skipped.
var FramesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mira",
	Name:      "frames_dropped_total",
	Help:      "Total frames dropped, by cause.",
}, []string{"cause"})

// BudgetOverruns tracks frames that exceeded their time budget.
var BudgetOverruns = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mira",
	Name:      "budget_overruns_total",
	Help:      "Total frames that exceeded the frame time budget.",
})

// CurrentFPS tracks the smoothed achieved frame rate.
var CurrentFPS = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mira",
	Name:      "fps_current",
	Help:      "Smoothed achieved frames per second.",
})

// TargetFPS tracks the selected target refresh rate.
var TargetFPS = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mira",
	Name:      "fps_target",
	Help:      "Selected target refresh rate.",
})

// ─── Render Work ────────────────────────────────────────────────────────────

// TasksExecuted tracks executed render tasks.
var TasksExecuted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mira",
	Name:      "tasks_executed_total",
	Help:      "Total executed render tasks.",
})

// TasksSkipped tracks tasks skipped for lack of budget.
var TasksSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mira",
	Name:      "tasks_skipped_total",
	Help:      "Total tasks skipped because the frame budget ran out.",
})

// TaskErrors tracks task failures and panics.
var TaskErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mira",
	Name:      "task_errors_total",
	Help:      "Total render task errors, including recovered panics.",
})

// QueueDepth tracks tasks waiting for the next frame.
var QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mira",
	Name:      "queue_depth",
	Help:      "Number of tasks waiting for the next frame.",
})

// ─── Adaptation ─────────────────────────────────────────────────────────────

// JudderScore tracks the current judder severity (0-1).
var JudderScore = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mira",
	Name:      "judder_score",
	Help:      "Current judder severity score (0 smooth, 1 severe).",
})

// CurrentLOD tracks the active level of detail (0=minimal .. 4=ultra).
var CurrentLOD = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mira",
	Name:      "lod_level",
	Help:      "Active level of detail (0=minimal, 1=low, 2=medium, 3=high, 4=ultra).",
})

// LODChanges tracks level-of-detail transitions by direction.
var LODChanges = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mira",
	Name:      "lod_changes_total",
	Help:      "Total level-of-detail transitions.",
}, []string{"direction"})

// Throttled reports whether the pipeline is currently throttled.
var Throttled = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mira",
	Name:      "throttled",
	Help:      "Whether the pipeline is currently throttled (1) or not (0).",
})

// RateChanges tracks refresh-rate reselections by direction.
var RateChanges = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mira",
	Name:      "rate_changes_total",
	Help:      "Total target refresh rate changes.",
}, []string{"direction"})

// ─── Device ─────────────────────────────────────────────────────────────────

// BatteryLow reports the low-battery signal state.
var BatteryLow = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mira",
	Name:      "battery_low",
	Help:      "Whether the low-battery signal is raised (1) or not (0).",
})

// ThermalThrottled reports the thermal signal state.
var ThermalThrottled = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mira",
	Name:      "thermal_throttled",
	Help:      "Whether the thermal signal is raised (1) or not (0).",
})

// boolGauge converts a bool to the 0/1 convention used by the gauges above.
func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// SetSignals publishes the device signal gauges.
func SetSignals(batteryLow, thermal bool) {
	BatteryLow.Set(boolGauge(batteryLow))
	ThermalThrottled.Set(boolGauge(thermal))
}

// SetThrottled publishes the throttle gauge.
func SetThrottled(v bool) {
	Throttled.Set(boolGauge(v))
}
