package domain

import "time"

// Visibility is the host's reported visibility of the agent surface.
type Visibility string

const (
	VisibilityVisible Visibility = "VISIBLE"
	VisibilityHidden  Visibility = "HIDDEN"
)

// FrameBudget is the per-frame time accounting snapshot. Recomputed every
// frame; Remaining never leaves [0, Total].
type FrameBudget struct {
	TotalMs        float64 `json:"total_ms"`
	UsedMs         float64 `json:"used_ms"`
	RemainingMs    float64 `json:"remaining_ms"`
	OverBudget     bool    `json:"over_budget"`
	UtilizationPct float64 `json:"utilization_pct"`
}

// JudderMetrics describes frame-delivery smoothness over the recent window.
// Score is 0 (perfectly smooth) to 1 (unwatchable).
type JudderMetrics struct {
	Score             float64 `json:"score"`
	Variance          float64 `json:"variance"`
	ConsecutiveMisses int     `json:"consecutive_misses"`
	EventsPerSecond   float64 `json:"events_per_second"`
}

// ThrottleState is the hysteresis machine's externally visible state.
type ThrottleState struct {
	Throttled         bool `json:"throttled"`
	OverBudgetStreak  int  `json:"over_budget_streak"`
	UnderBudgetStreak int  `json:"under_budget_streak"`
}

// OcclusionHint is an externally supplied visibility signal for one element.
type OcclusionHint struct {
	ElementID      string    `json:"element_id"`
	Visible        bool      `json:"visible"`
	VisiblePercent float64   `json:"visible_percent"`
	LastChecked    time.Time `json:"last_checked"`
}

// PipelineMetrics is the aggregate timing-health snapshot exposed to hosts.
type PipelineMetrics struct {
	FramesRendered  int64   `json:"frames_rendered"`
	FramesDropped   int64   `json:"frames_dropped"`
	FrameDropRate   float64 `json:"frame_drop_rate"`
	ThrottledFrames int64   `json:"throttled_frames"`
	AvgFrameTimeMs  float64 `json:"avg_frame_time_ms"`
	P50FrameTimeMs  float64 `json:"p50_frame_time_ms"`
	P95FrameTimeMs  float64 `json:"p95_frame_time_ms"`
	P99FrameTimeMs  float64 `json:"p99_frame_time_ms"`
	PassExecutions  int64   `json:"pass_executions"`
	PassSkips       int64   `json:"pass_skips"`
	TaskErrors      int64   `json:"task_errors"`
	LODChanges      int64   `json:"lod_changes"`
	BudgetOverruns  int64   `json:"budget_overruns"`
	CurrentLOD      string  `json:"current_lod"`
}

// State is the read-only control snapshot of one pacing engine instance.
type State struct {
	Active         bool        `json:"active"`
	Phase          string      `json:"phase"`
	QueueSize      int         `json:"queue_size"`
	CurrentFPS     float64     `json:"current_fps"`
	TargetFPS      int         `json:"target_fps"`
	Visibility     Visibility  `json:"visibility"`
	Throttled      bool        `json:"throttled"`
	ThrottleReason string      `json:"throttle_reason,omitempty"`
	Interpolation  float64     `json:"interpolation"`
	FrameBudget    FrameBudget `json:"frame_budget"`
	CurrentLOD     string      `json:"current_lod"`
}
