package domain

import "time"

// Session summarizes one run of the render pipeline, from Start to Stop.
type Session struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at,omitempty"`
	TargetFPS      int       `json:"target_fps"`
	FramesRendered uint64    `json:"frames_rendered"`
	FramesDropped  uint64    `json:"frames_dropped"`
	AvgFrameMs     float64   `json:"avg_frame_ms"`
	P95FrameMs     float64   `json:"p95_frame_ms"`
	JudderScore    float64   `json:"judder_score"`
	FinalLOD       LODLevel  `json:"final_lod"`
}

// StatsSample is a periodic snapshot of pipeline health within a session.
type StatsSample struct {
	SessionID   string    `json:"session_id"`
	At          time.Time `json:"at"`
	FPS         float64   `json:"fps"`
	P95FrameMs  float64   `json:"p95_frame_ms"`
	JudderScore float64   `json:"judder_score"`
	LOD         LODLevel  `json:"lod"`
	QueueDepth  int       `json:"queue_depth"`
	Throttled   bool      `json:"throttled"`
}
