// Package pipeline implements the adaptive, deadline-aware render pacing
// core for the Mira agent: per-frame budget accounting, priority admission
// control, closed-loop quality adaptation, hysteresis throttle detection,
// and occlusion-aware culling, all driven by a single Tick entry point.
package pipeline

import (
	"time"

	"github.com/mira-agent/mira/internal/domain"
)

// Config configures one pacing engine instance. Zero or out-of-range values
// are clamped by normalize() rather than rejected — the render loop must
// never fail to start over a bad number.
type Config struct {
	TargetFPS         int             // initial target refresh rate (default 60)
	Budget            time.Duration   // per-frame work allowance (default 12ms)
	BufferPercent     float64         // safety margin held back from admission (default 10)
	MarginFactor      float64         // fraction of remaining budget tasks may fill (default 0.8)
	ThrottleThreshold int             // consecutive over-budget frames before throttling (default 3)
	RecoveryThreshold int             // consecutive under-budget frames before recovery (default 5)
	MinLOD            domain.LODLevel // floor for quality adaptation (default minimal)
	AutoLOD           bool            // closed-loop LOD adjustment (default true)
	Occlusion         bool            // occlusion-aware culling (default true)
	DeferLowPriority  bool            // bulk-defer low/deferred work past half budget (default true)
	SampleWindow      int             // judder ring length in frames (default 60)
	StatsSampleWindow int             // metrics ring length in frames (default 120)
	JudderThreshold   float64         // judder score that forces a rate step down (default 0.3)
	RateCooldown      time.Duration   // minimum spacing between rate changes (default 2s)
	BatteryFPSCap     int             // rate cap while battery is low (default 30)
}

// DefaultConfig returns production pacing defaults tuned for a 60Hz surface.
func DefaultConfig() Config {
	return Config{
		TargetFPS:         60,
		Budget:            12 * time.Millisecond,
		BufferPercent:     10,
		MarginFactor:      0.8,
		ThrottleThreshold: 3,
		RecoveryThreshold: 5,
		MinLOD:            domain.LODMinimal,
		AutoLOD:           true,
		Occlusion:         true,
		DeferLowPriority:  true,
		SampleWindow:      60,
		StatsSampleWindow: 120,
		JudderThreshold:   0.3,
		RateCooldown:      2 * time.Second,
		BatteryFPSCap:     30,
	}
}

// normalize clamps invalid numeric configuration into safe bounds.
// A zero budget is left at zero: every frame simply reads as over budget.
func (c Config) normalize() Config {
	if c.TargetFPS <= 0 {
		c.TargetFPS = 60
	}
	if c.Budget < 0 {
		c.Budget = 0
	}
	if c.BufferPercent < 0 {
		c.BufferPercent = 0
	}
	if c.BufferPercent > 100 {
		c.BufferPercent = 100
	}
	if c.MarginFactor <= 0 || c.MarginFactor > 1 {
		c.MarginFactor = 0.8
	}
	if c.ThrottleThreshold < 1 {
		c.ThrottleThreshold = 1
	}
	if c.RecoveryThreshold < 1 {
		c.RecoveryThreshold = 1
	}
	if c.MinLOD < domain.LODMinimal || c.MinLOD > domain.LODUltra {
		c.MinLOD = domain.LODMinimal
	}
	if c.SampleWindow < 1 {
		c.SampleWindow = 60
	}
	if c.StatsSampleWindow < 1 {
		c.StatsSampleWindow = 120
	}
	if c.JudderThreshold <= 0 {
		c.JudderThreshold = 0.3
	}
	if c.RateCooldown < 0 {
		c.RateCooldown = 0
	}
	if c.BatteryFPSCap <= 0 {
		c.BatteryFPSCap = 30
	}
	return c
}

// targetInterval is the frame interval implied by the target rate.
func targetInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Second / time.Duration(fps)
}
