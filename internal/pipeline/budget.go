package pipeline

import (
	"time"

	"github.com/mira-agent/mira/internal/domain"
)

// budgetTracker measures time used and remaining within the current frame.
// Invariant: remaining ∈ [0, total]; used == total is NOT over budget.
type budgetTracker struct {
	total         time.Duration
	bufferPercent float64

	frameStart time.Time
	used       time.Duration
	inFrame    bool
}

func newBudgetTracker(total time.Duration, bufferPercent float64) *budgetTracker {
	if total < 0 {
		total = 0
	}
	return &budgetTracker{total: total, bufferPercent: bufferPercent}
}

// BeginFrame stamps the frame start and resets used time.
func (b *budgetTracker) BeginFrame(now time.Time) {
	b.frameStart = now
	b.used = 0
	b.inFrame = true
}

// EndFrame closes the frame and returns how far over budget it ran
// (zero when within budget).
func (b *budgetTracker) EndFrame(now time.Time) time.Duration {
	if !b.inFrame {
		return 0
	}
	b.used = now.Sub(b.frameStart)
	if b.used < 0 {
		b.used = 0
	}
	b.inFrame = false
	if over := b.used - b.total; over > 0 {
		return over
	}
	return 0
}

// OverBudget reports whether the last frame exceeded the allowance.
// Exactly on budget counts as within.
func (b *budgetTracker) OverBudget() bool {
	return b.used > b.total
}

// Remaining returns the unspent allowance, floored at zero.
func (b *budgetTracker) Remaining() time.Duration {
	if rem := b.total - b.used; rem > 0 {
		return rem
	}
	return 0
}

// HasRemaining reports whether cost fits after holding back the safety
// margin: remaining × (1 − buffer%/100) must cover it.
func (b *budgetTracker) HasRemaining(cost time.Duration) bool {
	usable := float64(b.Remaining()) * (1 - b.bufferPercent/100)
	return usable >= float64(cost)
}

// Snapshot returns the externally visible accounting for the last frame.
func (b *budgetTracker) Snapshot() domain.FrameBudget {
	totalMs := float64(b.total) / float64(time.Millisecond)
	usedMs := float64(b.used) / float64(time.Millisecond)
	pct := 0.0
	if b.total > 0 {
		pct = usedMs / totalMs * 100
	} else if b.used > 0 {
		pct = 100
	}
	return domain.FrameBudget{
		TotalMs:        totalMs,
		UsedMs:         usedMs,
		RemainingMs:    float64(b.Remaining()) / float64(time.Millisecond),
		OverBudget:     b.OverBudget(),
		UtilizationPct: pct,
	}
}
