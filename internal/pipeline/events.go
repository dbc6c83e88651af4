package pipeline

import (
	"time"

	"github.com/mira-agent/mira/internal/domain"
)

// Hooks are the edge-triggered notifications an engine fires synchronously
// from within a tick. Every field is optional; a nil hook is skipped.
// Hooks must be fast — they run inside the frame budget.
type Hooks struct {
	// FrameRendered fires after each rendered frame with the measured work time.
	FrameRendered func(used time.Duration)
	// FrameDropped fires when the host refresh skipped count frames.
	FrameDropped func(count int)
	// RateChanged fires when the target refresh rate is reselected.
	RateChanged func(from, to int)
	// LODChanged fires exactly on a quality-tier transition.
	LODChanged func(from, to domain.LODLevel)
	// BudgetOverrun fires when a frame exceeds its allowance, with the excess.
	BudgetOverrun func(over time.Duration)
	// ThrottleChanged fires only on the throttle edge, never every frame.
	ThrottleChanged func(throttled bool)
}

func (h Hooks) frameRendered(used time.Duration) {
	if h.FrameRendered != nil {
		h.FrameRendered(used)
	}
}

func (h Hooks) rateChanged(from, to int) {
	if h.RateChanged != nil {
		h.RateChanged(from, to)
	}
}

func (h Hooks) frameDropped(count int) {
	if h.FrameDropped != nil {
		h.FrameDropped(count)
	}
}

func (h Hooks) lodChanged(from, to domain.LODLevel) {
	if h.LODChanged != nil {
		h.LODChanged(from, to)
	}
}

func (h Hooks) budgetOverrun(over time.Duration) {
	if h.BudgetOverrun != nil {
		h.BudgetOverrun(over)
	}
}

func (h Hooks) throttleChanged(throttled bool) {
	if h.ThrottleChanged != nil {
		h.ThrottleChanged(throttled)
	}
}
