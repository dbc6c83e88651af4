package pipeline

import "github.com/mira-agent/mira/internal/domain"

// throttleController is the hysteresis state machine behind the throttled
// flag. A single off-trend frame never flips the state: entry requires
// throttleThreshold consecutive over-budget frames, exit requires
// recoveryThreshold consecutive under-budget frames.
type throttleController struct {
	throttleThreshold int
	recoveryThreshold int

	throttled   bool
	overStreak  int
	underStreak int
}

func newThrottleController(throttleThreshold, recoveryThreshold int) *throttleController {
	if throttleThreshold < 1 {
		throttleThreshold = 1
	}
	if recoveryThreshold < 1 {
		recoveryThreshold = 1
	}
	return &throttleController{
		throttleThreshold: throttleThreshold,
		recoveryThreshold: recoveryThreshold,
	}
}

// Observe feeds one frame's budget result into the machine and reports
// whether the throttled flag flipped on this exact frame.
func (t *throttleController) Observe(overBudget bool) (changed bool) {
	if overBudget {
		t.overStreak++
		t.underStreak = 0
	} else {
		t.underStreak++
		t.overStreak = 0
	}

	switch {
	case !t.throttled && t.overStreak >= t.throttleThreshold:
		t.throttled = true
		return true
	case t.throttled && t.underStreak >= t.recoveryThreshold:
		t.throttled = false
		return true
	}
	return false
}

// Throttled reports the current state.
func (t *throttleController) Throttled() bool { return t.throttled }

// Reset returns the machine to its initial untouched state.
func (t *throttleController) Reset() {
	t.throttled = false
	t.overStreak = 0
	t.underStreak = 0
}

// Snapshot exposes the streaks for diagnostics.
func (t *throttleController) Snapshot() domain.ThrottleState {
	return domain.ThrottleState{
		Throttled:         t.throttled,
		OverBudgetStreak:  t.overStreak,
		UnderBudgetStreak: t.underStreak,
	}
}
