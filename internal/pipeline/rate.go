package pipeline

import (
	"time"
)

// rateCandidates are the discrete refresh rates the selector may choose.
var rateCandidates = []int{30, 60, 90, 120}

// Signals are the external pressure inputs to rate selection, fed by the
// device monitor.
type Signals struct {
	BatteryLow       bool
	ThermalThrottled bool
}

// rateSelector picks a discrete target refresh rate from judder, battery,
// and thermal signals. Changes are cooldown-gated to prevent thrashing, and
// every result is snapped to the nearest valid candidate.
type rateSelector struct {
	judderThreshold float64
	cooldown        time.Duration
	batteryCap      int

	lastChange time.Time
}

func newRateSelector(judderThreshold float64, cooldown time.Duration, batteryCap int) *rateSelector {
	return &rateSelector{
		judderThreshold: judderThreshold,
		cooldown:        cooldown,
		batteryCap:      snapRate(batteryCap),
	}
}

// Select returns the next target rate starting from current. Hard clamps
// (battery, thermal) apply immediately; judder-driven steps respect the
// cooldown window. Stepping up additionally requires allowUp, which callers
// withhold until a full measurement window backs the score.
func (r *rateSelector) Select(now time.Time, current int, judderScore, achievedFPS float64, sig Signals, allowUp bool) int {
	rate := snapRate(current)

	// Hard environmental clamps are not subject to cooldown.
	if sig.BatteryLow && rate > r.batteryCap {
		rate = r.batteryCap
	}
	if sig.ThermalThrottled && rate > 60 {
		rate = 60
	}

	if rate == snapRate(current) {
		if now.Sub(r.lastChange) < r.cooldown {
			return rate
		}
		if judderScore > r.judderThreshold && rate > rateCandidates[0] {
			rate = stepRate(rate, -1)
		} else if allowUp && !sig.BatteryLow && !sig.ThermalThrottled &&
			judderScore < r.judderThreshold/2 &&
			achievedFPS >= 0.95*float64(rate) &&
			rate < rateCandidates[len(rateCandidates)-1] {
			rate = stepRate(rate, +1)
		}
	}

	if rate != snapRate(current) {
		r.lastChange = now
	}
	return rate
}

// snapRate maps any value to the nearest valid candidate.
func snapRate(v int) int {
	best := rateCandidates[0]
	bestDist := abs(v - best)
	for _, c := range rateCandidates[1:] {
		if d := abs(v - c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// stepRate moves one position through the candidate ladder.
func stepRate(v, dir int) int {
	for i, c := range rateCandidates {
		if c == snapRate(v) {
			i += dir
			if i < 0 {
				i = 0
			}
			if i >= len(rateCandidates) {
				i = len(rateCandidates) - 1
			}
			return rateCandidates[i]
		}
	}
	return snapRate(v)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
