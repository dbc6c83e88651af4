package pipeline

import (
	"math"
	"time"

	"github.com/mira-agent/mira/internal/domain"
)

// missFactor marks a frame delta as a delivery miss once it exceeds
// 1.5× the target interval.
const missFactor = 1.5

// judderAnalyzer scores frame-delivery smoothness from a bounded window of
// inter-frame deltas. Score blends timing spread and miss rate equally:
// a low frame rate that is perfectly regular scores near zero, while an
// irregular one scores high even at the same average rate.
type judderAnalyzer struct {
	deltas *ring[time.Duration]
}

func newJudderAnalyzer(window int) *judderAnalyzer {
	return &judderAnalyzer{deltas: newRing[time.Duration](window)}
}

// Record appends one inter-frame delta.
func (j *judderAnalyzer) Record(delta time.Duration) {
	if delta < 0 {
		delta = 0
	}
	j.deltas.Append(delta)
}

// Reset discards the window.
func (j *judderAnalyzer) Reset() {
	j.deltas.Reset()
}

// Metrics computes the smoothness snapshot against the given target interval.
func (j *judderAnalyzer) Metrics(target time.Duration) domain.JudderMetrics {
	vals := j.deltas.Values()
	if len(vals) == 0 || target <= 0 {
		return domain.JudderMetrics{}
	}

	targetMs := float64(target) / float64(time.Millisecond)
	missCutoff := time.Duration(float64(target) * missFactor)

	var sumMs, windowMs float64
	misses, run, longestRun := 0, 0, 0
	for _, d := range vals {
		ms := float64(d) / float64(time.Millisecond)
		sumMs += ms
		windowMs += ms
		if d > missCutoff {
			misses++
			run++
			if run > longestRun {
				longestRun = run
			}
		} else {
			run = 0
		}
	}
	mean := sumMs / float64(len(vals))

	var variance float64
	for _, d := range vals {
		ms := float64(d) / float64(time.Millisecond)
		variance += (ms - mean) * (ms - mean)
	}
	variance /= float64(len(vals))

	normStdDev := math.Sqrt(variance) / targetMs
	missRate := float64(misses) / float64(len(vals))
	score := clamp01(0.5*normStdDev + 0.5*missRate)

	eventsPerSec := 0.0
	if windowMs > 0 {
		eventsPerSec = float64(misses) / (windowMs / 1000)
	}

	return domain.JudderMetrics{
		Score:             score,
		Variance:          variance,
		ConsecutiveMisses: longestRun,
		EventsPerSecond:   eventsPerSec,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
