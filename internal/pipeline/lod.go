package pipeline

import (
	"time"

	"github.com/mira-agent/mira/internal/domain"
)

// lodController owns the single mutable quality tier of one engine instance.
// Requests below the configured minimum are clamped up; re-requesting the
// active tier is a no-op with no event and no counter increment.
type lodController struct {
	current domain.LODLevel
	minLOD  domain.LODLevel
	changes int64

	lastChange time.Time
	cooldown   time.Duration
}

func newLODController(initial, min domain.LODLevel, cooldown time.Duration) *lodController {
	return &lodController{
		current:  initial.Clamp(min),
		minLOD:   min,
		cooldown: cooldown,
	}
}

// Request asks for a tier. Returns whether the state changed and the
// from/to pair for the change notification.
func (l *lodController) Request(level domain.LODLevel) (changed bool, from, to domain.LODLevel) {
	level = level.Clamp(l.minLOD)
	if level > domain.LODUltra {
		level = domain.LODUltra
	}
	if level == l.current {
		return false, l.current, l.current
	}
	from = l.current
	l.current = level
	l.changes++
	return true, from, level
}

// StepDown lowers quality one tier under pressure, respecting the floor.
// Unlike StepUp it is not cooldown-gated: shedding load must not wait.
func (l *lodController) StepDown(now time.Time) (changed bool, from, to domain.LODLevel) {
	changed, from, to = l.Request(l.current.StepDown(l.minLOD))
	if changed {
		l.lastChange = now
	}
	return changed, from, to
}

// StepUp raises quality one tier after sustained smooth operation. Gated by
// the cooldown so recovery never oscillates against the next step down.
func (l *lodController) StepUp(now time.Time) (changed bool, from, to domain.LODLevel) {
	if now.Sub(l.lastChange) < l.cooldown {
		return false, l.current, l.current
	}
	changed, from, to = l.Request(l.current.StepUp())
	if changed {
		l.lastChange = now
	}
	return changed, from, to
}

// Current returns the active tier.
func (l *lodController) Current() domain.LODLevel { return l.current }

// Changes returns how many times the tier has changed.
func (l *lodController) Changes() int64 { return l.changes }

// ResetCounters zeroes the change counter without touching the tier.
func (l *lodController) ResetCounters() { l.changes = 0 }
