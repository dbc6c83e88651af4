package pipeline

import (
	"time"

	"github.com/mira-agent/mira/internal/domain"
)

// staleAfter is how long an occlusion hint stays trustworthy. An unrefreshed
// hint fails open to visible so a stalled observer never blanks the agent.
const staleAfter = 500 * time.Millisecond

// occlusionRegistry holds per-element visibility hints used to skip work for
// off-screen elements. Unknown elements render by default.
type occlusionRegistry struct {
	enabled bool
	hints   map[string]domain.OcclusionHint
}

func newOcclusionRegistry(enabled bool) *occlusionRegistry {
	return &occlusionRegistry{
		enabled: enabled,
		hints:   make(map[string]domain.OcclusionHint),
	}
}

// Add upserts a hint for elementID, stamping it fresh.
func (o *occlusionRegistry) Add(now time.Time, elementID string, visible bool, visiblePercent float64) {
	if visiblePercent < 0 {
		visiblePercent = 0
	}
	if visiblePercent > 100 {
		visiblePercent = 100
	}
	o.hints[elementID] = domain.OcclusionHint{
		ElementID:      elementID,
		Visible:        visible,
		VisiblePercent: visiblePercent,
		LastChecked:    now,
	}
}

// Remove deletes the hint; later queries default back to visible.
func (o *occlusionRegistry) Remove(elementID string) {
	delete(o.hints, elementID)
}

// ShouldRender decides whether work for elementID may be skipped. True when
// culling is disabled, the element is unknown, or the hint has gone stale;
// otherwise the hint must say visible with a nonzero visible fraction.
func (o *occlusionRegistry) ShouldRender(now time.Time, elementID string) bool {
	if !o.enabled {
		return true
	}
	h, ok := o.hints[elementID]
	if !ok {
		return true
	}
	if now.Sub(h.LastChecked) > staleAfter {
		return true
	}
	return h.Visible && h.VisiblePercent > 0
}

// Len returns how many hints are registered.
func (o *occlusionRegistry) Len() int { return len(o.hints) }
