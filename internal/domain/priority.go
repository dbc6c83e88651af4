package domain

// Priority classes for scheduled render work. Lower value = more urgent.
// Critical work is exempt from budget admission and is never dropped.
const (
	PriorityCritical = 0 // must run this frame (pose update, lip sync)
	PriorityHigh     = 1 // visible motion (blink, gesture continuation)
	PriorityNormal   = 2 // secondary animation
	PriorityLow      = 3 // ambient polish (idle sway, particles)
	PriorityDeferred = 4 // opportunistic (prefetch, cache warm)
)

// PriorityLabel returns a human-readable label for a priority class.
func PriorityLabel(p int) string {
	switch p {
	case PriorityCritical:
		return "CRITICAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityNormal:
		return "NORMAL"
	case PriorityLow:
		return "LOW"
	case PriorityDeferred:
		return "DEFERRED"
	default:
		return "UNKNOWN"
	}
}

// ClampPriority forces p into the valid [critical, deferred] range.
func ClampPriority(p int) int {
	if p < PriorityCritical {
		return PriorityCritical
	}
	if p > PriorityDeferred {
		return PriorityDeferred
	}
	return p
}
