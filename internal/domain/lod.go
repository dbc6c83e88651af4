// Package domain holds the pure types of the Mira render pacing core:
// quality tiers, work priorities, frame accounting snapshots, and the
// sentinel errors shared across packages.
package domain

import "fmt"

// LODLevel is a discrete visual-quality tier. Higher values render more
// detail and cost more frame time. The ordering is load-bearing: stepping
// "down" under pressure means moving toward LODMinimal.
type LODLevel int

const (
	LODMinimal LODLevel = iota
	LODLow
	LODMedium
	LODHigh
	LODUltra
)

// String returns the canonical lowercase name of the tier.
func (l LODLevel) String() string {
	switch l {
	case LODMinimal:
		return "minimal"
	case LODLow:
		return "low"
	case LODMedium:
		return "medium"
	case LODHigh:
		return "high"
	case LODUltra:
		return "ultra"
	default:
		return "unknown"
	}
}

// ParseLOD maps a config string to a tier.
func ParseLOD(s string) (LODLevel, error) {
	switch s {
	case "minimal":
		return LODMinimal, nil
	case "low":
		return LODLow, nil
	case "medium":
		return LODMedium, nil
	case "high":
		return LODHigh, nil
	case "ultra":
		return LODUltra, nil
	default:
		return LODMinimal, fmt.Errorf("%w: %q", ErrUnknownLOD, s)
	}
}

// Clamp raises l to min when it sits below it.
func (l LODLevel) Clamp(min LODLevel) LODLevel {
	if l < min {
		return min
	}
	return l
}

// StepDown returns the next tier toward minimal, bounded by min.
func (l LODLevel) StepDown(min LODLevel) LODLevel {
	if l <= min {
		return min
	}
	return l - 1
}

// StepUp returns the next tier toward ultra, saturating at LODUltra.
func (l LODLevel) StepUp() LODLevel {
	if l >= LODUltra {
		return LODUltra
	}
	return l + 1
}
