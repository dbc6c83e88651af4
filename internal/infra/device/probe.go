// Package device probes host capabilities and watches power and thermal
// sensors so the render pipeline can adapt its pacing to the machine it
// runs on. Sensor reads are best-effort: on hosts where a sensor is
// missing the readers return safe values that never trigger throttling.
package device

import (
	"runtime"

	"github.com/mira-agent/mira/internal/domain"
)

// Tier classifies the host into a coarse performance bucket.
type Tier int

const (
	TierUnknown Tier = iota
	TierLow
	TierMid
	TierHigh
)

// String returns the human-readable tier name.
func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMid:
		return "mid"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Capabilities describes what was learned about the host.
type Capabilities struct {
	Cores      int    `json:"cores"`
	HasBattery bool   `json:"has_battery"`
	Tier       Tier   `json:"-"`
	TierName   string `json:"tier"`
}

// Probe inspects the host and classifies it. Probing never fails: when
// a capability cannot be determined the host lands in TierUnknown and
// downstream consumers treat it like TierLow.
func Probe() Capabilities {
	cores := runtime.NumCPU()
	tier := classify(cores)
	return Capabilities{
		Cores:      cores,
		HasBattery: hasBattery(),
		Tier:       tier,
		TierName:   tier.String(),
	}
}

func classify(cores int) Tier {
	switch {
	case cores <= 0:
		return TierUnknown
	case cores <= 2:
		return TierLow
	case cores <= 6:
		return TierMid
	default:
		return TierHigh
	}
}

// RecommendedFPS returns a sensible starting refresh target for the tier.
// Unknown hosts get the low-tier target so a misprobe never overcommits.
func (t Tier) RecommendedFPS() int {
	switch t {
	case TierMid:
		return 60
	case TierHigh:
		return 90
	default:
		return 30
	}
}

// RecommendedLOD returns a starting detail level for the tier.
func (t Tier) RecommendedLOD() domain.LODLevel {
	switch t {
	case TierMid:
		return domain.LODMedium
	case TierHigh:
		return domain.LODHigh
	default:
		return domain.LODLow
	}
}
