package device

import (
	"testing"

	"github.com/mira-agent/mira/internal/domain"
	"github.com/mira-agent/mira/internal/pipeline"
)

// ─── Probe Tests ────────────────────────────────────────────────────────────

func TestClassify(t *testing.T) {
	cases := []struct {
		cores int
		want  Tier
	}{
		{0, TierUnknown},
		{-1, TierUnknown},
		{1, TierLow},
		{2, TierLow},
		{4, TierMid},
		{6, TierMid},
		{8, TierHigh},
		{32, TierHigh},
	}
	for _, tc := range cases {
		if got := classify(tc.cores); got != tc.want {
			t.Errorf("classify(%d) = %v, want %v", tc.cores, got, tc.want)
		}
	}
}

func TestTier_RecommendedFPS(t *testing.T) {
	if got := TierUnknown.RecommendedFPS(); got != 30 {
		t.Errorf("unknown tier FPS = %d, want 30 (conservative)", got)
	}
	if got := TierLow.RecommendedFPS(); got != 30 {
		t.Errorf("low tier FPS = %d, want 30", got)
	}
	if got := TierMid.RecommendedFPS(); got != 60 {
		t.Errorf("mid tier FPS = %d, want 60", got)
	}
	if got := TierHigh.RecommendedFPS(); got != 90 {
		t.Errorf("high tier FPS = %d, want 90", got)
	}
}

func TestTier_RecommendedLOD(t *testing.T) {
	if got := TierUnknown.RecommendedLOD(); got != domain.LODLow {
		t.Errorf("unknown tier LOD = %v, want low", got)
	}
	if got := TierHigh.RecommendedLOD(); got != domain.LODHigh {
		t.Errorf("high tier LOD = %v, want high", got)
	}
}

func TestProbe_NeverFails(t *testing.T) {
	caps := Probe()
	if caps.Cores < 1 {
		t.Errorf("Cores = %d, want >= 1", caps.Cores)
	}
	if caps.Tier == TierUnknown {
		t.Errorf("Tier = unknown on a live host with %d cores", caps.Cores)
	}
	if caps.TierName != caps.Tier.String() {
		t.Errorf("TierName = %q, want %q", caps.TierName, caps.Tier.String())
	}
}

// ─── Monitor Tests ──────────────────────────────────────────────────────────

type stubThermal struct{ temp int }

func (s *stubThermal) CPUTemp() int { return s.temp }

type stubBattery struct {
	present  bool
	pct      int
	charging bool
}

func (s *stubBattery) IsPresent() bool  { return s.present }
func (s *stubBattery) Percentage() int  { return s.pct }
func (s *stubBattery) IsCharging() bool { return s.charging }

func newTestMonitor(t *testing.T, th *stubThermal, bat *stubBattery, notify func(pipeline.Signals)) *Monitor {
	t.Helper()
	m := NewMonitor(DefaultMonitorConfig(), notify)
	m.thermal = th
	m.battery = bat
	return m
}

func TestMonitor_InitialSignalsClear(t *testing.T) {
	m := newTestMonitor(t, &stubThermal{temp: 40}, &stubBattery{}, nil)
	m.tick()

	sig := m.Signals()
	if sig.BatteryLow || sig.ThermalThrottled {
		t.Errorf("cool desktop host raised signals: %+v", sig)
	}
}

func TestMonitor_ThermalHysteresis(t *testing.T) {
	th := &stubThermal{temp: 85}
	m := newTestMonitor(t, th, &stubBattery{}, nil)

	m.tick()
	if !m.Signals().ThermalThrottled {
		t.Fatal("85C should raise the thermal signal")
	}

	// Between clear and throttle thresholds: signal holds.
	th.temp = 76
	m.tick()
	if !m.Signals().ThermalThrottled {
		t.Error("76C is above the clear threshold, signal should hold")
	}

	th.temp = 60
	m.tick()
	if m.Signals().ThermalThrottled {
		t.Error("60C should clear the thermal signal")
	}
}

func TestMonitor_BatteryLow(t *testing.T) {
	bat := &stubBattery{present: true, pct: 15, charging: false}
	m := newTestMonitor(t, &stubThermal{temp: 40}, bat, nil)

	m.tick()
	if !m.Signals().BatteryLow {
		t.Fatal("15% discharging should raise the low-battery signal")
	}

	// Between raise and clear thresholds: signal holds.
	bat.pct = 22
	m.tick()
	if !m.Signals().BatteryLow {
		t.Error("22% should hold the signal within the hysteresis band")
	}

	bat.pct = 30
	m.tick()
	if m.Signals().BatteryLow {
		t.Error("30% should clear the low-battery signal")
	}
}

func TestMonitor_ChargingClearsBatteryLow(t *testing.T) {
	bat := &stubBattery{present: true, pct: 10, charging: false}
	m := newTestMonitor(t, &stubThermal{temp: 40}, bat, nil)

	m.tick()
	if !m.Signals().BatteryLow {
		t.Fatal("10% discharging should raise the signal")
	}

	bat.charging = true
	m.tick()
	if m.Signals().BatteryLow {
		t.Error("plugging in should clear the signal regardless of charge level")
	}
}

func TestMonitor_NoBatteryNeverLow(t *testing.T) {
	m := newTestMonitor(t, &stubThermal{temp: 40}, &stubBattery{present: false, pct: 5}, nil)
	m.tick()
	if m.Signals().BatteryLow {
		t.Error("desktop without a battery must never report low battery")
	}
}

func TestMonitor_NotifyOnChangeOnly(t *testing.T) {
	var calls []pipeline.Signals
	th := &stubThermal{temp: 40}
	m := newTestMonitor(t, th, &stubBattery{}, func(s pipeline.Signals) {
		calls = append(calls, s)
	})

	m.tick()
	m.tick()
	if len(calls) != 0 {
		t.Fatalf("unchanged signals produced %d notifications", len(calls))
	}

	th.temp = 90
	m.tick()
	m.tick()
	if len(calls) != 1 {
		t.Fatalf("notifications = %d, want 1 (edge only)", len(calls))
	}
	if !calls[0].ThermalThrottled {
		t.Error("notification should carry the raised thermal signal")
	}
}

func TestNormalizeMonitorConfig(t *testing.T) {
	cfg := normalizeMonitorConfig(MonitorConfig{})
	def := DefaultMonitorConfig()
	if cfg.ThermalThrottle != def.ThermalThrottle || cfg.BatteryLowPct != def.BatteryLowPct {
		t.Errorf("zero config should take defaults, got %+v", cfg)
	}

	cfg = normalizeMonitorConfig(MonitorConfig{ThermalThrottle: 70, ThermalClear: 75})
	if cfg.ThermalClear >= cfg.ThermalThrottle {
		t.Errorf("clear threshold %d must stay below throttle %d", cfg.ThermalClear, cfg.ThermalThrottle)
	}
}
