package device

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mira-agent/mira/internal/pipeline"
)

// MonitorConfig controls sensor polling and signal thresholds.
type MonitorConfig struct {
	ThermalThrottle int // CPU temp (C) at which the thermal signal raises (default: 80)
	ThermalClear    int // CPU temp (C) below which it clears again (default: 72)
	BatteryLowPct   int // Battery % below which the low-battery signal raises (default: 20)
	PollInterval    time.Duration
}

// DefaultMonitorConfig returns safe defaults.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		ThermalThrottle: 80,
		ThermalClear:    72,
		BatteryLowPct:   20,
		PollInterval:    5 * time.Second,
	}
}

type thermalReader interface {
	CPUTemp() int
}

type batteryReader interface {
	IsPresent() bool
	Percentage() int
	IsCharging() bool
}

// Monitor polls the host sensors and turns their readings into pacing
// signals for the render pipeline. Raise and clear use different
// thresholds so a temperature hovering at the throttle point does not
// flap the refresh rate.
type Monitor struct {
	mu      sync.RWMutex
	thermal thermalReader
	battery batteryReader
	config  MonitorConfig
	signals pipeline.Signals
	notify  func(pipeline.Signals)
}

// NewMonitor creates a sensor monitor. notify is invoked whenever the
// signal set changes; it may be nil.
func NewMonitor(cfg MonitorConfig, notify func(pipeline.Signals)) *Monitor {
	cfg = normalizeMonitorConfig(cfg)
	return &Monitor{
		thermal: NewThermalSensor(),
		battery: NewBatterySensor(),
		config:  cfg,
		notify:  notify,
	}
}

func normalizeMonitorConfig(cfg MonitorConfig) MonitorConfig {
	def := DefaultMonitorConfig()
	if cfg.ThermalThrottle <= 0 {
		cfg.ThermalThrottle = def.ThermalThrottle
	}
	if cfg.ThermalClear <= 0 || cfg.ThermalClear >= cfg.ThermalThrottle {
		cfg.ThermalClear = cfg.ThermalThrottle - 8
	}
	if cfg.BatteryLowPct <= 0 {
		cfg.BatteryLowPct = def.BatteryLowPct
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	return cfg
}

// Signals returns the current signal set (thread-safe).
func (m *Monitor) Signals() pipeline.Signals {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.signals
}

// Run starts the monitor poll loop. Call in a goroutine.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	m.tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

// tick re-reads the sensors and publishes any signal change.
func (m *Monitor) tick() {
	m.mu.Lock()
	prev := m.signals
	next := prev

	temp := m.thermal.CPUTemp()
	if temp >= m.config.ThermalThrottle {
		next.ThermalThrottled = true
	} else if temp < m.config.ThermalClear {
		next.ThermalThrottled = false
	}

	if m.battery.IsPresent() {
		pct := m.battery.Percentage()
		charging := m.battery.IsCharging()
		if charging || pct >= m.config.BatteryLowPct+5 {
			next.BatteryLow = false
		} else if pct < m.config.BatteryLowPct {
			next.BatteryLow = true
		}
	} else {
		next.BatteryLow = false
	}

	m.signals = next
	notify := m.notify
	m.mu.Unlock()

	if next != prev {
		log.Printf("[device] signals changed: battery_low=%v thermal=%v", next.BatteryLow, next.ThermalThrottled)
		if notify != nil {
			notify(next)
		}
	}
}
