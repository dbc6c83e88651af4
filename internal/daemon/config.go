// Package daemon manages the Mira daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mira-agent/mira/internal/domain"
	"github.com/mira-agent/mira/internal/pipeline"
)

// Config holds all daemon configuration.
type Config struct {
	Pipeline  PipelineConfig  `toml:"pipeline"`
	API       APIConfig       `toml:"api"`
	Device    DeviceConfig    `toml:"device"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Logging   LoggingConfig   `toml:"logging"`
}

// PipelineConfig controls frame pacing and adaptation.
type PipelineConfig struct {
	TargetFPS         int     `toml:"target_fps"`
	BudgetMs          float64 `toml:"budget_ms"`
	BufferPercent     float64 `toml:"buffer_percent"`
	MarginFactor      float64 `toml:"margin_factor"`
	ThrottleThreshold int     `toml:"throttle_threshold"`
	RecoveryThreshold int     `toml:"recovery_threshold"`
	MinLOD            string  `toml:"min_lod"`
	AutoLOD           bool    `toml:"auto_lod"`
	Occlusion         bool    `toml:"occlusion"`
	DeferLowPriority  bool    `toml:"defer_low_priority"`
	SampleWindow      int     `toml:"sample_window"`
	StatsSampleWindow int     `toml:"stats_sample_window"`
	JudderThreshold   float64 `toml:"judder_threshold"`
	RateCooldown      string  `toml:"rate_cooldown"`
	BatteryFPSCap     int     `toml:"battery_fps_cap"`
}

// APIConfig controls the HTTP control server.
type APIConfig struct {
	Enabled bool   `toml:"enabled"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

// DeviceConfig controls sensor polling.
type DeviceConfig struct {
	ThermalThrottle int    `toml:"thermal_throttle"`
	BatteryLowPct   int    `toml:"battery_low_pct"`
	PollInterval    string `toml:"poll_interval"`
}

// TelemetryConfig controls metrics and session persistence.
type TelemetryConfig struct {
	Prometheus      bool   `toml:"prometheus"`
	PersistSessions bool   `toml:"persist_sessions"`
	SampleInterval  string `toml:"sample_interval"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	homeDir := miraHome()
	return Config{
		Pipeline: PipelineConfig{
			TargetFPS:         60,
			BudgetMs:          12,
			BufferPercent:     10,
			MarginFactor:      0.8,
			ThrottleThreshold: 3,
			RecoveryThreshold: 5,
			MinLOD:            "minimal",
			AutoLOD:           true,
			Occlusion:         true,
			DeferLowPriority:  true,
			SampleWindow:      60,
			StatsSampleWindow: 120,
			JudderThreshold:   0.3,
			RateCooldown:      "2s",
			BatteryFPSCap:     30,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    7465,
		},
		Device: DeviceConfig{
			ThermalThrottle: 80,
			BatteryLowPct:   20,
			PollInterval:    "5s",
		},
		Telemetry: TelemetryConfig{
			Prometheus:      true,
			PersistSessions: true,
			SampleInterval:  "10s",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(homeDir, "mira.log"),
		},
	}
}

// LoadConfig reads config from ~/.mira/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(miraHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the config to ~/.mira/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(miraHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// EngineConfig converts the toml pipeline section into the engine's config.
// Unknown LOD names fall back to the minimal floor rather than failing.
func (c PipelineConfig) EngineConfig() pipeline.Config {
	minLOD, err := domain.ParseLOD(c.MinLOD)
	if err != nil {
		minLOD = domain.LODMinimal
	}
	return pipeline.Config{
		TargetFPS:         c.TargetFPS,
		Budget:            time.Duration(c.BudgetMs * float64(time.Millisecond)),
		BufferPercent:     c.BufferPercent,
		MarginFactor:      c.MarginFactor,
		ThrottleThreshold: c.ThrottleThreshold,
		RecoveryThreshold: c.RecoveryThreshold,
		MinLOD:            minLOD,
		AutoLOD:           c.AutoLOD,
		Occlusion:         c.Occlusion,
		DeferLowPriority:  c.DeferLowPriority,
		SampleWindow:      c.SampleWindow,
		StatsSampleWindow: c.StatsSampleWindow,
		JudderThreshold:   c.JudderThreshold,
		RateCooldown:      parseDuration(c.RateCooldown, 2*time.Second),
		BatteryFPSCap:     c.BatteryFPSCap,
	}
}

// miraHome returns the Mira data directory.
func miraHome() string {
	if env := os.Getenv("MIRA_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mira")
}

// MiraHome is exported for use by other packages.
func MiraHome() string {
	return miraHome()
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
