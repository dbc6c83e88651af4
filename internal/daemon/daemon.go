package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mira-agent/mira/internal/api"
	"github.com/mira-agent/mira/internal/domain"
	"github.com/mira-agent/mira/internal/infra/device"
	"github.com/mira-agent/mira/internal/infra/metrics"
	"github.com/mira-agent/mira/internal/infra/sqlite"
	"github.com/mira-agent/mira/internal/pipeline"
)

// Daemon is the core Mira runtime. It wires together all services.
type Daemon struct {
	Config  Config
	Engine  *pipeline.Engine
	Monitor *device.Monitor
	DB      *sqlite.DB
	Server  *api.Server
	Caps    device.Capabilities

	sessionID string
	cancel    context.CancelFunc
	lastPM    domain.PipelineMetrics
}

// New creates and initializes a Daemon with all services wired.
func New(version string) (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg, version)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config, version string) (*Daemon, error) {
	caps := device.Probe()

	engineCfg := cfg.Pipeline.EngineConfig()
	if cfg.Pipeline.TargetFPS <= 0 {
		engineCfg.TargetFPS = caps.Tier.RecommendedFPS()
	}

	source := pipeline.NewTickerSource(time.Second / time.Duration(engineCfg.TargetFPS))
	engine := pipeline.NewEngine(engineCfg, source, observedHooks())

	d := &Daemon{
		Config: cfg,
		Engine: engine,
		Caps:   caps,
	}

	// Sensor monitor feeds battery and thermal signals into the engine.
	monCfg := device.MonitorConfig{
		ThermalThrottle: cfg.Device.ThermalThrottle,
		BatteryLowPct:   cfg.Device.BatteryLowPct,
		PollInterval:    parseDuration(cfg.Device.PollInterval, 5*time.Second),
	}
	d.Monitor = device.NewMonitor(monCfg, func(s pipeline.Signals) {
		engine.SetSignals(s)
		metrics.SetSignals(s.BatteryLow, s.ThermalThrottled)
	})

	// Session store
	if cfg.Telemetry.PersistSessions {
		db, err := sqlite.Open(miraHome())
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		d.DB = db
	}

	// HTTP control server
	srv := api.NewServer(engine, version)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	if d.DB != nil {
		srv.SetStore(d.DB)
	}
	d.Server = srv

	return d, nil
}

// observedHooks bridges pipeline events into the Prometheus metrics.
func observedHooks() pipeline.Hooks {
	return pipeline.Hooks{
		FrameRendered: func(used time.Duration) {
			metrics.FramesRendered.Inc()
			metrics.FrameTime.Observe(float64(used) / float64(time.Millisecond))
		},
		FrameDropped: func(n int) {
			metrics.FramesDropped.WithLabelValues("missed").Add(float64(n))
		},
		BudgetOverrun: func(over time.Duration) {
			metrics.BudgetOverruns.Inc()
		},
		ThrottleChanged: func(throttled bool) {
			metrics.SetThrottled(throttled)
			log.Printf("[daemon] throttle changed: %v", throttled)
		},
		LODChanged: func(from, to domain.LODLevel) {
			direction := "up"
			if to < from {
				direction = "down"
			}
			metrics.LODChanges.WithLabelValues(direction).Inc()
			metrics.CurrentLOD.Set(float64(to))
			log.Printf("[daemon] lod changed: %s -> %s", from, to)
		},
		RateChanged: func(from, to int) {
			direction := "up"
			if to < from {
				direction = "down"
			}
			metrics.RateChanges.WithLabelValues(direction).Inc()
			metrics.TargetFPS.Set(float64(to))
			log.Printf("[daemon] rate changed: %d -> %d", from, to)
		},
	}
}

// Serve starts the pipeline and HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.Engine.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	// Record the session start
	if d.DB != nil {
		d.sessionID = uuid.NewString()
		session := domain.Session{
			ID:        d.sessionID,
			StartedAt: time.Now(),
			TargetFPS: d.Engine.State().TargetFPS,
		}
		if err := d.DB.CreateSession(session); err != nil {
			log.Printf("[daemon] WARNING: record session: %v", err)
			d.sessionID = ""
		}
	}

	go d.Monitor.Run(ctx)
	go d.telemetryLoop(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}
		// Stop the monitor and telemetry loops (and unblock headless mode)
		// before tearing anything down.
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		d.finishSession()
		d.Engine.Stop()
		_ = httpServer.Shutdown(shutdownCtx)
		if d.DB != nil {
			_ = d.DB.Close()
		}
	}()

	if !d.Config.API.Enabled {
		// Headless mode: no control surface, just run until cancelled.
		fmt.Printf("Mira running headless (device tier: %s, %d cores)\n", d.Caps.TierName, d.Caps.Cores)
		<-ctx.Done()
		return nil
	}

	fmt.Printf("Mira serving on http://%s (device tier: %s, %d cores)\n", addr, d.Caps.TierName, d.Caps.Cores)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// telemetryLoop periodically publishes gauges and persists stats samples.
func (d *Daemon) telemetryLoop(ctx context.Context) {
	interval := parseDuration(d.Config.Telemetry.SampleInterval, 10*time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sampleTelemetry()
		}
	}
}

func (d *Daemon) sampleTelemetry() {
	state := d.Engine.State()
	jm := d.Engine.Judder()
	pm := d.Engine.Metrics()

	metrics.CurrentFPS.Set(state.CurrentFPS)
	metrics.TargetFPS.Set(float64(state.TargetFPS))
	metrics.QueueDepth.Set(float64(state.QueueSize))
	metrics.JudderScore.Set(jm.Score)
	metrics.CurrentLOD.Set(float64(d.Engine.CurrentLOD()))
	metrics.SetThrottled(state.Throttled)

	// Task counters accumulate inside the engine; publish the delta since
	// the previous sample. A ResetMetrics call makes the delta negative,
	// in which case this sample contributes nothing.
	metrics.TasksExecuted.Add(counterDelta(pm.PassExecutions, d.lastPM.PassExecutions))
	metrics.TasksSkipped.Add(counterDelta(pm.PassSkips, d.lastPM.PassSkips))
	metrics.TaskErrors.Add(counterDelta(pm.TaskErrors, d.lastPM.TaskErrors))
	d.lastPM = pm

	if d.DB != nil && d.sessionID != "" {
		sample := domain.StatsSample{
			SessionID:   d.sessionID,
			At:          time.Now(),
			FPS:         state.CurrentFPS,
			P95FrameMs:  pm.P95FrameTimeMs,
			JudderScore: jm.Score,
			LOD:         d.Engine.CurrentLOD(),
			QueueDepth:  state.QueueSize,
			Throttled:   state.Throttled,
		}
		if err := d.DB.InsertSample(sample); err != nil {
			log.Printf("[daemon] WARNING: persist sample: %v", err)
		}
	}
}

func counterDelta(cur, prev int64) float64 {
	if cur <= prev {
		return 0
	}
	return float64(cur - prev)
}

// finishSession writes the end-of-run summary row.
func (d *Daemon) finishSession() {
	if d.DB == nil || d.sessionID == "" {
		return
	}
	state := d.Engine.State()
	pm := d.Engine.Metrics()
	jm := d.Engine.Judder()

	session := domain.Session{
		ID:             d.sessionID,
		EndedAt:        time.Now(),
		TargetFPS:      state.TargetFPS,
		FramesRendered: uint64(pm.FramesRendered),
		FramesDropped:  uint64(pm.FramesDropped),
		AvgFrameMs:     pm.AvgFrameTimeMs,
		P95FrameMs:     pm.P95FrameTimeMs,
		JudderScore:    jm.Score,
		FinalLOD:       d.Engine.CurrentLOD(),
	}
	if err := d.DB.FinishSession(session); err != nil {
		log.Printf("[daemon] WARNING: finish session: %v", err)
	}
	d.sessionID = ""
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	d.finishSession()
	d.Engine.Stop()
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
