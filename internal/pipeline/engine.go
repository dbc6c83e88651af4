package pipeline

import (
	"math"
	"sync"
	"time"

	"github.com/mira-agent/mira/internal/domain"
)

// fpsSmoothing is the EMA weight given to the newest frame-rate sample.
const fpsSmoothing = 0.2

// Engine is the per-frame control loop tying budget accounting, admission,
// quality adaptation, throttle detection, and occlusion culling together.
// One Engine owns one render domain; instances share no state.
//
// All mutation happens inside Tick, which runs to completion before the next
// tick fires. The mutex only shields snapshots and control calls arriving
// from other goroutines (HTTP handlers, the device monitor).
type Engine struct {
	mu    sync.Mutex
	cfg   Config
	hooks Hooks

	source FrameSource
	cancel func()
	clock  func() time.Time

	budget    *budgetTracker
	sched     *taskScheduler
	judder    *judderAnalyzer
	throttle  *throttleController
	lod       *lodController
	rate      *rateSelector
	occlusion *occlusionRegistry
	stats     *statsAggregator

	running    bool
	paused     bool
	visibility domain.Visibility
	signals    Signals
	targetFPS  int
	fps        float64
	interp     float64
	lastTick   time.Time
	haveLast   bool
	tickIndex  uint64
}

// NewEngine builds an engine from cfg, driven by source. A nil source is
// allowed: the engine stays inactive but every control remains callable.
func NewEngine(cfg Config, source FrameSource, hooks Hooks) *Engine {
	cfg = cfg.normalize()
	return &Engine{
		cfg:        cfg,
		hooks:      hooks,
		source:     source,
		clock:      time.Now,
		budget:     newBudgetTracker(cfg.Budget, cfg.BufferPercent),
		sched:      newTaskScheduler(cfg.MarginFactor, cfg.DeferLowPriority),
		judder:     newJudderAnalyzer(cfg.SampleWindow),
		throttle:   newThrottleController(cfg.ThrottleThreshold, cfg.RecoveryThreshold),
		lod:        newLODController(domain.LODHigh, cfg.MinLOD, cfg.RateCooldown),
		rate:       newRateSelector(cfg.JudderThreshold, cfg.RateCooldown, cfg.BatteryFPSCap),
		occlusion:  newOcclusionRegistry(cfg.Occlusion),
		stats:      newStatsAggregator(cfg.StatsSampleWindow),
		visibility: domain.VisibilityVisible,
		targetFPS:  cfg.TargetFPS,
	}
}

// ─── Lifecycle ──────────────────────────────────────────────────────────────

// Start activates the loop and registers for the first tick. Without a
// frame source the engine degrades to inactive and reports it; no tick will
// ever fire but controls stay callable.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}
	e.running = true
	e.paused = false
	e.haveLast = false
	if e.source == nil {
		e.running = false
		return domain.ErrNoFrameSource
	}
	e.registerLocked()
	return nil
}

// Stop deactivates the loop, cancels the pending callback, and clears the
// work queue.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
	e.running = false
	e.paused = false
	e.sched.Clear()
}

// Pause deregisters the pending frame callback and suspends the loop. No
// background timer keeps running while paused.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || e.paused {
		return
	}
	e.paused = true
	e.cancelLocked()
}

// Resume re-stamps timing references and re-registers for the next tick.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || !e.paused {
		return
	}
	e.paused = false
	e.haveLast = false
	e.registerLocked()
}

// SetVisibility is the visibility gate: hidden pauses the loop entirely,
// visible resumes it.
func (e *Engine) SetVisibility(v domain.Visibility) {
	e.mu.Lock()
	cur := e.visibility
	e.mu.Unlock()
	if v == cur {
		return
	}
	e.mu.Lock()
	e.visibility = v
	e.mu.Unlock()
	if v == domain.VisibilityHidden {
		e.Pause()
	} else {
		e.Resume()
	}
}

// SetSignals updates the battery/thermal pressure inputs to rate selection.
func (e *Engine) SetSignals(s Signals) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.signals = s
}

func (e *Engine) registerLocked() {
	if e.source == nil {
		return
	}
	e.cancel = e.source.Request(e.Tick)
}

func (e *Engine) cancelLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// ─── Tick ───────────────────────────────────────────────────────────────────

// Tick runs one frame of the control loop. The host timing primitive calls
// it with a monotonic timestamp; it can also be invoked directly by an
// embedding that owns its own refresh callback.
func (e *Engine) Tick(now time.Time) {
	e.mu.Lock()
	if !e.running || e.paused {
		e.mu.Unlock()
		return
	}

	var fire []func()
	e.tickIndex++
	interval := targetInterval(e.targetFPS)

	var delta time.Duration
	if e.haveLast {
		delta = now.Sub(e.lastTick)
	}
	e.lastTick = now
	e.haveLast = true

	if delta > 0 {
		inst := float64(time.Second) / float64(delta)
		if e.fps == 0 {
			e.fps = inst
		} else {
			e.fps = e.fps*(1-fpsSmoothing) + inst*fpsSmoothing
		}
		e.judder.Record(delta)
		e.interp = math.Min(1, float64(delta)/float64(interval))

		// Expected-vs-actual frame count: a delta spanning n intervals
		// means n-1 refreshes never reached us.
		if missed := int(math.Round(float64(delta)/float64(interval))) - 1; missed > 0 {
			e.stats.RecordDropped(missed)
			n := missed
			fire = append(fire, func() { e.hooks.frameDropped(n) })
		}
	}

	jm := e.judder.Metrics(interval)
	// Stepping the rate up waits for a full measurement window; clamps and
	// judder-driven steps down do not.
	windowFull := e.judder.deltas.Len() >= e.cfg.SampleWindow
	if next := e.rate.Select(now, e.targetFPS, jm.Score, e.fps, e.signals, windowFull); next != e.targetFPS {
		prev := e.targetFPS
		e.targetFPS = next
		if rt, ok := e.source.(rateTargeter); ok {
			rt.SetInterval(targetInterval(next))
		}
		fire = append(fire, func() { e.hooks.rateChanged(prev, next) })
	}

	if e.shouldRenderLocked() {
		begin := e.clock()
		e.budget.BeginFrame(begin)
		e.sched.Flush(begin, e.budget.Remaining())
		over := e.budget.EndFrame(e.clock())
		e.stats.RecordFrame(e.budget.used)
		used := e.budget.used
		fire = append(fire, func() { e.hooks.frameRendered(used) })

		if over > 0 {
			e.stats.RecordOverrun()
			o := over
			fire = append(fire, func() { e.hooks.budgetOverrun(o) })
		}

		if e.throttle.Observe(e.budget.OverBudget()) {
			throttled := e.throttle.Throttled()
			fire = append(fire, func() { e.hooks.throttleChanged(throttled) })
			if e.cfg.AutoLOD && throttled {
				if ch, from, to := e.lod.StepDown(now); ch {
					f, t := from, to
					fire = append(fire, func() { e.hooks.lodChanged(f, t) })
				}
			}
		}

		if e.cfg.AutoLOD && windowFull && !e.throttle.Throttled() &&
			jm.Score < e.cfg.JudderThreshold/2 &&
			e.fps >= 0.95*float64(e.targetFPS) {
			if ch, from, to := e.lod.StepUp(now); ch {
				f, t := from, to
				fire = append(fire, func() { e.hooks.lodChanged(f, t) })
			}
		}
	} else {
		e.stats.RecordThrottled()
	}

	e.registerLocked()
	e.mu.Unlock()

	// Hooks fire synchronously within the tick but outside the lock, so a
	// listener may call back into the engine.
	for _, f := range fire {
		f()
	}
}

// shouldRenderLocked gates a frame: visible always, and while throttled only
// every other tick as the fallback cadence.
func (e *Engine) shouldRenderLocked() bool {
	if e.visibility != domain.VisibilityVisible {
		return false
	}
	if e.throttle.Throttled() {
		return e.tickIndex%2 == 0
	}
	return true
}

// ─── Work admission ─────────────────────────────────────────────────────────

// ScheduleRenderWork queues fn at the given priority with an estimated cost.
// Empty id gets a generated one; the effective id is returned for Cancel.
func (e *Engine) ScheduleRenderWork(id string, fn func() error, priority int, cost time.Duration) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sched.Schedule(id, fn, priority, cost)
}

// CancelRenderWork removes a not-yet-executed task. No-op otherwise.
func (e *Engine) CancelRenderWork(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sched.Cancel(id)
}

// ─── Quality control ────────────────────────────────────────────────────────

// RequestLOD asks for a quality tier. Requests below the configured minimum
// clamp up to it; re-requesting the active tier does nothing.
func (e *Engine) RequestLOD(level domain.LODLevel) {
	e.mu.Lock()
	changed, from, to := e.lod.Request(level)
	e.mu.Unlock()
	if changed {
		e.hooks.lodChanged(from, to)
	}
}

// CurrentLOD returns the active quality tier.
func (e *Engine) CurrentLOD() domain.LODLevel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lod.Current()
}

// ─── Occlusion ──────────────────────────────────────────────────────────────

// AddOcclusionHint upserts a visibility hint for an element.
func (e *Engine) AddOcclusionHint(elementID string, visible bool, visiblePercent float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.occlusion.Add(e.clock(), elementID, visible, visiblePercent)
}

// RemoveOcclusionHint deletes the hint; queries default back to visible.
func (e *Engine) RemoveOcclusionHint(elementID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.occlusion.Remove(elementID)
}

// ShouldRender reports whether work for an element may run this frame.
func (e *Engine) ShouldRender(elementID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.occlusion.ShouldRender(e.clock(), elementID)
}

// ─── Observation ────────────────────────────────────────────────────────────

// State returns the read-only control snapshot.
func (e *Engine) State() domain.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.State{
		Active:         e.running && !e.paused,
		Phase:          e.phaseLocked(),
		QueueSize:      e.sched.Len(),
		CurrentFPS:     e.fps,
		TargetFPS:      e.targetFPS,
		Visibility:     e.visibility,
		Throttled:      e.throttle.Throttled(),
		ThrottleReason: e.throttleReasonLocked(),
		Interpolation:  e.interp,
		FrameBudget:    e.budget.Snapshot(),
		CurrentLOD:     e.lod.Current().String(),
	}
}

// Metrics returns the aggregate timing-health snapshot.
func (e *Engine) Metrics() domain.PipelineMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := e.stats.Snapshot()
	m.PassExecutions = e.sched.executions
	m.PassSkips = e.sched.skips
	m.TaskErrors = e.sched.errors
	m.LODChanges = e.lod.Changes()
	m.CurrentLOD = e.lod.Current().String()
	return m
}

// Judder returns the current smoothness metrics.
func (e *Engine) Judder() domain.JudderMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.judder.Metrics(targetInterval(e.targetFPS))
}

// ThrottleState exposes the hysteresis machine for diagnostics.
func (e *Engine) ThrottleState() domain.ThrottleState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.throttle.Snapshot()
}

// ResetMetrics returns every counter and sample window to the state of a
// freshly constructed instance. Control state (LOD tier, throttle machine)
// is untouched.
func (e *Engine) ResetMetrics() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.Reset()
	e.sched.ResetCounters()
	e.lod.ResetCounters()
	e.judder.Reset()
}

func (e *Engine) phaseLocked() string {
	switch {
	case !e.running:
		return "stopped"
	case e.paused:
		return "paused"
	default:
		return "running"
	}
}

func (e *Engine) throttleReasonLocked() string {
	switch {
	case e.throttle.Throttled():
		return "sustained-overbudget"
	case e.signals.ThermalThrottled:
		return "thermal"
	case e.signals.BatteryLow:
		return "battery"
	default:
		return ""
	}
}
