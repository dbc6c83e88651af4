package pipeline

import (
	"sync"
	"time"
)

// FrameSource is the host timing primitive: register a one-shot callback for
// the next display refresh, receiving a monotonic timestamp. The returned
// cancel deregisters a callback that has not fired yet.
type FrameSource interface {
	Request(fn func(now time.Time)) (cancel func())
}

// rateTargeter is implemented by sources whose refresh cadence can follow
// the engine's target rate.
type rateTargeter interface {
	SetInterval(d time.Duration)
}

// ─── TickerSource ───────────────────────────────────────────────────────────

// TickerSource implements FrameSource on a time.Ticker. It stands in for a
// real display-refresh callback on headless hosts and in the daemon.
type TickerSource struct {
	mu       sync.Mutex
	interval time.Duration
	pending  func(time.Time)
	gen      uint64
	ticker   *time.Ticker
	done     chan struct{}
	closed   bool
}

// NewTickerSource creates a source firing at the given interval.
func NewTickerSource(interval time.Duration) *TickerSource {
	if interval <= 0 {
		interval = time.Second / 60
	}
	s := &TickerSource{
		interval: interval,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *TickerSource) loop() {
	for {
		select {
		case <-s.done:
			return
		case now := <-s.ticker.C:
			s.mu.Lock()
			fn := s.pending
			s.pending = nil
			s.mu.Unlock()
			if fn != nil {
				fn(now)
			}
		}
	}
}

// Request registers fn for the next tick. Only one callback is pending at a
// time; a second Request replaces the first.
func (s *TickerSource) Request(fn func(now time.Time)) (cancel func()) {
	s.mu.Lock()
	s.pending = fn
	s.gen++
	gen := s.gen
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		// A stale cancel must not clear a newer registration.
		if s.gen == gen {
			s.pending = nil
		}
		s.mu.Unlock()
	}
}

// SetInterval retargets the tick cadence.
func (s *TickerSource) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || d == s.interval {
		return
	}
	s.interval = d
	s.ticker.Reset(d)
}

// Close stops the tick loop. Pending callbacks never fire afterwards.
func (s *TickerSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.ticker.Stop()
	close(s.done)
}

// ─── ManualSource ───────────────────────────────────────────────────────────

// ManualSource is a FrameSource stepped by hand. Tests and host embeddings
// with their own refresh callback use it to drive ticks deterministically.
type ManualSource struct {
	mu      sync.Mutex
	pending func(time.Time)
	gen     uint64
}

// NewManualSource creates an unstarted manual source.
func NewManualSource() *ManualSource {
	return &ManualSource{}
}

// Request registers fn for the next Step.
func (s *ManualSource) Request(fn func(now time.Time)) (cancel func()) {
	s.mu.Lock()
	s.pending = fn
	s.gen++
	gen := s.gen
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		if s.gen == gen {
			s.pending = nil
		}
		s.mu.Unlock()
	}
}

// Step fires the pending callback with the given timestamp. Returns false
// when nothing was registered.
func (s *ManualSource) Step(now time.Time) bool {
	s.mu.Lock()
	fn := s.pending
	s.pending = nil
	s.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(now)
	return true
}

// HasPending reports whether a callback is registered.
func (s *ManualSource) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}
