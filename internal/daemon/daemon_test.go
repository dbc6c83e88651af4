package daemon

import (
	"context"
	"os"
	"testing"
	"time"
)

func newHeadlessDaemon(t *testing.T) *Daemon {
	t.Helper()
	t.Setenv("MIRA_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.API.Enabled = false
	cfg.Telemetry.Prometheus = false
	cfg.Telemetry.PersistSessions = false

	d, err := NewWithConfig(cfg, "test")
	if err != nil {
		t.Fatalf("NewWithConfig() error: %v", err)
	}
	return d
}

func TestServe_HeadlessReturnsOnSignal(t *testing.T) {
	d := newHeadlessDaemon(t)

	done := make(chan error, 1)
	go func() { done <- d.Serve(context.Background()) }()

	// Give Serve a moment to install its signal handler.
	time.Sleep(200 * time.Millisecond)
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatalf("FindProcess: %v", err)
	}
	if err := p.Signal(os.Interrupt); err != nil {
		t.Fatalf("Signal: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after interrupt")
	}
}

func TestServe_HeadlessReturnsOnContextCancel(t *testing.T) {
	d := newHeadlessDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Serve(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestCounterDelta(t *testing.T) {
	tests := []struct {
		cur, prev int64
		want      float64
	}{
		{10, 4, 6},
		{4, 4, 0},
		{2, 10, 0}, // counters shrank after a reset
	}
	for _, tt := range tests {
		if got := counterDelta(tt.cur, tt.prev); got != tt.want {
			t.Errorf("counterDelta(%d, %d) = %v, want %v", tt.cur, tt.prev, got, tt.want)
		}
	}
}
