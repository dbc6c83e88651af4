package pipeline

import (
	"testing"
	"time"
)

func ms(n float64) time.Duration {
	return time.Duration(n * float64(time.Millisecond))
}

func TestBudgetTracker_WithinBudget(t *testing.T) {
	b := newBudgetTracker(16*time.Millisecond, 0)
	start := time.Unix(0, 0)

	b.BeginFrame(start)
	over := b.EndFrame(start.Add(8 * time.Millisecond))

	if over != 0 {
		t.Errorf("overrun = %v, want 0", over)
	}
	snap := b.Snapshot()
	if snap.UsedMs != 8 {
		t.Errorf("UsedMs = %v, want 8", snap.UsedMs)
	}
	if snap.OverBudget {
		t.Error("OverBudget = true, want false")
	}
	if snap.RemainingMs != 8 {
		t.Errorf("RemainingMs = %v, want 8", snap.RemainingMs)
	}
	if snap.UtilizationPct != 50 {
		t.Errorf("UtilizationPct = %v, want 50", snap.UtilizationPct)
	}
}

func TestBudgetTracker_Overrun(t *testing.T) {
	b := newBudgetTracker(10*time.Millisecond, 0)
	start := time.Unix(0, 0)

	b.BeginFrame(start)
	over := b.EndFrame(start.Add(15 * time.Millisecond))

	if over != 5*time.Millisecond {
		t.Errorf("overrun = %v, want 5ms", over)
	}
	if !b.OverBudget() {
		t.Error("OverBudget = false, want true")
	}
	if b.Remaining() != 0 {
		t.Errorf("Remaining = %v, want 0", b.Remaining())
	}
}

func TestBudgetTracker_ExactlyOnBudgetIsNotOver(t *testing.T) {
	b := newBudgetTracker(10*time.Millisecond, 0)
	start := time.Unix(0, 0)

	b.BeginFrame(start)
	over := b.EndFrame(start.Add(10 * time.Millisecond))

	if over != 0 {
		t.Errorf("overrun = %v, want 0", over)
	}
	if b.OverBudget() {
		t.Error("used == total must not read as over budget")
	}
}

func TestBudgetTracker_RemainingNeverNegative(t *testing.T) {
	b := newBudgetTracker(5*time.Millisecond, 0)
	start := time.Unix(0, 0)

	for _, used := range []time.Duration{0, 3 * time.Millisecond, 5 * time.Millisecond, 50 * time.Millisecond} {
		b.BeginFrame(start)
		b.EndFrame(start.Add(used))
		rem := b.Remaining()
		if rem < 0 || rem > 5*time.Millisecond {
			t.Errorf("used %v: Remaining = %v, want within [0, 5ms]", used, rem)
		}
	}
}

func TestBudgetTracker_HasRemainingHoldsBackBuffer(t *testing.T) {
	// 10ms budget, 10% buffer: only 9ms is admissible.
	b := newBudgetTracker(10*time.Millisecond, 10)
	b.BeginFrame(time.Unix(0, 0))

	if !b.HasRemaining(9 * time.Millisecond) {
		t.Error("HasRemaining(9ms) = false, want true")
	}
	if b.HasRemaining(ms(9.5)) {
		t.Error("HasRemaining(9.5ms) = true, want false (buffer held back)")
	}
}

func TestBudgetTracker_ZeroBudgetAlwaysOver(t *testing.T) {
	b := newBudgetTracker(0, 0)
	start := time.Unix(0, 0)

	b.BeginFrame(start)
	b.EndFrame(start.Add(time.Millisecond))

	if !b.OverBudget() {
		t.Error("zero budget with any work must read as over budget")
	}
	if b.HasRemaining(time.Nanosecond) {
		t.Error("HasRemaining must be false with zero budget")
	}
}
