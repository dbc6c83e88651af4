package pipeline

import (
	"reflect"
	"testing"
	"time"
)

func TestStats_Percentiles(t *testing.T) {
	a := newStatsAggregator(120)
	// 1..100 ms, one frame each.
	for i := 1; i <= 100; i++ {
		a.RecordFrame(time.Duration(i) * time.Millisecond)
	}

	m := a.Snapshot()
	if m.P50FrameTimeMs != 50 {
		t.Errorf("P50 = %v, want 50", m.P50FrameTimeMs)
	}
	if m.P95FrameTimeMs != 95 {
		t.Errorf("P95 = %v, want 95", m.P95FrameTimeMs)
	}
	if m.P99FrameTimeMs != 99 {
		t.Errorf("P99 = %v, want 99", m.P99FrameTimeMs)
	}
	if m.AvgFrameTimeMs != 50.5 {
		t.Errorf("Avg = %v, want 50.5", m.AvgFrameTimeMs)
	}
}

func TestStats_WindowEvictsOldSamples(t *testing.T) {
	a := newStatsAggregator(10)
	for i := 0; i < 10; i++ {
		a.RecordFrame(100 * time.Millisecond)
	}
	for i := 0; i < 10; i++ {
		a.RecordFrame(10 * time.Millisecond)
	}

	m := a.Snapshot()
	if m.P99FrameTimeMs != 10 {
		t.Errorf("P99 = %v, want 10 after the slow samples aged out", m.P99FrameTimeMs)
	}
	// Counters are cumulative, not windowed.
	if m.FramesRendered != 20 {
		t.Errorf("FramesRendered = %d, want 20", m.FramesRendered)
	}
}

func TestStats_DropRate(t *testing.T) {
	a := newStatsAggregator(10)
	for i := 0; i < 9; i++ {
		a.RecordFrame(time.Millisecond)
	}
	a.RecordDropped(1)

	m := a.Snapshot()
	if m.FrameDropRate != 0.1 {
		t.Errorf("FrameDropRate = %v, want 0.1", m.FrameDropRate)
	}
}

func TestStats_ResetMatchesFreshInstance(t *testing.T) {
	a := newStatsAggregator(10)
	a.RecordFrame(5 * time.Millisecond)
	a.RecordDropped(3)
	a.RecordThrottled()
	a.RecordOverrun()

	a.Reset()

	fresh := newStatsAggregator(10)
	if !reflect.DeepEqual(a.Snapshot(), fresh.Snapshot()) {
		t.Errorf("after Reset: %+v, want %+v", a.Snapshot(), fresh.Snapshot())
	}
}

func TestStats_NegativeDropIgnored(t *testing.T) {
	a := newStatsAggregator(10)
	a.RecordDropped(-4)
	if m := a.Snapshot(); m.FramesDropped != 0 {
		t.Errorf("FramesDropped = %d, want 0", m.FramesDropped)
	}
}

func TestPercentile_NearestRank(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	tests := []struct {
		p    float64
		want float64
	}{
		{50, 2},
		{95, 4},
		{100, 4},
		{1, 1},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestRing_OverwriteOldest(t *testing.T) {
	r := newRing[int](3)
	for i := 1; i <= 5; i++ {
		r.Append(i)
	}
	if got := r.Values(); !reflect.DeepEqual(got, []int{3, 4, 5}) {
		t.Errorf("Values = %v, want [3 4 5]", got)
	}
	if r.Len() != 3 {
		t.Errorf("Len = %d, want 3", r.Len())
	}
}

func TestRing_Reset(t *testing.T) {
	r := newRing[int](3)
	r.Append(1)
	r.Reset()
	if r.Len() != 0 || len(r.Values()) != 0 {
		t.Error("Reset should empty the ring")
	}
}
