package pipeline

import (
	"testing"
	"time"
)

const target60 = time.Second / 60

func TestJudder_EmptyWindow(t *testing.T) {
	j := newJudderAnalyzer(60)
	m := j.Metrics(target60)
	if m.Score != 0 || m.Variance != 0 || m.ConsecutiveMisses != 0 {
		t.Errorf("empty window should be all zero, got %+v", m)
	}
}

func TestJudder_SteadyFramesScoreZero(t *testing.T) {
	j := newJudderAnalyzer(60)
	for i := 0; i < 60; i++ {
		j.Record(target60)
	}
	m := j.Metrics(target60)
	if m.Score > 1e-9 {
		t.Errorf("Score = %v, want 0 for perfectly regular delivery", m.Score)
	}
	if m.ConsecutiveMisses != 0 {
		t.Errorf("ConsecutiveMisses = %d, want 0", m.ConsecutiveMisses)
	}
}

func TestJudder_SlowButRegularIsNotJudder(t *testing.T) {
	// Every frame at exactly 1.4× target: low rate, zero irregularity,
	// no misses. Variance contributes nothing.
	j := newJudderAnalyzer(60)
	factor := 1.4
	slow := time.Duration(float64(target60) * factor)
	for i := 0; i < 60; i++ {
		j.Record(slow)
	}
	m := j.Metrics(target60)
	if m.Score > 1e-9 {
		t.Errorf("Score = %v, want 0 for regular-but-slow delivery", m.Score)
	}
}

func TestJudder_MissRate(t *testing.T) {
	// Half the frames at 2× target (misses), half on time.
	j := newJudderAnalyzer(10)
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			j.Record(2 * target60)
		} else {
			j.Record(target60)
		}
	}
	m := j.Metrics(target60)
	if m.Score <= 0.25 {
		t.Errorf("Score = %v, want > 0.25 (missRate alone contributes 0.25)", m.Score)
	}
	if m.ConsecutiveMisses != 1 {
		t.Errorf("ConsecutiveMisses = %d, want 1 (alternating)", m.ConsecutiveMisses)
	}
	if m.EventsPerSecond <= 0 {
		t.Errorf("EventsPerSecond = %v, want > 0", m.EventsPerSecond)
	}
}

func TestJudder_LongestConsecutiveRun(t *testing.T) {
	j := newJudderAnalyzer(10)
	// Pattern: ok, miss, miss, miss, ok, miss, miss, ok, ok, ok.
	pattern := []bool{false, true, true, true, false, true, true, false, false, false}
	for _, miss := range pattern {
		if miss {
			j.Record(2 * target60)
		} else {
			j.Record(target60)
		}
	}
	m := j.Metrics(target60)
	if m.ConsecutiveMisses != 3 {
		t.Errorf("ConsecutiveMisses = %d, want 3", m.ConsecutiveMisses)
	}
}

func TestJudder_ScoreClamped(t *testing.T) {
	j := newJudderAnalyzer(10)
	// Wild swings far above target.
	for i := 0; i < 10; i++ {
		j.Record(time.Duration(i) * 100 * time.Millisecond)
	}
	m := j.Metrics(target60)
	if m.Score < 0 || m.Score > 1 {
		t.Errorf("Score = %v, want within [0, 1]", m.Score)
	}
}

func TestJudder_WindowBounded(t *testing.T) {
	j := newJudderAnalyzer(5)
	// Fill with misses, then push them all out with clean frames.
	for i := 0; i < 5; i++ {
		j.Record(3 * target60)
	}
	for i := 0; i < 5; i++ {
		j.Record(target60)
	}
	m := j.Metrics(target60)
	if m.Score > 1e-9 {
		t.Errorf("old misses should have aged out, Score = %v", m.Score)
	}
}
