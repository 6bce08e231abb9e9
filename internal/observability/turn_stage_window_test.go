package observability

import (
	"testing"
	"time"
)

func TestTurnStageWindowSnapshot(t *testing.T) {
	w := newTurnStageWindow(8)
	w.Observe(StageFirstFragment, 500)
	w.Observe(StageFirstFragment, 700)
	w.Observe(StageFirstFragment, 900)
	w.ObserveIndicator("turn_error")
	w.ObserveIndicator("turn_error")

	snap := w.Snapshot()
	if snap.WindowSize != 8 {
		t.Fatalf("WindowSize = %d, want 8", snap.WindowSize)
	}
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Stage != StageFirstFragment {
		t.Fatalf("Stage = %q, want %q", s.Stage, StageFirstFragment)
	}
	if s.Samples != 3 {
		t.Fatalf("Samples = %d, want 3", s.Samples)
	}
	if s.LastMS != 900 {
		t.Fatalf("LastMS = %.2f, want 900", s.LastMS)
	}
	if s.P50MS != 700 {
		t.Fatalf("P50MS = %.2f, want 700", s.P50MS)
	}
	if s.P95MS <= 700 || s.P95MS > 900 {
		t.Fatalf("P95MS = %.2f, want (700,900]", s.P95MS)
	}
	if s.TargetP95MS != 1500 {
		t.Fatalf("TargetP95MS = %.2f, want 1500", s.TargetP95MS)
	}
	if len(snap.Indicators) != 1 || snap.Indicators[0].Count != 2 {
		t.Fatalf("Indicators = %+v, want one indicator with count 2", snap.Indicators)
	}
}

func TestTurnStageWindowWrapsAround(t *testing.T) {
	w := newTurnStageWindow(3)
	for _, v := range []float64{10, 20, 30, 40, 50} {
		w.Observe(StageTurnTotal, v)
	}
	s := w.Snapshot().Stages[0]
	if s.Samples != 3 {
		t.Fatalf("Samples = %d, want 3", s.Samples)
	}
	if s.AvgMS != 40 {
		t.Fatalf("AvgMS = %.2f, want 40 (only the last three samples)", s.AvgMS)
	}
	if s.LastMS != 50 {
		t.Fatalf("LastMS = %.2f, want 50", s.LastMS)
	}
}

func TestTurnStageWindowIgnoresInvalid(t *testing.T) {
	w := newTurnStageWindow(4)
	w.Observe("", 10)
	w.Observe(StageTurnTotal, -1)
	w.ObserveIndicator("  ")
	snap := w.Snapshot()
	if len(snap.Stages) != 0 || len(snap.Indicators) != 0 {
		t.Fatalf("snapshot = %+v, want empty", snap)
	}
}

func TestMetricsObserveTurnFeedsWindow(t *testing.T) {
	m := NewMetrics("test_observability_window")
	m.ObserveFirstFragment(300 * time.Millisecond)
	m.ObserveTurn("ok", 1200*time.Millisecond)
	m.ObserveTurn("error", 0)

	snap := m.SnapshotTurnStages()
	if len(snap.Stages) != 2 {
		t.Fatalf("len(Stages) = %d, want 2", len(snap.Stages))
	}
	if snap.Stages[0].Stage != StageFirstFragment || snap.Stages[1].Stage != StageTurnTotal {
		t.Fatalf("stages = %+v", snap.Stages)
	}
	if len(snap.Indicators) != 1 || snap.Indicators[0].Name != "turn_error" {
		t.Fatalf("Indicators = %+v, want turn_error", snap.Indicators)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveTurn("ok", time.Second)
	m.ObserveFirstFragment(time.Second)
	m.ObserveProviderError("mock", "unknown")
	m.SetActiveSessions(3)
	if got := m.SnapshotTurnStages(); len(got.Stages) != 0 {
		t.Fatalf("nil snapshot stages = %+v", got.Stages)
	}
}
