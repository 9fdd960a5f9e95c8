package tq

import "testing"

func TestSearchStateAddProbe(t *testing.T) {
	state := NewSearchState(75, 8, 48, nil)
	state.AddProbe(28, 65, []float64{64, 65, 66}, 1_000_000)
	state.AddProbe(22, 75, []float64{74, 75, 76}, 800_000)

	if len(state.History) != 2 {
		t.Fatalf("SearchState has %d probes, want 2", len(state.History))
	}
	if state.History[0].Quantizer != 28 {
		t.Errorf("first probe quantizer = %d, want 28", state.History[0].Quantizer)
	}
	if state.History[1].Score != 75 {
		t.Errorf("second probe score = %v, want 75", state.History[1].Score)
	}
}

func TestSearchStateHasQuantizer(t *testing.T) {
	state := NewSearchState(75, 8, 48, nil)
	state.AddProbe(28, 65, nil, 0)

	if !state.HasQuantizer(28) {
		t.Error("HasQuantizer(28) = false, want true")
	}
	if state.HasQuantizer(30) {
		t.Error("HasQuantizer(30) = true, want false")
	}
}

func TestSearchStateBestProbeNoHistory(t *testing.T) {
	state := NewSearchState(75, 8, 48, nil)
	if best := state.BestProbe(); best != nil {
		t.Errorf("BestProbe() with no history = %v, want nil", best)
	}
}

func TestSearchStateBestProbePrefersHighestQInTolerance(t *testing.T) {
	state := NewSearchState(75, 8, 48, nil)
	state.AddProbe(30, 75.2, nil, 500_000)  // within tolerance
	state.AddProbe(28, 74.9, nil, 700_000)  // within tolerance, lower q
	state.AddProbe(20, 90, nil, 1_200_000)  // far outside tolerance

	best := state.BestProbe()
	if best == nil {
		t.Fatal("BestProbe() = nil, want non-nil")
	}
	if best.Quantizer != 30 {
		t.Errorf("BestProbe().Quantizer = %d, want 30 (highest within tolerance)", best.Quantizer)
	}
}

func TestSearchStateBestProbeFallsBackToNearestWhenNoneInTolerance(t *testing.T) {
	state := NewSearchState(75, 8, 48, nil)
	state.AddProbe(35, 60, nil, 0) // diff 15
	state.AddProbe(20, 90, nil, 0) // diff 15, tie -> higher q wins

	best := state.BestProbe()
	if best == nil {
		t.Fatal("BestProbe() = nil, want non-nil")
	}
	if best.Quantizer != 35 {
		t.Errorf("BestProbe().Quantizer = %d, want 35 (tie broken by higher q)", best.Quantizer)
	}
}
