package tq

import "testing"

func TestPredictQuantizerMidpointUnderTwoPoints(t *testing.T) {
	state := NewSearchState(75, 8, 48, nil)
	if got := PredictQuantizer(state); got != 28 {
		t.Errorf("PredictQuantizer() with no history = %d, want 28 (midpoint)", got)
	}

	state.AddProbe(28, 65, nil, 0)
	if got := PredictQuantizer(state); got != 28 {
		t.Errorf("PredictQuantizer() with 1 probe = %d, want 28 (midpoint unchanged)", got)
	}
}

func TestPredictQuantizerLinearWithTwoPoints(t *testing.T) {
	state := NewSearchState(75, 8, 48, nil)
	state.AddProbe(20, 85, nil, 0)
	state.AddProbe(30, 65, nil, 0)

	got := PredictQuantizer(state)
	// score decreases as quantizer increases; target 75 is the midpoint
	// of 65 and 85, so the predicted quantizer should land near 25.
	if got < 23 || got > 27 {
		t.Errorf("PredictQuantizer() with 2 probes = %d, want near 25", got)
	}
}

func TestPredictQuantizerClampsToBounds(t *testing.T) {
	state := NewSearchState(200, 8, 48, nil)
	state.AddProbe(20, 85, nil, 0)
	state.AddProbe(30, 65, nil, 0)

	got := PredictQuantizer(state)
	if got < state.Lo || got > state.Hi {
		t.Errorf("PredictQuantizer() = %d, out of bounds [%d, %d]", got, state.Lo, state.Hi)
	}
}

func TestPredictQuantizerCatmullRomWithThreePoints(t *testing.T) {
	state := NewSearchState(75, 8, 48, nil)
	state.AddProbe(15, 90, nil, 0)
	state.AddProbe(25, 75, nil, 0)
	state.AddProbe(35, 55, nil, 0)

	got := PredictQuantizer(state)
	if got < state.Lo || got > state.Hi {
		t.Errorf("PredictQuantizer() = %d, out of bounds [%d, %d]", got, state.Lo, state.Hi)
	}
}

func TestConverged(t *testing.T) {
	tests := []struct {
		score, target float64
		want          bool
	}{
		{75, 75, true},
		{75.5, 75, true},   // within 1%
		{80, 75, false},    // well outside 1%
		{74.9, 75, true},
	}
	for _, tt := range tests {
		if got := Converged(tt.score, tt.target); got != tt.want {
			t.Errorf("Converged(%v, %v) = %v, want %v", tt.score, tt.target, got, tt.want)
		}
	}
}

func TestUpdateBoundsRaisesFloorWhenScoreAboveTarget(t *testing.T) {
	state := NewSearchState(75, 8, 48, nil)
	crossed := UpdateBounds(state, 28, 80)
	if crossed {
		t.Fatal("UpdateBounds() should not report crossed bounds here")
	}
	if state.Lo != 29 {
		t.Errorf("UpdateBounds() Lo = %d, want 29", state.Lo)
	}
	if state.Hi != 48 {
		t.Errorf("UpdateBounds() Hi = %d, want unchanged 48", state.Hi)
	}
}

func TestUpdateBoundsLowersCeilingWhenScoreBelowTarget(t *testing.T) {
	state := NewSearchState(75, 8, 48, nil)
	crossed := UpdateBounds(state, 28, 60)
	if crossed {
		t.Fatal("UpdateBounds() should not report crossed bounds here")
	}
	if state.Hi != 27 {
		t.Errorf("UpdateBounds() Hi = %d, want 27", state.Hi)
	}
	if state.Lo != 8 {
		t.Errorf("UpdateBounds() Lo = %d, want unchanged 8", state.Lo)
	}
}

func TestUpdateBoundsSinglePointDoesNotCross(t *testing.T) {
	state := NewSearchState(75, 20, 20, nil)
	crossed := UpdateBounds(state, 20, 60)
	if crossed {
		t.Fatal("UpdateBounds() should not report crossed bounds: Hi is clamped to Lo, so Lo > Hi cannot result")
	}
}

func TestNewSearchStateSeedNarrowsBounds(t *testing.T) {
	seed := 30
	state := NewSearchState(75, 8, 48, &seed)
	if state.Lo != 25 || state.Hi != 35 {
		t.Errorf("NewSearchState() with seed 30 = [%d, %d], want [25, 35]", state.Lo, state.Hi)
	}
}

func TestNewSearchStateSeedClampedToHardBounds(t *testing.T) {
	seed := 10
	state := NewSearchState(75, 8, 48, &seed)
	if state.Lo != 8 {
		t.Errorf("NewSearchState() seed near floor: Lo = %d, want clamped to 8", state.Lo)
	}
}
