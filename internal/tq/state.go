package tq

import "math"

// Probe is one probe encode's result: the quantizer tried and the
// perceptual score it produced.
type Probe struct {
	Quantizer int

	// Score is the computed perceptual score for this probe.
	Score float64

	// FrameScores holds per-frame scores, aggregated per Config.MetricMode
	// to produce Score.
	FrameScores []float64

	// Size is the probe output's size in bytes.
	Size uint64
}

// SearchState tracks the iterative quantizer search for a single chunk.
type SearchState struct {
	History []Probe

	// Lo and Hi are the current search bounds, narrowed as probes come
	// in; they never escape [QMin, QMax].
	Lo int
	Hi int

	QMin int
	QMax int

	Target float64

	// LastQuantizer is the quantizer used in the most recent probe.
	LastQuantizer int
}

// NewSearchState creates search state for one chunk. If seedQuantizer is
// non-nil, the search bounds are narrowed to [seed-5, seed+5] clamped to
// [qMin, qMax], per the cross-chunk prediction seeding optimisation
// (§4.E); otherwise the full configured range is used.
func NewSearchState(target float64, qMin, qMax int, seedQuantizer *int) *SearchState {
	lo, hi := qMin, qMax
	if seedQuantizer != nil {
		lo = max(qMin, *seedQuantizer-5)
		hi = min(qMax, *seedQuantizer+5)
	}

	return &SearchState{
		History: make([]Probe, 0, 8),
		Lo:      lo,
		Hi:      hi,
		QMin:    qMin,
		QMax:    qMax,
		Target:  target,
	}
}

// AddProbe records a completed probe result.
func (s *SearchState) AddProbe(quantizer int, score float64, frameScores []float64, size uint64) {
	s.History = append(s.History, Probe{
		Quantizer:   quantizer,
		Score:       score,
		FrameScores: frameScores,
		Size:        size,
	})
}

// HasQuantizer reports whether q is already present in the probe
// history, per the control loop's "already probed" termination case.
func (s *SearchState) HasQuantizer(q int) bool {
	for _, p := range s.History {
		if p.Quantizer == q {
			return true
		}
	}
	return false
}

// BestProbe selects the final quantizer per §4.E: among probes within
// the tolerance band, the one with the highest quantizer (smallest
// output at acceptable quality); if none are within tolerance, the one
// whose score is nearest the target, ties broken by higher quantizer.
func (s *SearchState) BestProbe() *Probe {
	if len(s.History) == 0 {
		return nil
	}

	var inTolerance []Probe
	for _, p := range s.History {
		if withinTolerance(p.Score, s.Target) {
			inTolerance = append(inTolerance, p)
		}
	}

	pool := inTolerance
	if len(pool) == 0 {
		pool = s.History
	}

	best := pool[0]
	bestDiff := math.Abs(best.Score - s.Target)
	for _, p := range pool[1:] {
		diff := math.Abs(p.Score - s.Target)
		switch {
		case len(inTolerance) > 0 && p.Quantizer > best.Quantizer:
			best, bestDiff = p, diff
		case len(inTolerance) == 0 && (diff < bestDiff || (diff == bestDiff && p.Quantizer > best.Quantizer)):
			best, bestDiff = p, diff
		}
	}
	result := best
	return &result
}

func withinTolerance(score, target float64) bool {
	if target == 0 {
		return score == 0
	}
	return math.Abs(score-target)/target < ToleranceRatio
}
