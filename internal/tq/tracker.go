package tq

import (
	"fmt"
	"os"
	"sync"
)

var debugTQ = os.Getenv("CHUNKENC_DEBUG_TQ") == "1"

// QuantizerTracker maintains completed chunks' final quantizers and
// predicts a seed quantizer for new chunks from nearby completed ones,
// per the cross-chunk prediction seeding optimisation in §4.E.
type QuantizerTracker struct {
	mu      sync.RWMutex
	results map[int]int // chunkIdx -> final quantizer
}

// NewTracker creates an empty quantizer tracker.
func NewTracker() *QuantizerTracker {
	return &QuantizerTracker{
		results: make(map[int]int),
	}
}

// Record stores the final quantizer chosen for a completed chunk.
func (t *QuantizerTracker) Record(chunkIdx, quantizer int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results[chunkIdx] = quantizer
}

// Predict returns a seed quantizer for chunkIdx, a weighted average of up
// to 4 nearest completed chunks weighted by 1/distance. Returns
// defaultQuantizer if no completed chunks exist.
func (t *QuantizerTracker) Predict(chunkIdx, defaultQuantizer int) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.results) == 0 {
		return defaultQuantizer
	}

	type neighbor struct {
		idx, dist, quantizer int
	}

	neighbors := make([]neighbor, 0, len(t.results))
	for idx, q := range t.results {
		dist := chunkIdx - idx
		if dist < 0 {
			dist = -dist
		}
		neighbors = append(neighbors, neighbor{idx, dist, q})
	}

	for i := 1; i < len(neighbors); i++ {
		for j := i; j > 0 && neighbors[j].dist < neighbors[j-1].dist; j-- {
			neighbors[j], neighbors[j-1] = neighbors[j-1], neighbors[j]
		}
	}

	neighbors = neighbors[:min(4, len(neighbors))]

	var weightedSum, weightSum float64
	for _, n := range neighbors {
		if n.dist == 0 {
			if debugTQ {
				fmt.Printf("[TQ-DEBUG]   -> exact match at chunk %d, q=%d\n", n.idx, n.quantizer)
			}
			return n.quantizer
		}
		weight := 1.0 / float64(n.dist)
		weightedSum += float64(n.quantizer) * weight
		weightSum += weight
		if debugTQ {
			fmt.Printf("[TQ-DEBUG]   -> neighbor chunk %d: q=%d, dist=%d, weight=%.3f\n",
				n.idx, n.quantizer, n.dist, weight)
		}
	}

	if weightSum == 0 {
		return defaultQuantizer
	}

	result := roundClampInt(weightedSum/weightSum, -1<<31, 1<<31-1)
	if debugTQ {
		fmt.Printf("[TQ-DEBUG]   -> weighted avg=%d\n", result)
	}
	return result
}

// Count returns the number of recorded results.
func (t *QuantizerTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.results)
}
