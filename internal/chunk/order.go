package chunk

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sort"
)

// OrderPolicy selects how the planner orders the chunk queue after
// strategy emission. The chosen order is fixed for the run; workers pop
// from the head.
type OrderPolicy int

const (
	// OrderSequential keeps chunks in ascending index order.
	OrderSequential OrderPolicy = iota
	// OrderLongestFirst sorts by descending frame count, ties by
	// ascending index.
	OrderLongestFirst
	// OrderShortestFirst sorts by ascending frame count, ties by
	// ascending index.
	OrderShortestFirst
	// OrderRandom shuffles with a seed drawn from OS entropy.
	OrderRandom
)

// Reorder returns a new slice containing chunks arranged per policy.
// The input slice is not modified.
func Reorder(chunks []Chunk, policy OrderPolicy) []Chunk {
	out := append([]Chunk(nil), chunks...)

	switch policy {
	case OrderSequential:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Index() < out[j].Index() })
	case OrderLongestFirst:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].FrameCount() != out[j].FrameCount() {
				return out[i].FrameCount() > out[j].FrameCount()
			}
			return out[i].Index() < out[j].Index()
		})
	case OrderShortestFirst:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].FrameCount() != out[j].FrameCount() {
				return out[i].FrameCount() < out[j].FrameCount()
			}
			return out[i].Index() < out[j].Index()
		})
	case OrderRandom:
		shuffle(out, osEntropySeed())
	}

	return out
}

func shuffle(chunks []Chunk, seed uint64) {
	r := rand.New(rand.NewPCG(seed, seed>>32|1))
	r.Shuffle(len(chunks), func(i, j int) { chunks[i], chunks[j] = chunks[j], chunks[i] })
}

// osEntropySeed draws a seed from the OS's cryptographic entropy source.
// A deterministic fallback is used only if the OS source is unavailable,
// which would otherwise make OrderRandom panic on a starved entropy pool.
func osEntropySeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0x9e3779b97f4a7c15
	}
	return binary.LittleEndian.Uint64(b[:])
}
