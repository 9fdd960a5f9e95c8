package chunk

import (
	"sort"
	"sync"
)

// Adjacency tracks which chunks in a queue have finished their
// target-quality search and lets a not-yet-searched chunk find its
// nearest already-finished neighbours by index. It exists to seed the
// bracket-narrowing optimisation described for the target-quality
// search (§4.E): it never influences the broker's dispatch order, which
// is fixed once the planner produces the queue.
type Adjacency struct {
	mu        sync.Mutex
	completed map[int]int // chunk index -> chosen quantizer
}

// NewAdjacency returns an empty Adjacency tracker.
func NewAdjacency() *Adjacency {
	return &Adjacency{completed: make(map[int]int)}
}

// MarkComplete records that the chunk at idx finished its search with
// the given quantizer.
func (a *Adjacency) MarkComplete(idx, quantizer int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.completed[idx] = quantizer
}

// Neighbour is one already-finished chunk's distance and quantizer,
// relative to the chunk a caller is seeding a bracket for.
type Neighbour struct {
	Distance  int
	Quantizer int
}

// Nearest returns up to k completed chunks closest to idx by index
// distance, nearest first. Ties are broken by lower index.
func (a *Adjacency) Nearest(idx, k int) []Neighbour {
	a.mu.Lock()
	defer a.mu.Unlock()

	if k <= 0 || len(a.completed) == 0 {
		return nil
	}

	idxs := make([]int, 0, len(a.completed))
	for otherIdx := range a.completed {
		idxs = append(idxs, otherIdx)
	}
	sort.Ints(idxs)

	all := make([]Neighbour, 0, len(idxs))
	for _, otherIdx := range idxs {
		q := a.completed[otherIdx]
		d := idx - otherIdx
		if d < 0 {
			d = -d
		}
		all = append(all, Neighbour{Distance: d, Quantizer: q})
	}

	// Insertion sort: the tracked set stays small (one entry per
	// finished chunk in a single run), so this is fast enough and
	// keeps the tie-break (lower original index) stable without a
	// second sort key.
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].Distance < all[j-1].Distance; j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}

	if k > len(all) {
		k = len(all)
	}
	return all[:k]
}

// Count returns how many chunks have recorded completion.
func (a *Adjacency) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.completed)
}
