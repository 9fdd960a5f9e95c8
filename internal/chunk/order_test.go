package chunk

import (
	"testing"

	"github.com/five82/chunkenc/internal/command"
)

func testChunks(frameCounts ...int) []Chunk {
	chunks := make([]Chunk, len(frameCounts))
	start := 0
	for i, n := range frameCounts {
		chunks[i] = New(i, start, start+n, command.New("true"), "enc", nil, 1, 24.0, false, "/tmp/work", 4)
		start += n
	}
	return chunks
}

func TestReorderSequential(t *testing.T) {
	chunks := testChunks(10, 30, 20)
	got := Reorder(chunks, OrderSequential)
	for i, c := range got {
		if c.Index() != i {
			t.Errorf("position %d has index %d, want %d", i, c.Index(), i)
		}
	}
}

func TestReorderLongestFirst(t *testing.T) {
	chunks := testChunks(10, 30, 20)
	got := Reorder(chunks, OrderLongestFirst)
	want := []int{30, 20, 10}
	for i, c := range got {
		if c.FrameCount() != want[i] {
			t.Errorf("position %d has %d frames, want %d", i, c.FrameCount(), want[i])
		}
	}
}

func TestReorderShortestFirst(t *testing.T) {
	chunks := testChunks(10, 30, 20)
	got := Reorder(chunks, OrderShortestFirst)
	want := []int{10, 20, 30}
	for i, c := range got {
		if c.FrameCount() != want[i] {
			t.Errorf("position %d has %d frames, want %d", i, c.FrameCount(), want[i])
		}
	}
}

func TestReorderLongestFirstTieBreak(t *testing.T) {
	chunks := testChunks(20, 20, 20)
	got := Reorder(chunks, OrderLongestFirst)
	for i, c := range got {
		if c.Index() != i {
			t.Errorf("tie-broken position %d has index %d, want %d (ascending index)", i, c.Index(), i)
		}
	}
}

func TestReorderRandomIsPermutation(t *testing.T) {
	chunks := testChunks(1, 2, 3, 4, 5, 6, 7, 8)
	got := Reorder(chunks, OrderRandom)

	if len(got) != len(chunks) {
		t.Fatalf("Reorder(random) returned %d chunks, want %d", len(got), len(chunks))
	}
	seen := make(map[int]bool)
	for _, c := range got {
		seen[c.Index()] = true
	}
	if len(seen) != len(chunks) {
		t.Errorf("Reorder(random) did not produce a permutation: saw %d distinct indices", len(seen))
	}
}

func TestReorderDoesNotMutateInput(t *testing.T) {
	chunks := testChunks(10, 30, 20)
	original := append([]Chunk(nil), chunks...)
	_ = Reorder(chunks, OrderLongestFirst)
	for i := range chunks {
		if chunks[i].Index() != original[i].Index() {
			t.Fatalf("Reorder mutated its input slice")
		}
	}
}
