package processing

import (
	"testing"

	"github.com/five82/chunkenc/internal/assembler"
	"github.com/five82/chunkenc/internal/chunk"
	"github.com/five82/chunkenc/internal/command"
)

func TestOrderPolicy(t *testing.T) {
	cases := map[string]chunk.OrderPolicy{
		"longest-first":  chunk.OrderLongestFirst,
		"shortest-first": chunk.OrderShortestFirst,
		"random":         chunk.OrderRandom,
		"sequential":     chunk.OrderSequential,
		"":               chunk.OrderSequential,
		"bogus":          chunk.OrderSequential,
	}
	for input, want := range cases {
		if got := orderPolicy(input); got != want {
			t.Errorf("orderPolicy(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestConcatStrategyFor(t *testing.T) {
	cases := map[string]assembler.Strategy{
		"raw":      assembler.StrategyRawBitstream,
		"mkvmerge": assembler.StrategyMkvmerge,
		"ffmpeg":   assembler.StrategyFFmpegConcat,
		"":         assembler.StrategyFFmpegConcat,
		"bogus":    assembler.StrategyFFmpegConcat,
	}
	for input, want := range cases {
		if got := concatStrategyFor(input); got != want {
			t.Errorf("concatStrategyFor(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestMaxSceneFrames(t *testing.T) {
	got := maxSceneFrames(1920, 1080, 30, 1, 10)
	if got != 300 {
		t.Errorf("maxSceneFrames = %d, want 300", got)
	}
}

func TestMaxSceneFramesZeroDen(t *testing.T) {
	if got := maxSceneFrames(1920, 1080, 30, 0, 10); got != 0 {
		t.Errorf("maxSceneFrames with zero den = %d, want 0", got)
	}
}

func TestMaxSceneFramesUsesResolutionDefault(t *testing.T) {
	got := maxSceneFrames(3840, 2160, 24, 1, 0)
	if got <= 0 {
		t.Errorf("expected a positive default scene frame cap, got %d", got)
	}
}

func TestThreadsPerWorker(t *testing.T) {
	if got := threadsPerWorker(4, false); got != 4 {
		t.Errorf("threadsPerWorker(4, false) = %d, want 4", got)
	}
	if got := threadsPerWorker(4, true); got != 3 {
		t.Errorf("threadsPerWorker(4, true) = %d, want 3", got)
	}
	if got := threadsPerWorker(1, true); got != 1 {
		t.Errorf("threadsPerWorker(1, true) = %d, want 1 (never drop to zero)", got)
	}
	if got := threadsPerWorker(0, true); got != 0 {
		t.Errorf("threadsPerWorker(0, true) = %d, want 0", got)
	}
}

func TestAverageChunkFrames(t *testing.T) {
	src := command.New("true")
	chunks := []chunk.Chunk{
		chunk.New(0, 0, 100, src, "svtav1", nil, 1, 24, false, "/tmp", 1920),
		chunk.New(1, 100, 300, src, "svtav1", nil, 1, 24, false, "/tmp", 1920),
	}
	if got := averageChunkFrames(chunks, 300); got != 150 {
		t.Errorf("averageChunkFrames = %d, want 150", got)
	}
}

func TestAverageChunkFramesEmptyFallsBackToTotal(t *testing.T) {
	if got := averageChunkFrames(nil, 450); got != 450 {
		t.Errorf("averageChunkFrames(nil) = %d, want 450", got)
	}
}

func TestResolveOutputWithTargetFilename(t *testing.T) {
	dir, path := resolveOutput("/in/movie.mkv", "/out", "custom.mkv")
	if dir != "/out" {
		t.Errorf("dir = %q, want /out", dir)
	}
	if path != "/out/custom.mkv" {
		t.Errorf("path = %q, want /out/custom.mkv", path)
	}
}
