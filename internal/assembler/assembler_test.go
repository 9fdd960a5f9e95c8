package assembler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestStrategyString(t *testing.T) {
	tests := []struct {
		s    Strategy
		want string
	}{
		{StrategyRawBitstream, "raw-bitstream"},
		{StrategyFFmpegConcat, "ffmpeg-concat"},
		{StrategyMkvmerge, "mkvmerge"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Strategy(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestConcatenateRawBitstreamJoinsFilesInSortedOrder(t *testing.T) {
	dir := t.TempDir()
	writeEncodedChunk(t, dir, "0001.ivf", "AA")
	writeEncodedChunk(t, dir, "0000.ivf", "BB")

	out := filepath.Join(dir, "out.ivf")
	if err := concatRaw(mustSortedChunkFiles(t, dir), "", out); err != nil {
		t.Fatalf("concatRaw() error = %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "BBAA" {
		t.Errorf("concatRaw() output = %q, want %q (0000 before 0001)", got, "BBAA")
	}
}

func TestConcatenateNoEncodedFilesErrors(t *testing.T) {
	dir := t.TempDir()
	if err := Concatenate(context.Background(), StrategyRawBitstream, dir, "", filepath.Join(dir, "out.ivf")); err == nil {
		t.Error("Concatenate() with empty encodedDir = nil, want error")
	}
}

func writeEncodedChunk(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", name, err)
	}
}

func mustSortedChunkFiles(t *testing.T, dir string) []string {
	t.Helper()
	files, err := sortedChunkFiles(dir)
	if err != nil {
		t.Fatalf("sortedChunkFiles() error = %v", err)
	}
	return files
}
