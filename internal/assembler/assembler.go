// Package assembler joins a completed run's per-chunk encoded files (and
// the separately encoded audio track) into the final output container
// (§4.H). It never inspects chunk state itself; the broker and ledger
// already guarantee encodedDir holds exactly one file per chunk, named
// so lexicographic order matches chunk index order.
package assembler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/five82/chunkenc/internal/command"
	apperrors "github.com/five82/chunkenc/internal/errors"
)

// Strategy selects how encoded chunk files are joined.
type Strategy int

const (
	// StrategyRawBitstream concatenates chunk files byte-for-byte,
	// correct only for bitstream-level formats (raw AV1/IVF) that tolerate
	// naive concatenation.
	StrategyRawBitstream Strategy = iota
	// StrategyFFmpegConcat uses ffmpeg's concat demuxer, the general-purpose
	// muxer-level join.
	StrategyFFmpegConcat
	// StrategyMkvmerge uses mkvmerge, a container-specific muxer with
	// better handling of Matroska-specific metadata and chapters.
	StrategyMkvmerge
)

func (s Strategy) String() string {
	switch s {
	case StrategyRawBitstream:
		return "raw-bitstream"
	case StrategyFFmpegConcat:
		return "ffmpeg-concat"
	case StrategyMkvmerge:
		return "mkvmerge"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Concatenate joins every encoded chunk file in encodedDir, in sorted
// (index) order, plus the optional audio track, into outputPath using
// the requested strategy.
func Concatenate(ctx context.Context, strategy Strategy, encodedDir, audioPath, outputPath string) error {
	files, err := sortedChunkFiles(encodedDir)
	if err != nil {
		return apperrors.NewConcatenationError("listing encoded chunk files", err)
	}
	if len(files) == 0 {
		return apperrors.NewConcatenationError("no encoded chunk files found in "+encodedDir, nil)
	}

	switch strategy {
	case StrategyRawBitstream:
		return concatRaw(files, audioPath, outputPath)
	case StrategyFFmpegConcat:
		return concatFFmpeg(ctx, files, audioPath, outputPath)
	case StrategyMkvmerge:
		return concatMkvmerge(ctx, files, audioPath, outputPath)
	default:
		return apperrors.NewConcatenationError(fmt.Sprintf("unknown concatenation strategy %d", int(strategy)), nil)
	}
}

func sortedChunkFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}
