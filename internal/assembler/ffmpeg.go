package assembler

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/five82/chunkenc/internal/command"
	apperrors "github.com/five82/chunkenc/internal/errors"
	"github.com/five82/chunkenc/internal/util"
)

// concatFFmpeg joins chunkFiles via ffmpeg's concat demuxer, writing a
// temporary manifest listing each file in order.
func concatFFmpeg(ctx context.Context, chunkFiles []string, audioPath, outputPath string) error {
	manifest, err := util.CreateTempFile(os.TempDir(), "chunkenc-concat", "txt")
	if err != nil {
		return apperrors.NewConcatenationError("creating ffmpeg concat manifest", err)
	}
	defer func() { _ = manifest.Cleanup() }()

	var b strings.Builder
	for _, path := range chunkFiles {
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(path, "'", `'\''`))
	}
	if _, err := manifest.WriteString(b.String()); err != nil {
		return apperrors.NewConcatenationError("writing ffmpeg concat manifest", err)
	}
	if err := manifest.Close(); err != nil {
		return apperrors.NewConcatenationError("closing ffmpeg concat manifest", err)
	}

	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", manifest.Path()}
	if audioPath != "" {
		args = append(args, "-i", audioPath, "-map", "0:v:0", "-map", "1:a:0")
	}
	args = append(args, "-c", "copy", outputPath)

	d := command.New("ffmpeg", args...)
	outcome := command.Run(ctx, d)
	if outcome.Crashed() {
		return apperrors.NewConcatenationError("ffmpeg concat failed", outcome.Err)
	}
	return nil
}
