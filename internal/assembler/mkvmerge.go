package assembler

import (
	"context"

	"github.com/five82/chunkenc/internal/command"
	apperrors "github.com/five82/chunkenc/internal/errors"
)

// concatMkvmerge joins chunkFiles with mkvmerge's native "+"
// concatenation syntax, the container-specific strategy with the best
// handling of Matroska metadata.
func concatMkvmerge(ctx context.Context, chunkFiles []string, audioPath, outputPath string) error {
	args := []string{"-o", outputPath}
	for i, path := range chunkFiles {
		if i > 0 {
			args = append(args, "+")
		}
		args = append(args, path)
	}
	if audioPath != "" {
		args = append(args, audioPath)
	}

	d := command.New("mkvmerge", args...)
	outcome := command.Run(ctx, d)
	if outcome.Crashed() {
		return apperrors.NewConcatenationError("mkvmerge concat failed", outcome.Err)
	}
	return nil
}
