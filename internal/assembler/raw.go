package assembler

import (
	"context"
	"io"
	"os"
	"path/filepath"

	apperrors "github.com/five82/chunkenc/internal/errors"
)

// concatRaw joins bitstream-level chunk files (raw AV1/IVF) by
// concatenating their bytes directly, the cheapest strategy and the
// only one valid for formats that tolerate naive concatenation. If
// audioPath is set, the raw video is muxed with it via ffmpeg as a
// final step; otherwise the concatenated video is the output.
func concatRaw(chunkFiles []string, audioPath, outputPath string) error {
	videoOut := outputPath
	if audioPath != "" {
		videoOut = outputPath + ".video" + filepath.Ext(chunkFiles[0])
		defer os.Remove(videoOut)
	}

	if err := rawConcatFiles(chunkFiles, videoOut); err != nil {
		return apperrors.NewConcatenationError("raw bitstream concatenation", err)
	}

	if audioPath == "" {
		return nil
	}
	return concatFFmpeg(context.Background(), []string{videoOut}, audioPath, outputPath)
}

func rawConcatFiles(chunkFiles []string, outputPath string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	for _, path := range chunkFiles {
		if err := appendFile(out, path); err != nil {
			return err
		}
	}
	return nil
}

func appendFile(dst io.Writer, srcPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = io.Copy(dst, src)
	return err
}
