// Package broker runs the bounded worker pool that turns a chunk queue
// into encoded output files (§4.F). It owns no encoder- or
// metric-specific logic itself; those are supplied by the EncoderAdapter
// and MetricAdapter a caller wires in, keeping the broker reusable across
// encoder families.
package broker

import (
	"context"

	"github.com/five82/chunkenc/internal/chunk"
	"github.com/five82/chunkenc/internal/command"
)

// ProgressUpdate is one frame-count observation parsed from an encoder's
// stderr stream. Frames is the cumulative count the encoder has reported
// so far for the current stage, not a delta; the caller derives deltas
// by diffing successive observations within one stage.
type ProgressUpdate struct {
	Frames int
}

// EncoderAdapter builds the command pipeline for one probe or final
// encode of a chunk and parses the chosen encoder's stderr for progress.
// Implementations are encoder-specific (SVT-AV1, x265, ...); the broker
// and target-quality search never inspect the pipeline's contents.
type EncoderAdapter interface {
	// ProbeCommand builds the three-stage pipeline (source, pixel-format
	// converter, encoder) for a bounded-rate probe encode at quantizer q.
	ProbeCommand(ctx context.Context, c chunk.Chunk, quantizer int, probingRate, probingRateDenominator int, outputPath string) (command.Pipeline, error)

	// FinalCommand builds the pipeline for one pass of the final encode
	// at the chosen quantizer.
	FinalCommand(ctx context.Context, c chunk.Chunk, quantizer int, pass int, outputPath string) (command.Pipeline, error)

	// ParseProgress extracts the cumulative frame count from one line of
	// the encoder stage's stderr, if that line carries one.
	ParseProgress(line string) (ProgressUpdate, bool)

	// OutputExt is the file extension final encode output files use.
	OutputExt() string
}

// MetricAdapter computes a perceptual quality score for a probe's
// output, used by the target-quality search (§4.E).
type MetricAdapter interface {
	// Score returns the aggregate score (per Config.MetricMode) and the
	// per-frame scores it was aggregated from.
	Score(ctx context.Context, c chunk.Chunk, probeOutputPath string, metricMode string) (score float64, frameScores []float64, err error)
}
