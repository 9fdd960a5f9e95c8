package broker

import (
	"context"
	"fmt"
	"os"

	apperrors "github.com/five82/chunkenc/internal/errors"

	"github.com/five82/chunkenc/internal/chunk"
	"github.com/five82/chunkenc/internal/command"
	"github.com/five82/chunkenc/internal/tq"
)

// searchQuantizer runs the target-quality control loop (§4.E) for one
// chunk and returns the chosen quantizer. probeDir is where probe output
// files are written; they are not cleaned up here, since they are useful
// for post-mortem diagnostics and the caller's temp-dir lifecycle owns
// them.
func searchQuantizer(ctx context.Context, c chunk.Chunk, cfg *tq.Config, seed *int, encoder EncoderAdapter, metric MetricAdapter, probeDir string) (int, error) {
	state := tq.NewSearchState(cfg.Target, cfg.QMin, cfg.QMax, seed)

	for len(state.History) < cfg.ProbeBudget {
		q := tq.PredictQuantizer(state)
		if state.HasQuantizer(q) {
			break
		}

		outputPath := fmt.Sprintf("%s/v_%05d_%d.%s", probeDir, c.Index(), q, encoder.OutputExt())
		pipeline, err := encoder.ProbeCommand(ctx, c, q, cfg.ProbingRate, cfg.ProbingRateDenominator, outputPath)
		if err != nil {
			return 0, err
		}

		if _, err := command.RunPipeline(ctx, pipeline); err != nil {
			return 0, apperrors.NewProbeCrashError(c.Name(), err)
		}

		score, frameScores, err := metric.Score(ctx, c, outputPath, cfg.MetricMode)
		if err != nil {
			return 0, apperrors.NewProbeCrashError(c.Name(), err)
		}

		size := fileSize(outputPath)
		state.AddProbe(q, score, frameScores, size)

		if tq.Converged(score, cfg.Target) {
			break
		}
		if crossed := tq.UpdateBounds(state, q, score); crossed {
			break
		}
	}

	best := state.BestProbe()
	if best == nil {
		return tq.PredictQuantizer(state), nil
	}
	return best.Quantizer, nil
}

func fileSize(path string) uint64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return uint64(info.Size())
}
