// Package metric is the concrete broker.MetricAdapter for SSIMULACRA2,
// invoked as an external helper process rather than linked in as a CGO
// binding, matching original_source's vmaf_probe() shape: reference
// frames are produced by a Command Descriptor pipeline and compared by a
// standalone scoring binary against the probe output file it reads itself.
package metric

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/chunkenc/internal/broker"
	"github.com/five82/chunkenc/internal/chunk"
	"github.com/five82/chunkenc/internal/command"
	apperrors "github.com/five82/chunkenc/internal/errors"
)

// Ssimulacra2Adapter scores a probe's output against the chunk's
// original source frames using the ssimulacra2_rs CLI, restricted to the
// same frame selection the probe itself was encoded with.
type Ssimulacra2Adapter struct {
	// Program is the ssimulacra2_rs binary name or path.
	Program string
	// ProbingRate and ProbingRateDenominator select which source frames
	// are compared, mirroring the probe encode's own frame selection so
	// reference and distorted frame counts match.
	ProbingRate            int
	ProbingRateDenominator int
}

var _ broker.MetricAdapter = Ssimulacra2Adapter{}

// Score decodes the chunk's reference frames at the same sampling rate
// the probe used, runs them against the probe output through
// ssimulacra2_rs, and aggregates per-frame scores per metricMode
// ("mean" or a percentile like "p5").
func (a Ssimulacra2Adapter) Score(ctx context.Context, c chunk.Chunk, probeOutputPath string, metricMode string) (float64, []float64, error) {
	program := a.Program
	if program == "" {
		program = "ssimulacra2_rs"
	}

	referenceStage := referenceDecodeStage(a.ProbingRate, a.ProbingRateDenominator)
	compare := command.New(program, "video", "-", probeOutputPath).
		WithStdin(command.StdioPipe).
		WithStdout(command.StdioCapture).
		WithStderr(command.StdioCapture)

	pipeline := command.Pipeline{c.SourceCommand(), referenceStage, compare}
	outcome, err := command.RunPipeline(ctx, pipeline)
	if err != nil {
		return 0, nil, apperrors.NewProbeCrashError(c.Name(), err)
	}

	frameScores, err := parseFrameScores(outcome.Stdout)
	if err != nil {
		return 0, nil, apperrors.NewProbeCrashError(c.Name(), err)
	}
	if len(frameScores) == 0 {
		return 0, nil, apperrors.NewProbeCrashError(c.Name(), fmt.Errorf("ssimulacra2_rs produced no frame scores"))
	}

	return aggregate(frameScores, metricMode), frameScores, nil
}

// referenceDecodeStage builds the command that decodes the chunk's own
// source at the same frame selection the matching probe used, so the
// comparator sees an equal number of reference and distorted frames.
// Its stdin is wired by the caller to the chunk's source stage.
func referenceDecodeStage(probingRate, probingRateDenominator int) command.Descriptor {
	args := []string{"-hide_banner", "-loglevel", "error", "-i", "-"}

	if probingRate > 0 && probingRateDenominator > 1 {
		filter := fmt.Sprintf("select='not(mod(n\\,%d))'", probingRateDenominator/probingRate)
		args = append(args, "-vf", filter)
	}
	args = append(args, "-f", "yuv4mpegpipe", "-")

	return command.New("ffmpeg", args...).
		WithStdin(command.StdioPipe).
		WithStdout(command.StdioPipe).
		WithStderr(command.StdioCapture)
}

// parseFrameScores reads ssimulacra2_rs's stdout, one "index score" pair
// per line, and returns the scores in index order.
func parseFrameScores(stdout []byte) ([]float64, error) {
	var scores []float64
	scanner := bufio.NewScanner(strings.NewReader(string(stdout)))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		score, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			continue
		}
		scores = append(scores, score)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}

// aggregate reduces per-frame scores to one value per metricMode: "mean"
// or a percentile spelled "pN" (e.g. "p5" for the 5th percentile, the
// low end where AV1 artifacts are most visible).
func aggregate(scores []float64, metricMode string) float64 {
	if strings.HasPrefix(metricMode, "p") {
		if pct, err := strconv.Atoi(metricMode[1:]); err == nil {
			return percentile(scores, float64(pct))
		}
	}
	return mean(scores)
}

func mean(scores []float64) float64 {
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func percentile(scores []float64, pct float64) float64 {
	sorted := append([]float64(nil), scores...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	idx := int(pct / 100 * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
