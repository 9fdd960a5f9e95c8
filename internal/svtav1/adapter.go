// Package svtav1 is the concrete broker.EncoderAdapter for the SVT-AV1
// encoder, built as a three-stage pipeline (chunk source -> ffmpeg pixel
// format conversion -> SvtAv1EncApp), matching original_source's
// vmaf_probe() pipeline shape.
package svtav1

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/five82/chunkenc/internal/broker"
	"github.com/five82/chunkenc/internal/chunk"
	"github.com/five82/chunkenc/internal/command"
	"github.com/five82/chunkenc/internal/ffmpeg"
)

// Params carries the fixed SVT-AV1 parameters shared by every chunk in a
// run (everything except the quantizer, which varies per chunk and per
// probe).
type Params struct {
	Preset                uint8
	Tune                  uint8
	ACBias                float32
	EnableVarianceBoost   bool
	VarianceBoostStrength uint8
	VarianceOctile        uint8
	FilmGrain             *uint8
	FilmGrainDenoise      *bool
	ThreadsPerWorker      int
	CropFilter            string
}

// Adapter implements broker.EncoderAdapter for SvtAv1EncApp.
type Adapter struct {
	Params Params
}

var _ broker.EncoderAdapter = Adapter{}

// OutputExt reports SvtAv1EncApp's native container.
func (Adapter) OutputExt() string { return "ivf" }

// ProbeCommand builds a pipeline restricted to every ProbingRate-th
// frame out of ProbingRateDenominator, encoded single-pass at a fast
// preset regardless of the run's configured preset, since probes only
// need to be representative, not final-quality.
func (a Adapter) ProbeCommand(ctx context.Context, c chunk.Chunk, quantizer, probingRate, probingRateDenominator int, outputPath string) (command.Pipeline, error) {
	filter := a.videoFilter()
	if probingRate > 0 && probingRateDenominator > 1 {
		sel := fmt.Sprintf("select='not(mod(n\\,%d))'", probingRateDenominator/probingRate)
		if filter == "" {
			filter = sel
		} else {
			filter = sel + "," + filter
		}
	}

	convert := ffmpegConvertStage(filter)
	encode := command.New("SvtAv1EncApp",
		svtArgs(a.Params, quantizer, probingSpeedPreset(a.Params.Preset), 1, outputPath)...,
	).WithStdin(command.StdioPipe).WithStdout(command.StdioNull).WithStderr(command.StdioCapture)

	return command.Pipeline{c.SourceCommand(), convert, encode}, nil
}

// FinalCommand builds a pipeline for one pass of the chunk's final,
// full-quality, full-frame-range encode.
func (a Adapter) FinalCommand(ctx context.Context, c chunk.Chunk, quantizer, pass int, outputPath string) (command.Pipeline, error) {
	convert := ffmpegConvertStage(a.videoFilter())
	encode := command.New("SvtAv1EncApp",
		svtArgs(a.Params, quantizer, a.Params.Preset, pass, outputPath)...,
	).WithStdin(command.StdioPipe).WithStdout(command.StdioNull).WithStderr(command.StdioCapture)

	return command.Pipeline{c.SourceCommand(), convert, encode}, nil
}

func (a Adapter) videoFilter() string {
	chain := ffmpeg.NewVideoFilterChain().AddCrop(a.Params.CropFilter)
	return chain.Build()
}

func ffmpegConvertStage(filter string) command.Descriptor {
	args := []string{"-hide_banner", "-loglevel", "error", "-i", "-", "-f", "yuv4mpegpipe"}
	if filter != "" {
		args = append(args, "-vf", filter)
	}
	args = append(args, "-")
	return command.New("ffmpeg", args...).
		WithStdin(command.StdioPipe).
		WithStdout(command.StdioPipe).
		WithStderr(command.StdioCapture)
}

// probingSpeedPreset returns a preset at least as fast as configured,
// since probe encodes favour throughput over rate-distortion accuracy.
func probingSpeedPreset(configured uint8) uint8 {
	if configured < 10 {
		return 10
	}
	return configured
}

func svtArgs(p Params, quantizer int, preset uint8, pass int, outputPath string) []string {
	builder := ffmpeg.NewSvtAv1ParamsBuilder().
		WithTune(p.Tune).
		WithACBias(p.ACBias).
		WithEnableVarianceBoost(p.EnableVarianceBoost).
		WithVarianceBoostStrength(p.VarianceBoostStrength).
		WithVarianceOctile(p.VarianceOctile)
	if p.FilmGrain != nil {
		builder.AddParam("film-grain", strconv.Itoa(int(*p.FilmGrain)))
		if p.FilmGrainDenoise != nil {
			builder.AddParam("film-grain-denoise", boolParam(*p.FilmGrainDenoise))
		}
	}

	args := []string{
		"-i", "stdin",
		"--preset", strconv.Itoa(int(preset)),
		"--crf", strconv.Itoa(quantizer),
		"-b", outputPath,
		"--pass", strconv.Itoa(pass),
		"--svtav1-params", builder.Build(),
	}
	if p.ThreadsPerWorker > 0 {
		args = append(args, "--lp", strconv.Itoa(p.ThreadsPerWorker))
	}
	return args
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// progressLine matches the frame counter SvtAv1EncApp and ffmpeg both
// print to stderr during encoding ("Encoding frame  120 ..." or
// ffmpeg's "frame=  120 fps=...").
var progressLine = regexp.MustCompile(`(?:[Ff]rame[= ]+)(\d+)`)

// ParseProgress extracts a frame count from one line of encoder stderr.
func (Adapter) ParseProgress(line string) (broker.ProgressUpdate, bool) {
	line = strings.TrimSpace(line)
	m := progressLine.FindStringSubmatch(line)
	if m == nil {
		return broker.ProgressUpdate{}, false
	}
	frames, err := strconv.Atoi(m[1])
	if err != nil {
		return broker.ProgressUpdate{}, false
	}
	return broker.ProgressUpdate{Frames: frames}, true
}
