// Package drapto provides a Go library for AV1 video encoding with SVT-AV1.
//
// Drapto is an opinionated FFmpeg wrapper that handles the complexity of
// AV1 encoding with sensible defaults, automatic crop detection, and a
// chunk-parallel encode pipeline with resumable progress.
//
// Basic usage:
//
//	encoder, err := drapto.New(
//	    drapto.WithPreset(drapto.PresetGrain),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := encoder.Encode(ctx, "input.mkv", "output/", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Encoded: %s, reduction: %.1f%%\n",
//	    result.OutputFile, result.SizeReductionPercent)
package drapto

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/chunkenc/internal/config"
	"github.com/five82/chunkenc/internal/discovery"
	"github.com/five82/chunkenc/internal/processing"
	"github.com/five82/chunkenc/internal/reporter"
	"github.com/five82/chunkenc/internal/util"
)

// Re-export preset types.
type Preset = config.Preset

const (
	PresetGrain = config.PresetGrain
	PresetClean = config.PresetClean
	PresetQuick = config.PresetQuick
)

// ParsePreset converts a preset string to a Preset value.
// Valid values are "grain", "clean", and "quick" (case-insensitive).
func ParsePreset(s string) (Preset, error) {
	return config.ParsePreset(s)
}

// ParseCRF parses a --crf argument: either a single value applied to all
// three resolution tiers, or a "sd,hd,uhd" triple.
func ParseCRF(s string) (sd, hd, uhd uint8, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, 0, fmt.Errorf("crf value is empty")
	}

	parts := strings.Split(s, ",")
	switch len(parts) {
	case 1:
		v, err := parseCRFValue(parts[0])
		if err != nil {
			return 0, 0, 0, err
		}
		return v, v, v, nil
	case 3:
		sdVal, err := parseCRFValue(parts[0])
		if err != nil {
			return 0, 0, 0, err
		}
		hdVal, err := parseCRFValue(parts[1])
		if err != nil {
			return 0, 0, 0, err
		}
		uhdVal, err := parseCRFValue(parts[2])
		if err != nil {
			return 0, 0, 0, err
		}
		return sdVal, hdVal, uhdVal, nil
	default:
		return 0, 0, 0, fmt.Errorf("crf must be a single value or an sd,hd,uhd triple, got %q", s)
	}
}

func parseCRFValue(s string) (uint8, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid crf value %q: %w", s, err)
	}
	if v < 0 || v > 63 {
		return 0, fmt.Errorf("crf must be 0-63, got %d", v)
	}
	return uint8(v), nil
}

// Encoder is the main entry point for video encoding.
type Encoder struct {
	config *config.Config
}

// Result contains the result of a single file encode.
type Result struct {
	OutputFile           string
	OriginalSize         uint64
	EncodedSize          uint64
	SizeReductionPercent float64
	ValidationPassed     bool
	EncodingSpeed        float32
}

// BatchResult contains the result of a batch encode.
type BatchResult struct {
	Results               []Result
	SuccessfulCount       int
	TotalFiles            int
	TotalSizeReduction    float64
	ValidationPassedCount int
}

// Option configures the encoder.
type Option func(*config.Config)

// New creates a new Encoder with the given options.
func New(opts ...Option) (*Encoder, error) {
	cfg := config.NewConfig(".", ".", ".")

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Encoder{config: cfg}, nil
}

// WithPreset applies a Drapto preset.
func WithPreset(p Preset) Option {
	return func(c *config.Config) {
		c.ApplyPreset(p)
	}
}

// WithQualitySD sets the CRF quality for SD videos (<1920 width).
func WithQualitySD(crf uint8) Option {
	return func(c *config.Config) {
		c.CRFSD = crf
	}
}

// WithQualityHD sets the CRF quality for HD videos (>=1920 width).
func WithQualityHD(crf uint8) Option {
	return func(c *config.Config) {
		c.CRFHD = crf
	}
}

// WithQualityUHD sets the CRF quality for UHD videos (>=3840 width).
func WithQualityUHD(crf uint8) Option {
	return func(c *config.Config) {
		c.CRFUHD = crf
	}
}

// WithTargetQuality enables the target-quality search instead of a fixed
// CRF, bounded by the given quantizer range and probe budget.
func WithTargetQuality(target float64, qMin, qMax, probeBudget int) Option {
	return func(c *config.Config) {
		c.TargetQuality = &target
		c.QMin = qMin
		c.QMax = qMax
		c.ProbeBudget = probeBudget
	}
}

// WithDisableAutocrop disables automatic black bar detection.
func WithDisableAutocrop() Option {
	return func(c *config.Config) {
		c.CropMode = "none"
	}
}

// WithResponsive enables responsive encoding (reserves CPU threads).
func WithResponsive() Option {
	return func(c *config.Config) {
		c.ResponsiveEncoding = true
	}
}

// WithFilmGrain enables SVT-AV1 film grain synthesis with the given strength.
// Strength should be 0-50, where higher values add more synthetic grain.
func WithFilmGrain(strength uint8) Option {
	return func(c *config.Config) {
		c.SVTAV1FilmGrain = &strength
	}
}

// WithFilmGrainDenoise sets whether to denoise when using film grain synthesis.
// When true, the source is denoised before adding synthetic grain. Without
// this option no film-grain-denoise parameter is passed to the encoder.
func WithFilmGrainDenoise(enable bool) Option {
	return func(c *config.Config) {
		c.SVTAV1FilmGrainDenoise = &enable
	}
}

// Encode encodes a single video file, reporting progress through rep (a
// nil rep discards every event).
func (e *Encoder) Encode(ctx context.Context, input, outputDir string, rep reporter.Reporter) (*Result, error) {
	cfg := *e.config
	cfg.OutputDir = outputDir

	if err := util.EnsureDirectory(outputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results, err := processing.ProcessVideos(ctx, &cfg, []string{input}, "", rep)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no files were encoded")
	}

	return toResult(results[0], input, outputDir), nil
}

// EncodeBatch encodes multiple video files, reporting progress through rep.
func (e *Encoder) EncodeBatch(ctx context.Context, inputs []string, outputDir string, rep reporter.Reporter) (*BatchResult, error) {
	cfg := *e.config
	cfg.OutputDir = outputDir

	if err := util.EnsureDirectory(outputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results, err := processing.ProcessVideos(ctx, &cfg, inputs, "", rep)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{TotalFiles: len(inputs)}
	var totalInputSize, totalOutputSize uint64
	for i, r := range results {
		input := inputs[i]
		res := toResult(r, input, outputDir)
		batch.Results = append(batch.Results, *res)
		batch.SuccessfulCount++
		totalInputSize += r.InputSize
		totalOutputSize += r.OutputSize
		if r.ValidationPassed {
			batch.ValidationPassedCount++
		}
	}
	batch.TotalSizeReduction = util.CalculateSizeReduction(totalInputSize, totalOutputSize)

	return batch, nil
}

func toResult(r processing.Result, input, outputDir string) *Result {
	return &Result{
		OutputFile:           util.ResolveOutputPath(input, outputDir, ""),
		OriginalSize:         r.InputSize,
		EncodedSize:          r.OutputSize,
		SizeReductionPercent: util.CalculateSizeReduction(r.InputSize, r.OutputSize),
		ValidationPassed:     r.ValidationPassed,
		EncodingSpeed:        r.EncodingSpeed,
	}
}

// FindVideos finds video files in a directory.
func FindVideos(dir string) ([]string, error) {
	return discovery.FindVideoFiles(dir)
}
