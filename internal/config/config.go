// Package config provides configuration types and defaults for drapto.
package config

import "fmt"

// Default constants
const (
	// DefaultCRFSD is the default CRF quality setting for SD content (<1920 width).
	DefaultCRFSD uint8 = 25

	// DefaultCRFHD is the default CRF quality setting for HD content (>=1920, <3840 width).
	DefaultCRFHD uint8 = 27

	// DefaultCRFUHD is the default CRF quality setting for UHD content (>=3840 width).
	DefaultCRFUHD uint8 = 29

	// HDWidthThreshold is the minimum width for HD resolution.
	HDWidthThreshold uint32 = 1920

	// UHDWidthThreshold is the minimum width for UHD resolution.
	UHDWidthThreshold uint32 = 3840

	// DefaultSVTAV1Preset is the SVT-AV1 preset (0-13, lower is slower/better).
	DefaultSVTAV1Preset uint8 = 6

	// DefaultSVTAV1Tune is the SVT-AV1 tune parameter.
	DefaultSVTAV1Tune uint8 = 0

	// DefaultSVTAV1ACBias is the SVT-AV1 ac-bias parameter.
	DefaultSVTAV1ACBias float32 = 0.1

	// DefaultSVTAV1EnableVarianceBoost is whether variance boost is enabled.
	DefaultSVTAV1EnableVarianceBoost bool = false

	// DefaultSVTAV1VarianceBoostStrength is the variance boost strength.
	DefaultSVTAV1VarianceBoostStrength uint8 = 0

	// DefaultSVTAV1VarianceOctile is the variance octile parameter.
	DefaultSVTAV1VarianceOctile uint8 = 0

	// DefaultCropMode is the crop mode for the main encode.
	DefaultCropMode string = "auto"

	// DefaultEncodeCooldownSecs is the cooldown period between encodes.
	DefaultEncodeCooldownSecs uint64 = 3

	// ProgressLogIntervalPercent is the progress logging interval.
	ProgressLogIntervalPercent uint8 = 5

	// DefaultChunkDuration is the default chunk duration in seconds for non-4K content.
	DefaultChunkDuration float64 = 10.0

	// DefaultChunkDuration4K is the default chunk duration in seconds for 4K content.
	DefaultChunkDuration4K float64 = 20.0

	// DefaultThreadsPerWorker is the default number of threads per encoder worker.
	// 2 threads provides good balance: 16 workers Ã— 2 threads = 32 total on a typical CPU.
	// Can be increased (4-8) for fewer, more powerful workers.
	DefaultThreadsPerWorker int = 2

	// DefaultQMin and DefaultQMax bound the target-quality search.
	DefaultQMin = 8
	DefaultQMax = 48

	// DefaultProbeBudget is the maximum number of probe encodes per chunk.
	DefaultProbeBudget = 10

	// DefaultProbingRate samples every DefaultProbingRateDenominator-th
	// frame during a probe encode.
	DefaultProbingRate            = 1
	DefaultProbingRateDenominator = 4

	// DefaultMetricMode aggregates per-frame probe scores by mean.
	DefaultMetricMode = "mean"

	// DefaultMaxTries is the per-chunk crash-retry ceiling.
	DefaultMaxTries = 3

	// DefaultRampBatchSize is how many worker slots start per ramp-up tick.
	DefaultRampBatchSize = 4

	// DefaultRampIntervalSecs is the pause between ramp-up ticks.
	DefaultRampIntervalSecs = 2.0

	// DefaultMemFraction is the fraction of system memory the broker may
	// commit to in-flight chunk buffers.
	DefaultMemFraction = 0.5

	// DefaultChunkOrder is the chunk dispatch order.
	DefaultChunkOrder = "sequential"

	// DefaultConcatStrategy is the output assembly strategy.
	DefaultConcatStrategy = "ffmpeg"
)

// AutoParallelConfig returns optimal workers and buffer settings.
// Workers default high; at encode time encode.CalculatePermits caps the
// number of in-flight chunks by frame size and available memory.
// Buffer: fixed prefetch amount to keep workers fed.
func AutoParallelConfig() (workers, buffer int) {
	// Default to maximum possible; the worker count itself is not reduced,
	// the in-flight chunk permits are capped at encode time
	workers = 24 // Will be capped down for higher resolutions
	buffer = 4   // Prefetch buffer to keep workers fed
	return workers, buffer
}

// Config holds all configuration for video processing.
type Config struct {
	// Input/output paths
	InputDir  string
	OutputDir string
	LogDir    string
	TempDir   string // Optional, defaults to OutputDir

	// SVT-AV1 parameters
	SVTAV1Preset                uint8
	SVTAV1Tune                  uint8
	SVTAV1ACBias                float32
	SVTAV1EnableVarianceBoost   bool
	SVTAV1VarianceBoostStrength uint8
	SVTAV1VarianceOctile        uint8

	// Optional filters and film grain
	VideoDenoiseFilter     string // Optional denoise filter (e.g., "hqdn3d=1.5:1.5:3:3")
	SVTAV1FilmGrain        *uint8 // Optional film grain synthesis strength
	SVTAV1FilmGrainDenoise *bool  // Optional film grain denoise toggle

	// Quality settings (CRF value 0-63) by resolution
	CRFSD  uint8 // CRF for SD content (<1920 width)
	CRFHD  uint8 // CRF for HD content (>=1920, <3840 width)
	CRFUHD uint8 // CRF for UHD content (>=3840 width)

	// Processing options
	CropMode           string // "auto" or "none"
	ResponsiveEncoding bool   // Reserve CPU threads for responsiveness
	EncodeCooldownSecs uint64 // Cooldown between batch encodes

	// Parallel encoding options
	Workers           int // Number of parallel encoder workers
	ChunkBuffer       int // Extra chunks to buffer in memory
	ThreadsPerWorker  int // Threads per encoder worker (SVT-AV1 --lp flag)

	// Chunk duration (NewConfig sets DefaultChunkDuration for every
	// resolution; DefaultChunkDuration4K is not applied automatically)
	ChunkDuration float64 // Chunk duration in seconds

	// Debug options
	Verbose bool // Enable verbose output

	// DraptoPreset records which grouped preset (if any) was last applied
	// via ApplyPreset; explicit per-field overrides after that call still
	// take precedence.
	DraptoPreset *Preset

	// Target-quality search (nil TargetQuality disables the search; every
	// chunk then encodes at CRFForWidth's fixed quantizer instead).
	TargetQuality          *float64
	QMin                   int
	QMax                   int
	ProbeBudget            int
	ProbingRate            int
	ProbingRateDenominator int
	MetricMode             string

	// Encode broker
	MaxTries      int
	PinCPUs       bool
	RampBatchSize int
	RampIntervalSecs float64
	MemFraction   float64 // fraction of system memory the broker may commit to in-flight chunks

	// Chunk planner
	ChunkOrder string // "sequential", "longest-first", "shortest-first", "random"

	// Output assembly
	ConcatStrategy string // "raw", "ffmpeg", "mkvmerge"
}

// NewConfig creates a new Config with default values.
func NewConfig(inputDir, outputDir, logDir string) *Config {
	workers, buffer := AutoParallelConfig()

	return &Config{
		InputDir:                    inputDir,
		OutputDir:                   outputDir,
		LogDir:                      logDir,
		SVTAV1Preset:                DefaultSVTAV1Preset,
		SVTAV1Tune:                  DefaultSVTAV1Tune,
		SVTAV1ACBias:                DefaultSVTAV1ACBias,
		SVTAV1EnableVarianceBoost:   DefaultSVTAV1EnableVarianceBoost,
		SVTAV1VarianceBoostStrength: DefaultSVTAV1VarianceBoostStrength,
		SVTAV1VarianceOctile:        DefaultSVTAV1VarianceOctile,
		CRFSD:                       DefaultCRFSD,
		CRFHD:                       DefaultCRFHD,
		CRFUHD:                      DefaultCRFUHD,
		CropMode:                    DefaultCropMode,
		ResponsiveEncoding:          false,
		EncodeCooldownSecs:          DefaultEncodeCooldownSecs,
		Workers:          workers,
		ChunkBuffer:      buffer,
		ThreadsPerWorker: DefaultThreadsPerWorker,
		ChunkDuration:    DefaultChunkDuration,

		QMin:                   DefaultQMin,
		QMax:                   DefaultQMax,
		ProbeBudget:            DefaultProbeBudget,
		ProbingRate:            DefaultProbingRate,
		ProbingRateDenominator: DefaultProbingRateDenominator,
		MetricMode:             DefaultMetricMode,

		MaxTries:         DefaultMaxTries,
		RampBatchSize:    DefaultRampBatchSize,
		RampIntervalSecs: DefaultRampIntervalSecs,
		MemFraction:      DefaultMemFraction,

		ChunkOrder:     DefaultChunkOrder,
		ConcatStrategy: DefaultConcatStrategy,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.SVTAV1Preset > 13 {
		return fmt.Errorf("%w: svt_av1_preset must be 0-13, got %d", ErrInvalidSVTPreset, c.SVTAV1Preset)
	}

	if c.CRFSD > 63 {
		return fmt.Errorf("%w: crf-sd must be 0-63, got %d", ErrInvalidCRF, c.CRFSD)
	}
	if c.CRFHD > 63 {
		return fmt.Errorf("%w: crf-hd must be 0-63, got %d", ErrInvalidCRF, c.CRFHD)
	}
	if c.CRFUHD > 63 {
		return fmt.Errorf("%w: crf-uhd must be 0-63, got %d", ErrInvalidCRF, c.CRFUHD)
	}

	if c.SVTAV1FilmGrain == nil && c.SVTAV1FilmGrainDenoise != nil {
		return fmt.Errorf("%w: svt_av1_film_grain_denoise set without svt_av1_film_grain", ErrInvalidFilmGrain)
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	if c.ChunkBuffer < 0 {
		return fmt.Errorf("chunk_buffer must be non-negative, got %d", c.ChunkBuffer)
	}

	if c.ChunkDuration < 1 || c.ChunkDuration > 120 {
		return fmt.Errorf("chunk_duration must be between 1 and 120 seconds, got %g", c.ChunkDuration)
	}

	if c.TargetQuality != nil {
		if c.QMin >= c.QMax {
			return fmt.Errorf("q_min (%d) must be less than q_max (%d)", c.QMin, c.QMax)
		}
		if c.ProbeBudget < 1 {
			return fmt.Errorf("probe_budget must be at least 1, got %d", c.ProbeBudget)
		}
	}

	if c.MaxTries < 1 {
		return fmt.Errorf("max_tries must be at least 1, got %d", c.MaxTries)
	}

	if c.MemFraction <= 0 || c.MemFraction > 1 {
		return fmt.Errorf("mem_fraction must be in (0, 1], got %g", c.MemFraction)
	}

	switch c.ChunkOrder {
	case "sequential", "longest-first", "shortest-first", "random":
	default:
		return fmt.Errorf("chunk_order must be one of sequential, longest-first, shortest-first, random, got %q", c.ChunkOrder)
	}

	switch c.ConcatStrategy {
	case "raw", "ffmpeg", "mkvmerge":
	default:
		return fmt.Errorf("concat_strategy must be one of raw, ffmpeg, mkvmerge, got %q", c.ConcatStrategy)
	}

	return nil
}

// GetTempDir returns the temp directory, falling back to OutputDir if not set.
func (c *Config) GetTempDir() string {
	if c.TempDir != "" {
		return c.TempDir
	}
	return c.OutputDir
}

// CRFForWidth returns the appropriate CRF value based on video width.
func (c *Config) CRFForWidth(width uint32) uint8 {
	if width >= UHDWidthThreshold {
		return c.CRFUHD
	}
	if width >= HDWidthThreshold {
		return c.CRFHD
	}
	return c.CRFSD
}
