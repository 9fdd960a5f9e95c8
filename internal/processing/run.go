package processing

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/five82/chunkenc/internal/assembler"
	"github.com/five82/chunkenc/internal/broker"
	"github.com/five82/chunkenc/internal/chunk"
	"github.com/five82/chunkenc/internal/command"
	"github.com/five82/chunkenc/internal/config"
	"github.com/five82/chunkenc/internal/encode"
	apperrors "github.com/five82/chunkenc/internal/errors"
	"github.com/five82/chunkenc/internal/ffmpeg"
	"github.com/five82/chunkenc/internal/ffprobe"
	"github.com/five82/chunkenc/internal/keyframe"
	"github.com/five82/chunkenc/internal/metric"
	"github.com/five82/chunkenc/internal/reporter"
	"github.com/five82/chunkenc/internal/scd"
	"github.com/five82/chunkenc/internal/svtav1"
	"github.com/five82/chunkenc/internal/tq"
	"github.com/five82/chunkenc/internal/util"
)

// Result is the outcome of encoding one input file.
type Result struct {
	Filename         string
	InputSize        uint64
	OutputSize       uint64
	ValidationPassed bool
	EncodingSpeed    float32
}

// ProcessVideos runs the full chunked pipeline (scene boundaries, chunk
// planning, target-quality search, the encode broker, and final
// assembly) over every input file in turn, reporting progress through
// rep. targetFilename overrides the output basename and only applies
// when a single file is given.
func ProcessVideos(ctx context.Context, cfg *config.Config, inputs []string, targetFilename string, rep reporter.Reporter) ([]Result, error) {
	if len(inputs) == 0 {
		return nil, apperrors.NewNoFilesFoundError(cfg.InputDir)
	}
	if rep == nil {
		rep = reporter.NullReporter{}
	}

	results := make([]Result, 0, len(inputs))
	for _, input := range inputs {
		name := ""
		if len(inputs) == 1 {
			name = targetFilename
		}
		r, err := processOne(ctx, cfg, input, name, rep)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

func processOne(ctx context.Context, cfg *config.Config, inputPath, targetFilename string, rep reporter.Reporter) (Result, error) {
	inputSize, err := util.GetFileSize(inputPath)
	if err != nil {
		return Result{}, apperrors.NewPathError("reading input file size: " + inputPath)
	}

	props, err := ffprobe.GetVideoProperties(inputPath)
	if err != nil {
		return Result{}, apperrors.NewVideoInfoError(err.Error())
	}
	media, err := ffprobe.GetMediaInfo(inputPath)
	if err != nil {
		return Result{}, apperrors.NewVideoInfoError(err.Error())
	}
	totalFrames := int(media.TotalFrames)
	fpsNum, fpsDen, err := ffprobe.GetFrameRate(inputPath)
	if err != nil {
		return Result{}, apperrors.NewVideoInfoError(err.Error())
	}

	workDir := filepath.Join(cfg.GetTempDir(), ".chunkenc", util.GetFileStem(inputPath))
	if err := util.EnsureDirectory(workDir); err != nil {
		return Result{}, apperrors.NewPathError("creating work directory: " + workDir)
	}
	util.CheckDiskSpace(workDir, func(format string, args ...any) {
		log.Printf("[WARN] "+format, args...)
	})

	crop := DetectCrop(inputPath, props, cfg.CropMode == "none")

	sceneFile, err := sceneBoundaries(inputPath, workDir, fpsNum, fpsDen, totalFrames, cfg.Verbose)
	if err != nil {
		return Result{}, err
	}
	scenes, err := chunk.LoadScenes(sceneFile, totalFrames)
	if err != nil {
		return Result{}, err
	}

	outputDir, outputPath := resolveOutput(inputPath, cfg.OutputDir, targetFilename)
	if err := util.EnsureDirectory(outputDir); err != nil {
		return Result{}, apperrors.NewPathError("creating output directory: " + outputDir)
	}
	encodedDir := filepath.Join(workDir, "encode")
	if err := util.EnsureDirectory(encodedDir); err != nil {
		return Result{}, apperrors.NewPathError("creating encoded directory: " + encodedDir)
	}

	planCfg := chunk.PlanConfig{
		Strategy:       chunk.StrategySelect,
		Order:          orderPolicy(cfg.ChunkOrder),
		SourcePath:     inputPath,
		WorkDir:        workDir,
		DecoderProgram: "ffmpeg",
		MaxSceneFrames: maxSceneFrames(props.Width, props.Height, fpsNum, fpsDen, cfg.ChunkDuration),
		Encode: chunk.EncodeSpec{
			Encoder:             "svtav1",
			Passes:              1,
			FrameRate:           float64(fpsNum) / float64(fpsDen),
			IgnoreFrameMismatch: false,
		},
	}
	plan, err := chunk.Plan(scenes, planCfg)
	if err != nil {
		return Result{}, err
	}

	ledger := chunk.NewLedger(filepath.Join(workDir, "done.json"))
	ledger.Init(totalFrames)
	_ = ledger.LoadFromDisk()

	pending := make([]chunk.Chunk, 0, len(plan.Chunks))
	for _, c := range plan.Chunks {
		if !ledger.Contains(c.Name()) {
			pending = append(pending, c)
		}
	}

	crf := int(cfg.CRFForWidth(props.Width))
	var tqConfig *tq.Config
	if cfg.TargetQuality != nil {
		tqConfig = &tq.Config{
			Target:                 *cfg.TargetQuality,
			QMin:                   cfg.QMin,
			QMax:                   cfg.QMax,
			ProbeBudget:            cfg.ProbeBudget,
			ProbingRate:            cfg.ProbingRate,
			ProbingRateDenominator: cfg.ProbingRateDenominator,
			MetricMode:             cfg.MetricMode,
		}
	} else {
		withQ := make([]chunk.Chunk, len(pending))
		for i, c := range pending {
			withQ[i] = c.WithQuantizer(crf)
		}
		pending = withQ
	}

	rep.Begin(int64(totalFrames), ledger.FramesEncoded())

	audioDone := make(chan error, 1)
	audioPath := filepath.Join(workDir, "audio.mka")
	go func() {
		audioDone <- encodeAudio(ctx, inputPath, audioPath, ledger)
	}()

	encoder := svtav1.Adapter{Params: svtav1.Params{
		Preset:                cfg.SVTAV1Preset,
		Tune:                  cfg.SVTAV1Tune,
		ACBias:                cfg.SVTAV1ACBias,
		EnableVarianceBoost:   cfg.SVTAV1EnableVarianceBoost,
		VarianceBoostStrength: cfg.SVTAV1VarianceBoostStrength,
		VarianceOctile:        cfg.SVTAV1VarianceOctile,
		FilmGrain:             cfg.SVTAV1FilmGrain,
		FilmGrainDenoise:      cfg.SVTAV1FilmGrainDenoise,
		ThreadsPerWorker:      threadsPerWorker(cfg.ThreadsPerWorker, cfg.ResponsiveEncoding),
		CropFilter:            crop.CropFilter,
	}}
	metricAdapter := metric.Ssimulacra2Adapter{
		ProbingRate:            cfg.ProbingRate,
		ProbingRateDenominator: cfg.ProbingRateDenominator,
	}

	permits := 0
	if cfg.MemFraction > 0 {
		encodeWidth, encodeHeight := GetOutputDimensions(props.Width, props.Height, crop.CropFilter)
		avgFrames := averageChunkFrames(plan.Chunks, totalFrames)
		permits = encode.CalculatePermits(cfg.Workers, encodeWidth, encodeHeight, avgFrames, cfg.MemFraction)
	}

	probeDir, err := util.CreateTempDir(workDir, "probes")
	if err != nil {
		return Result{}, apperrors.NewPathError("creating probe directory: " + err.Error())
	}
	defer func() { _ = probeDir.Cleanup() }()

	b := broker.New(broker.Config{
		Workers:       cfg.Workers,
		MaxTries:      cfg.MaxTries,
		PinCPUs:       cfg.PinCPUs,
		RampBatchSize: cfg.RampBatchSize,
		RampInterval:  time.Duration(cfg.RampIntervalSecs * float64(time.Second)),
		TQ:            tqConfig,
		ProbeDir:      probeDir.Path(),
		Permits:       permits,
	}, ledger, tq.NewTracker(), chunk.NewAdjacency(), rep, encoder, metricAdapter)

	start := time.Now()
	runErr := b.Run(ctx, pending)
	if runErr != nil {
		return Result{}, runErr
	}

	if err := <-audioDone; err != nil {
		return Result{}, err
	}

	concatStrategy := concatStrategyFor(cfg.ConcatStrategy)
	if err := assembler.Concatenate(ctx, concatStrategy, encodedDir, audioPath, outputPath); err != nil {
		return Result{}, err
	}
	rep.Finish()

	outputSize, err := util.GetFileSize(outputPath)
	if err != nil {
		return Result{}, apperrors.NewPathError("reading output file size: " + outputPath)
	}

	elapsed := time.Since(start).Seconds()
	var speed float32
	if elapsed > 0 {
		speed = float32(float64(totalFrames) / elapsed)
	}

	return Result{
		Filename:         filepath.Base(inputPath),
		InputSize:        inputSize,
		OutputSize:       outputSize,
		ValidationPassed: true,
		EncodingSpeed:    speed,
	}, nil
}

// sceneBoundaries prefers external scene-change detection when the
// drapto-scd binary is available, falling back to resolution-appropriate
// fixed-interval chunking otherwise.
func sceneBoundaries(videoPath, workDir string, fpsNum, fpsDen uint32, totalFrames int, showProgress bool) (string, error) {
	if scd.IsSCDBinaryAvailable() {
		path, err := scd.DetectScenesIfNeeded(videoPath, workDir, fpsNum, fpsDen, totalFrames, showProgress)
		if err == nil {
			return path, nil
		}
	}
	props, err := ffprobe.GetVideoProperties(videoPath)
	if err != nil {
		return "", apperrors.NewVideoInfoError(err.Error())
	}
	return keyframe.ExtractKeyframesIfNeeded(videoPath, workDir, fpsNum, fpsDen, totalFrames, props.Width, props.Height)
}

func maxSceneFrames(width, height, fpsNum, fpsDen uint32, configuredSecs float64) int {
	secs := configuredSecs
	if secs <= 0 {
		secs = keyframe.ChunkDurationForResolution(width, height)
	}
	if fpsDen == 0 {
		return 0
	}
	fps := float64(fpsNum) / float64(fpsDen)
	return int(secs * fps)
}

// threadsPerWorker reserves one logical processor per worker when
// responsive encoding is enabled, trading a little throughput for a
// system that stays usable for other work during a long encode.
func threadsPerWorker(configured int, responsive bool) int {
	if !responsive || configured <= 1 {
		return configured
	}
	return configured - 1
}

func orderPolicy(s string) chunk.OrderPolicy {
	switch s {
	case "longest-first":
		return chunk.OrderLongestFirst
	case "shortest-first":
		return chunk.OrderShortestFirst
	case "random":
		return chunk.OrderRandom
	default:
		return chunk.OrderSequential
	}
}

func concatStrategyFor(s string) assembler.Strategy {
	switch s {
	case "raw":
		return assembler.StrategyRawBitstream
	case "mkvmerge":
		return assembler.StrategyMkvmerge
	default:
		return assembler.StrategyFFmpegConcat
	}
}

// averageChunkFrames returns the mean frame count across the plan's
// chunks, falling back to the whole file's length when the plan
// produced no chunks.
func averageChunkFrames(chunks []chunk.Chunk, totalFrames int) int {
	if len(chunks) == 0 {
		return totalFrames
	}
	sum := 0
	for _, c := range chunks {
		sum += c.FrameCount()
	}
	return sum / len(chunks)
}

func resolveOutput(inputPath, outputDir, targetFilename string) (dir, path string) {
	if targetFilename != "" {
		return outputDir, filepath.Join(outputDir, targetFilename)
	}
	return outputDir, util.ResolveOutputPath(inputPath, outputDir, "")
}

// encodeAudio encodes the audio of inputPath to outputPath as Opus,
// running independently of the video chunk pool. No -map is given, so
// ffmpeg's default selection keeps a single audio stream, encoded at the
// bitrate for the first probed stream's channel count
// (§2's "audio encoding runs concurrently with the encode pool").
func encodeAudio(ctx context.Context, inputPath, outputPath string, ledger *chunk.Ledger) error {
	streams := AnalyzeAndLogAudioDetailed(inputPath, nil)
	if len(streams) == 0 {
		return ledger.AudioMarkDone()
	}

	bitrate := ffmpeg.CalculateAudioBitrate(streams[0].Channels)
	audioEncode := command.New("ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-i", inputPath,
		"-vn",
		"-c:a", "libopus",
		"-b:a", fmt.Sprintf("%dk", bitrate),
		outputPath,
	).WithStderr(command.StdioCapture)

	outcome := command.Run(ctx, audioEncode)
	if outcome.Crashed() {
		return apperrors.NewFFmpegError(fmt.Sprintf("audio encode failed: %s", outcome.Err))
	}
	return ledger.AudioMarkDone()
}
