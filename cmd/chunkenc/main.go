// Package main provides the CLI entry point for chunkenc.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/chunkenc"
	"github.com/five82/chunkenc/internal/config"
	"github.com/five82/chunkenc/internal/discovery"
	"github.com/five82/chunkenc/internal/logging"
	"github.com/five82/chunkenc/internal/processing"
	"github.com/five82/chunkenc/internal/reporter"
	"github.com/five82/chunkenc/internal/util"
)

const appVersion = "0.3.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "chunkenc",
		Short:   "Chunk-parallel AV1 video encoding",
		Version: appVersion,
	}
	root.AddCommand(newEncodeCmd())
	return root
}

// encodeArgs holds the parsed flags for the encode command.
type encodeArgs struct {
	inputPath       string
	outputDir       string
	logDir          string
	verbose         bool
	crf             string
	preset          uint8
	chunkenPreset   string
	disableAutocrop bool
	responsive      bool
	noLog           bool
	targetQuality   float64
	qMin            int
	qMax            int
	probeBudget     int
}

func newEncodeCmd() *cobra.Command {
	var ea encodeArgs

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode video files to AV1 format",
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeEncode(cmd.Context(), ea)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&ea.inputPath, "input", "i", "", "Input video file or directory containing video files (required)")
	flags.StringVarP(&ea.outputDir, "output", "o", "", "Output directory (or filename if input is a single file) (required)")
	flags.StringVarP(&ea.logDir, "log-dir", "l", "", "Log directory (defaults to ~/.local/state/chunkenc/logs)")
	flags.BoolVarP(&ea.verbose, "verbose", "v", false, "Enable verbose output for troubleshooting")

	flags.StringVar(&ea.crf, "crf", "", fmt.Sprintf("CRF quality (0-63). Single value or SD,HD,UHD triple. Default: %d,%d,%d",
		config.DefaultCRFSD, config.DefaultCRFHD, config.DefaultCRFUHD))
	flags.Uint8Var(&ea.preset, "preset", 0, fmt.Sprintf("SVT-AV1 encoder preset (0-13). Lower=slower/better. Default: %d", config.DefaultSVTAV1Preset))
	flags.StringVar(&ea.chunkenPreset, "quality-preset", "", "Apply grouped quality defaults (grain, clean, quick)")

	flags.Float64Var(&ea.targetQuality, "target-quality", 0, "Enable the target-quality search with this perceptual score target")
	flags.IntVar(&ea.qMin, "q-min", config.DefaultQMin, "Minimum quantizer for the target-quality search")
	flags.IntVar(&ea.qMax, "q-max", config.DefaultQMax, "Maximum quantizer for the target-quality search")
	flags.IntVar(&ea.probeBudget, "probe-budget", config.DefaultProbeBudget, "Maximum probe encodes per chunk for the target-quality search")

	flags.BoolVar(&ea.disableAutocrop, "disable-autocrop", false, "Disable automatic black bar crop detection")
	flags.BoolVar(&ea.responsive, "responsive", false, "Reserve CPU threads for improved system responsiveness")
	flags.BoolVar(&ea.noLog, "no-log", false, "Disable log file creation")

	cobra.CheckErr(cmd.MarkFlagRequired("input"))
	cobra.CheckErr(cmd.MarkFlagRequired("output"))

	return cmd
}

func executeEncode(ctx context.Context, ea encodeArgs) error {
	inputPath, err := filepath.Abs(ea.inputPath)
	if err != nil {
		return fmt.Errorf("invalid input path: %w", err)
	}

	inputInfo, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("input path does not exist: %s", inputPath)
	}

	outputDir, targetFilename, err := resolveOutputPath(ea.outputDir, inputInfo.IsDir())
	if err != nil {
		return err
	}

	if err := util.EnsureDirectory(outputDir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	logDir := ea.logDir
	if logDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		logDir = filepath.Join(homeDir, ".local", "state", "chunkenc", "logs")
	}

	logger, err := logging.Setup(logDir, ea.verbose, ea.noLog)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if logger != nil {
		defer func() { _ = logger.Close() }()
	}

	var filesToProcess []string
	if inputInfo.IsDir() {
		filesToProcess, err = discovery.FindVideoFiles(inputPath)
		if err != nil {
			return fmt.Errorf("failed to discover video files: %w", err)
		}
		if len(filesToProcess) == 0 {
			return fmt.Errorf("no video files found in %s", inputPath)
		}
		if logger != nil {
			logger.Info("Discovered %d video files in %s", len(filesToProcess), inputPath)
			for i, f := range filesToProcess {
				logger.Debug("  %d. %s", i+1, f)
			}
		}
	} else {
		filesToProcess = []string{inputPath}
		if logger != nil {
			logger.Info("Processing single file: %s", inputPath)
		}
	}

	cfg := config.NewConfig(inputPath, outputDir, logDir)

	if ea.chunkenPreset != "" {
		preset, err := config.ParsePreset(ea.chunkenPreset)
		if err != nil {
			return err
		}
		cfg.ApplyPreset(preset)
	}

	if ea.crf != "" {
		sd, hd, uhd, err := drapto.ParseCRF(ea.crf)
		if err != nil {
			return fmt.Errorf("invalid --crf value: %w", err)
		}
		cfg.CRFSD = sd
		cfg.CRFHD = hd
		cfg.CRFUHD = uhd
	}
	if ea.preset != 0 {
		cfg.SVTAV1Preset = ea.preset
	}
	if ea.disableAutocrop {
		cfg.CropMode = "none"
	}
	cfg.ResponsiveEncoding = ea.responsive
	cfg.Verbose = ea.verbose

	if ea.targetQuality > 0 {
		cfg.TargetQuality = &ea.targetQuality
		cfg.QMin = ea.qMin
		cfg.QMax = ea.qMax
		cfg.ProbeBudget = ea.probeBudget
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if logger != nil {
		logger.Info("Output directory: %s", outputDir)
		logger.Info("CRF settings: SD=%d, HD=%d, UHD=%d", cfg.CRFSD, cfg.CRFHD, cfg.CRFUHD)
		logger.Info("SVT-AV1 preset: %d", cfg.SVTAV1Preset)
		logger.Info("Crop mode: %s", cfg.CropMode)
		logger.Info("Responsive encoding: %v", cfg.ResponsiveEncoding)
		if cfg.DraptoPreset != nil {
			logger.Info("Quality preset: %s", *cfg.DraptoPreset)
		}
	}

	rep := reporter.NewTerminalReporter()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	_, err = processing.ProcessVideos(runCtx, cfg, filesToProcess, targetFilename, rep)
	return err
}

// resolveOutputPath determines the output directory and optional target
// filename. If input is a file and output has a video extension, the
// output path is treated as a target filename.
func resolveOutputPath(outputPath string, isInputDir bool) (outputDir, targetFilename string, err error) {
	outputPath, err = filepath.Abs(outputPath)
	if err != nil {
		return "", "", fmt.Errorf("invalid output path: %w", err)
	}

	if isInputDir {
		return outputPath, "", nil
	}

	ext := filepath.Ext(outputPath)
	videoExtensions := map[string]bool{
		".mkv": true, ".mp4": true, ".webm": true,
		".avi": true, ".mov": true, ".m4v": true,
	}

	if videoExtensions[ext] {
		return filepath.Dir(outputPath), filepath.Base(outputPath), nil
	}

	return outputPath, "", nil
}
