package processing

import (
	"log"
	"path/filepath"

	"github.com/five82/chunkenc/internal/ffmpeg"
	"github.com/five82/chunkenc/internal/ffprobe"
)

// Logger defines the interface for audio analysis logging.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

// DefaultLogger implements Logger using the standard log package.
type DefaultLogger struct{}

func (d DefaultLogger) Info(format string, args ...any) {
	log.Printf("[INFO] "+format, args...)
}

func (d DefaultLogger) Warn(format string, args ...any) {
	log.Printf("[WARN] "+format, args...)
}

// AnalyzeAndLogAudioDetailed probes every audio stream in inputPath,
// logs a per-stream summary including the Opus bitrate for each stream's
// channel count, and returns the stream list for the caller to drive
// the actual encode. Returns nil on probe failure, since audio analysis
// is not fatal to the video encode.
func AnalyzeAndLogAudioDetailed(inputPath string, logger Logger) []ffprobe.AudioStreamInfo {
	if logger == nil {
		logger = DefaultLogger{}
	}

	filename := filepath.Base(inputPath)

	audioStreams, err := ffprobe.GetAudioStreamInfo(inputPath)
	if err != nil {
		logger.Warn("Error getting audio stream info for %s: %v. Using fallback.", filename, err)
		logger.Info("Audio streams: Error detecting audio details")
		return nil
	}

	if len(audioStreams) == 0 {
		logger.Info("Audio streams: None detected")
		return audioStreams
	}

	logger.Info("Detected %d audio streams", len(audioStreams))
	for _, stream := range audioStreams {
		logger.Info("Stream %d: codec=%s, profile=%s", stream.Index, stream.CodecName, stream.Profile)
	}

	if len(audioStreams) == 1 {
		stream := audioStreams[0]
		bitrate := ffmpeg.CalculateAudioBitrate(stream.Channels)
		logger.Info("Audio: %d channels @ %dkbps Opus", stream.Channels, bitrate)
	} else {
		logger.Info("Audio: %d streams detected", len(audioStreams))
		for _, stream := range audioStreams {
			bitrate := ffmpeg.CalculateAudioBitrate(stream.Channels)
			logger.Info("  Stream %d: %d channels [%dkbps Opus]", stream.Index, stream.Channels, bitrate)
		}
	}

	return audioStreams
}
