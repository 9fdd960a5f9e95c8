// Package chunk defines the unit of work the planner produces and the
// broker consumes: an immutable frame range paired with the commands
// needed to decode and encode it.
package chunk

import (
	"fmt"
	"path/filepath"

	"github.com/five82/chunkenc/internal/command"
)

// Scene is a half-open frame range produced by scene detection or by the
// planner's forced-keyframe and extra-split passes. The scene list for a
// video is sorted, non-overlapping, and contiguous from 0 to the video's
// frame count.
type Scene struct {
	Start int
	End   int
}

// Frames reports the number of frames covered by the scene.
func (s Scene) Frames() int {
	return s.End - s.Start
}

// Chunk is one unit of encode work. It is immutable after the planner
// creates it, with one exception: Quantizer is set exactly once, by the
// target-quality search, before the chunk reaches the broker's final
// encode step.
type Chunk struct {
	index int
	name  string

	start int
	end   int

	source command.Descriptor

	encoder     string
	encoderArgs []string
	passes      int
	frameRate   float64

	ignoreFrameMismatch bool

	workDir string

	quantizer    int
	hasQuantizer bool
}

// New constructs a Chunk. width is the zero-pad width used for the
// chunk's name; the planner picks it wide enough that names sort
// lexicographically in the same order as index, i.e. at least
// len(strconv.Itoa(totalChunks-1)), with a floor of 4 digits to match
// the layout existing tooling already expects on disk.
func New(index, start, end int, source command.Descriptor, encoder string, encoderArgs []string, passes int, frameRate float64, ignoreFrameMismatch bool, workDir string, width int) Chunk {
	if end <= start {
		panic(fmt.Sprintf("chunk: invalid frame range [%d, %d)", start, end))
	}
	if width < 4 {
		width = 4
	}
	return Chunk{
		index:               index,
		name:                fmt.Sprintf("%0*d", width, index),
		start:               start,
		end:                 end,
		source:              source,
		encoder:             encoder,
		encoderArgs:         encoderArgs,
		passes:              passes,
		frameRate:           frameRate,
		ignoreFrameMismatch: ignoreFrameMismatch,
		workDir:             workDir,
	}
}

// Index returns the dense, zero-based index assigned by the planner.
func (c Chunk) Index() int { return c.index }

// Name returns the chunk's logical name: a zero-padded decimal of its
// index, wide enough to sort lexicographically in index order.
func (c Chunk) Name() string { return c.name }

// FrameCount returns the number of frames in [Start, End).
func (c Chunk) FrameCount() int { return c.end - c.start }

// Start returns the first frame index covered by the chunk, inclusive.
func (c Chunk) Start() int { return c.start }

// End returns the frame index one past the last frame covered, exclusive.
func (c Chunk) End() int { return c.end }

// FrameRate returns the chunk's source frame rate, needed to convert a
// probing_rate sampling ratio into an actual frame selection.
func (c Chunk) FrameRate() float64 { return c.frameRate }

// Encoder returns the external encoder identifier (e.g. "SvtAv1EncApp").
func (c Chunk) Encoder() string { return c.encoder }

// EncoderArgs returns the encoder argument vector the chunk was planned
// with. Neither the broker nor the SVT-AV1 adapter reads it; the adapter
// builds its own arguments, quantizer included, from its Params.
func (c Chunk) EncoderArgs() []string { return c.encoderArgs }

// Passes returns the configured pass count, 1 or 2.
func (c Chunk) Passes() int { return c.passes }

// IgnoreFrameMismatch reports whether an output frame count differing
// from FrameCount should be tolerated rather than treated as a crash.
func (c Chunk) IgnoreFrameMismatch() bool { return c.ignoreFrameMismatch }

// SourceCommand returns the descriptor that, when run, writes the
// chunk's raw frames to standard output.
func (c Chunk) SourceCommand() command.Descriptor { return c.source }

// SourceCommandString returns the shell-equivalent rendering of
// SourceCommand, for diagnostics and logs.
func (c Chunk) SourceCommandString() string { return c.source.String() }

// OutputPath returns the path the final encode for this chunk is
// written to.
func (c Chunk) OutputPath(ext string) string {
	return filepath.Join(c.workDir, "encode", c.name+"."+ext)
}

// WorkDir returns the directory shared by every chunk in the run.
func (c Chunk) WorkDir() string { return c.workDir }

// Quantizer returns the quantizer chosen for this chunk and whether one
// has been set yet.
func (c Chunk) Quantizer() (int, bool) { return c.quantizer, c.hasQuantizer }

// WithQuantizer returns a copy of c with its target-quality result
// recorded. It is an error to call this more than once per chunk; the
// broker enforces that by only ever calling it on the planner's own
// queue entry, immediately before the final encode.
func (c Chunk) WithQuantizer(q int) Chunk {
	if c.hasQuantizer {
		panic(fmt.Sprintf("chunk %s: quantizer already set to %d", c.name, c.quantizer))
	}
	c.quantizer = q
	c.hasQuantizer = true
	return c
}
