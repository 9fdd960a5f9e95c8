package chunk

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/five82/chunkenc/internal/command"
	apperrors "github.com/five82/chunkenc/internal/errors"
)

// frameServerProgram is the external frame-server script runner used by
// the script-driven strategy.
const frameServerProgram = "vspipe"

// Strategy selects how the planner turns a scene list into source-pipe
// commands.
type Strategy int

const (
	// StrategyScriptDriven addresses the source through a frame-server
	// script by inclusive frame indices.
	StrategyScriptDriven Strategy = iota
	// StrategySelect decodes the whole container and filters to each
	// scene's frame range. Correct but slow; maximum compatibility.
	StrategySelect
	// StrategySegment pre-cuts the source into segment files at scene
	// boundaries using the external muxer.
	StrategySegment
	// StrategyHybrid pre-segments at source key-frames that coincide
	// with scene boundaries, then filters within each segment.
	StrategyHybrid
)

func (s Strategy) String() string {
	switch s {
	case StrategyScriptDriven:
		return "script-driven"
	case StrategySelect:
		return "select"
	case StrategySegment:
		return "segment"
	case StrategyHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// EncodeSpec carries the per-chunk encode parameters the planner stamps
// onto every Chunk it emits. It does not vary across chunks in a run.
type EncodeSpec struct {
	Encoder             string
	EncoderArgs         []string
	Passes              int
	FrameRate           float64
	IgnoreFrameMismatch bool
}

// PlanConfig configures one planning run.
type PlanConfig struct {
	Strategy Strategy
	Order    OrderPolicy

	SourcePath string
	WorkDir    string

	// FrameServerScript is the frame-server script path used by
	// StrategyScriptDriven.
	FrameServerScript string

	// MuxerProgram is the external muxer invoked for StrategySegment and
	// StrategyHybrid pre-cuts (e.g. "ffmpeg").
	MuxerProgram string
	// DecoderProgram is the external decoder invoked for
	// StrategySelect's whole-file decode and for StrategyHybrid's
	// per-segment decode (e.g. "ffmpeg").
	DecoderProgram string

	// ForcedKeyframes are frame indices that must start a new scene.
	ForcedKeyframes []int
	// SourceKeyframes are the source's actual decode key-frame positions,
	// used only by StrategyHybrid to choose segment cut points: a cut is
	// only made where a key-frame coincides with a scene boundary.
	SourceKeyframes []int
	// MaxSceneFrames caps scene length via even subdivision; 0 disables
	// the extra-split pass.
	MaxSceneFrames int

	Encode EncodeSpec
}

// Result is what Plan produces: the ordered chunk queue plus any
// commands that must run before the queue can be consumed (the
// segment/hybrid strategies' pre-cut step).
type Result struct {
	Chunks  []Chunk
	Precuts []command.Descriptor
}

// Plan produces an ordered chunk queue from a scene list per cfg.
// Forced key-frames and extra-split capping are applied to scenes before
// strategy emission; the configured ordering policy is applied after.
func Plan(scenes []Scene, cfg PlanConfig) (Result, error) {
	if len(scenes) == 0 {
		return Result{}, apperrors.NewPlannerPreconditionError(cfg.Strategy.String(), "scene list is empty")
	}

	scenes = injectForcedKeyframes(scenes, cfg.ForcedKeyframes)
	scenes = applyExtraSplits(scenes, cfg.MaxSceneFrames)

	var res Result
	var err error
	switch cfg.Strategy {
	case StrategyScriptDriven:
		res.Chunks, err = planScriptDriven(scenes, cfg)
	case StrategySelect:
		res.Chunks, err = planSelect(scenes, cfg)
	case StrategySegment:
		res.Chunks, res.Precuts, err = planSegment(scenes, cfg)
	case StrategyHybrid:
		res.Chunks, res.Precuts, err = planHybrid(scenes, cfg)
	default:
		return Result{}, apperrors.NewPlannerPreconditionError(cfg.Strategy.String(), "unrecognised strategy")
	}
	if err != nil {
		return Result{}, err
	}
	if len(res.Chunks) == 0 {
		return Result{}, apperrors.NewPlannerPreconditionError(cfg.Strategy.String(), "produced zero chunks")
	}

	res.Chunks = Reorder(res.Chunks, cfg.Order)
	return res, nil
}

// injectForcedKeyframes splits any scene that strictly contains a forced
// key-frame at that frame.
func injectForcedKeyframes(scenes []Scene, forced []int) []Scene {
	if len(forced) == 0 {
		return scenes
	}
	sortedForced := append([]int(nil), forced...)
	sort.Ints(sortedForced)

	out := make([]Scene, 0, len(scenes))
	for _, s := range scenes {
		var cuts []int
		for _, k := range sortedForced {
			if k > s.Start && k < s.End {
				cuts = append(cuts, k)
			}
		}
		if len(cuts) == 0 {
			out = append(out, s)
			continue
		}
		prev := s.Start
		for _, k := range cuts {
			out = append(out, Scene{Start: prev, End: k})
			prev = k
		}
		out = append(out, Scene{Start: prev, End: s.End})
	}
	return out
}

// applyExtraSplits subdivides any scene longer than maxFrames into equal
// sized sub-scenes. A maxFrames of 0 disables the pass.
func applyExtraSplits(scenes []Scene, maxFrames int) []Scene {
	if maxFrames <= 0 {
		return scenes
	}
	out := make([]Scene, 0, len(scenes))
	for _, s := range scenes {
		n := s.Frames()
		if n <= maxFrames {
			out = append(out, s)
			continue
		}
		parts := (n + maxFrames - 1) / maxFrames
		base := n / parts
		remainder := n % parts
		start := s.Start
		for i := 0; i < parts; i++ {
			size := base
			if i < remainder {
				size++
			}
			out = append(out, Scene{Start: start, End: start + size})
			start += size
		}
	}
	return out
}

func nameWidth(count int) int {
	return len(strconv.Itoa(count - 1))
}

func newChunk(i int, s Scene, src command.Descriptor, cfg PlanConfig, width int) Chunk {
	return New(i, s.Start, s.End, src, cfg.Encode.Encoder, cfg.Encode.EncoderArgs,
		cfg.Encode.Passes, cfg.Encode.FrameRate, cfg.Encode.IgnoreFrameMismatch, cfg.WorkDir, width)
}

func planScriptDriven(scenes []Scene, cfg PlanConfig) ([]Chunk, error) {
	if cfg.FrameServerScript == "" {
		return nil, apperrors.NewPlannerPreconditionError(cfg.Strategy.String(), "no frame-server script configured")
	}
	width := nameWidth(len(scenes))
	chunks := make([]Chunk, len(scenes))
	for i, s := range scenes {
		src := command.New(frameServerProgram, cfg.FrameServerScript,
			"-s", strconv.Itoa(s.Start), "-e", strconv.Itoa(s.End-1),
			"-c", "y4m", "-").
			WithStdout(command.StdioPipe)
		chunks[i] = newChunk(i, s, src, cfg, width)
	}
	return chunks, nil
}

func planSelect(scenes []Scene, cfg PlanConfig) ([]Chunk, error) {
	if cfg.DecoderProgram == "" {
		return nil, apperrors.NewPlannerPreconditionError(cfg.Strategy.String(), "no decoder program configured")
	}
	width := nameWidth(len(scenes))
	chunks := make([]Chunk, len(scenes))
	for i, s := range scenes {
		filter := fmt.Sprintf("select='between(n\\,%d\\,%d)',setpts=PTS-STARTPTS", s.Start, s.End-1)
		src := command.New(cfg.DecoderProgram,
			"-i", cfg.SourcePath,
			"-vf", filter,
			"-f", "yuv4mpegpipe", "-").
			WithStdout(command.StdioPipe)
		chunks[i] = newChunk(i, s, src, cfg, width)
	}
	return chunks, nil
}

func planSegment(scenes []Scene, cfg PlanConfig) ([]Chunk, []command.Descriptor, error) {
	if cfg.MuxerProgram == "" {
		return nil, nil, apperrors.NewPlannerPreconditionError(cfg.Strategy.String(), "no muxer program configured")
	}
	width := nameWidth(len(scenes))
	chunks := make([]Chunk, len(scenes))
	precuts := make([]command.Descriptor, len(scenes))
	for i, s := range scenes {
		segPath := segmentPath(cfg.WorkDir, i, width)
		precuts[i] = command.New(cfg.MuxerProgram,
			"-i", cfg.SourcePath,
			"-vf", fmt.Sprintf("select='between(n\\,%d\\,%d)'", s.Start, s.End-1),
			"-c:v", "copy", "-an", segPath)
		src := command.New(cfg.MuxerProgram, "-i", segPath, "-f", "yuv4mpegpipe", "-").
			WithStdout(command.StdioPipe)
		chunks[i] = newChunk(i, s, src, cfg, width)
	}
	return chunks, precuts, nil
}

// hybridSegmentBounds returns the sorted, de-duplicated set of frame
// positions at which the source may be cut: always the start (0) and the
// end of the last scene, plus any source key-frame that coincides with a
// scene's start. Consecutive bounds delimit one segment each; a segment
// may contain more than one scene when no intervening key-frame lines up
// with a scene boundary.
func hybridSegmentBounds(scenes []Scene, keyframes []int) []int {
	total := scenes[len(scenes)-1].End
	kfSet := make(map[int]bool, len(keyframes))
	for _, k := range keyframes {
		kfSet[k] = true
	}

	boundSet := map[int]bool{0: true, total: true}
	for _, s := range scenes {
		if kfSet[s.Start] {
			boundSet[s.Start] = true
		}
	}

	bounds := make([]int, 0, len(boundSet))
	for b := range boundSet {
		bounds = append(bounds, b)
	}
	sort.Ints(bounds)
	return bounds
}

// planHybrid pre-segments the source at key-frame-aligned scene
// boundaries, then emits one select-filtered chunk per scene relative to
// the segment that contains it. A segment backs every scene between its
// bounds, so segment count and chunk count diverge whenever a run of
// scenes has no coinciding key-frame between them.
func planHybrid(scenes []Scene, cfg PlanConfig) ([]Chunk, []command.Descriptor, error) {
	if cfg.MuxerProgram == "" || cfg.DecoderProgram == "" {
		return nil, nil, apperrors.NewPlannerPreconditionError(cfg.Strategy.String(), "hybrid requires both a muxer program and a decoder program")
	}

	bounds := hybridSegmentBounds(scenes, cfg.SourceKeyframes)
	segWidth := nameWidth(len(bounds) - 1)
	chunkWidth := nameWidth(len(scenes))

	chunks := make([]Chunk, 0, len(scenes))
	precuts := make([]command.Descriptor, 0, len(bounds)-1)

	chunkIndex := 0
	for segIdx := 0; segIdx < len(bounds)-1; segIdx++ {
		segStart, segEnd := bounds[segIdx], bounds[segIdx+1]
		segPath := segmentPath(cfg.WorkDir, segIdx, segWidth)
		precuts = append(precuts, command.New(cfg.MuxerProgram,
			"-i", cfg.SourcePath,
			"-vf", fmt.Sprintf("select='between(n\\,%d\\,%d)'", segStart, segEnd-1),
			"-c:v", "copy", "-an", segPath))

		for _, s := range scenes {
			if s.Start < segStart || s.End > segEnd {
				continue
			}
			relStart, relEnd := s.Start-segStart, s.End-segStart
			filter := fmt.Sprintf("select='between(n\\,%d\\,%d)',setpts=PTS-STARTPTS", relStart, relEnd-1)
			src := command.New(cfg.DecoderProgram,
				"-i", segPath,
				"-vf", filter,
				"-f", "yuv4mpegpipe", "-").
				WithStdout(command.StdioPipe)
			chunks = append(chunks, newChunk(chunkIndex, s, src, cfg, chunkWidth))
			chunkIndex++
		}
	}

	return chunks, precuts, nil
}

func segmentPath(workDir string, index, width int) string {
	name := fmt.Sprintf("%0*d", width, index)
	return filepath.Join(workDir, "segments", name+".mkv")
}
