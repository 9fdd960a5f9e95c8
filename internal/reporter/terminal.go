package reporter

import (
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/five82/chunkenc/internal/util"
	"github.com/schollz/progressbar/v3"
)

// TerminalReporter renders progress under a section header as a single
// live bar whose line-end description shows throughput estimates and
// chunk counts. Per-worker status and task events are recorded but not
// displayed.
type TerminalReporter struct {
	mu       sync.Mutex
	progress *progressbar.ProgressBar
	workers  map[int]*workerState
	est      estimates
	cyan     *color.Color
	green    *color.Color
	bold     *color.Color
	faint    *color.Color
}

// NewTerminalReporter creates a terminal reporter writing to stderr.
func NewTerminalReporter() *TerminalReporter {
	return &TerminalReporter{
		workers: make(map[int]*workerState),
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		bold:    color.New(color.Bold),
		faint:   color.New(color.Faint),
	}
}

func (r *TerminalReporter) Begin(totalFrames, initialFrames int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Println()
	_, _ = r.cyan.Println("ENCODING")
	if initialFrames > 0 {
		_, _ = r.faint.Printf("  resuming at frame %d of %d\n", initialFrames, totalFrames)
	}

	r.progress = progressbar.NewOptions64(
		totalFrames,
		progressbar.OptionSetDescription(""),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	if initialFrames > 0 {
		_ = r.progress.Set64(initialFrames)
	}
}

func (r *TerminalReporter) Advance(deltaFrames int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress == nil {
		return
	}
	_ = r.progress.Add64(deltaFrames)
}

func (r *TerminalReporter) Rewind(deltaFrames int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress == nil {
		return
	}
	_ = r.progress.Add64(-deltaFrames)
}

func (r *TerminalReporter) PerWorkerStatus(workerID int, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.workerFor(workerID)
	w.status = text
	r.renderWorkersLocked()
}

func (r *TerminalReporter) PerWorkerTask(workerID, chunkIndex int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.workerFor(workerID)
	w.chunkIndex = chunkIndex
	w.hasChunk = true
	r.renderWorkersLocked()
}

func (r *TerminalReporter) workerFor(id int) *workerState {
	w, ok := r.workers[id]
	if !ok {
		w = &workerState{}
		r.workers[id] = w
	}
	return w
}

// renderWorkersLocked sets the description the progress bar shows at
// line end: fps, bitrate and chunk counts. Per-worker state is not
// included. Callers must hold r.mu.
func (r *TerminalReporter) renderWorkersLocked() {
	if r.progress == nil {
		return
	}
	desc := fmt.Sprintf("fps %.1f, %.0f kbps, %d/%d chunks",
		r.est.fps, r.est.kbps, r.est.chunksDone, r.est.chunksTotal)
	r.progress.Describe(desc)
}

func (r *TerminalReporter) UpdateEstimates(fps, kbps float64, estTotalBytes int64, chunksDone, chunksTotal int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.est = estimates{fps: fps, kbps: kbps, estTotalBytes: estTotalBytes, chunksDone: chunksDone, chunksTotal: chunksTotal}
	r.renderWorkersLocked()
}

func (r *TerminalReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
	}
	fmt.Println()
	_, _ = r.green.Add(color.Bold).Printf("done, estimated %s written\n", util.FormatBytesReadable(uint64(r.est.estTotalBytes)))
	for id := range r.workers {
		delete(r.workers, id)
	}
}
