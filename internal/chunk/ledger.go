package chunk

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	apperrors "github.com/five82/chunkenc/internal/errors"
)

// CompletionRecord is one chunk's recorded completion.
type CompletionRecord struct {
	Frames int   `json:"frames"`
	Bytes  int64 `json:"size_bytes"`
}

// ledgerFile is the on-disk shape of done.json (§6).
type ledgerFile struct {
	Frames    int64                       `json:"frames"`
	Done      map[string]CompletionRecord `json:"done"`
	AudioDone bool                        `json:"audio_done"`
}

// Ledger is the process-wide record of completed work for one run.
// Reads take the shared side of an RWMutex, so they run concurrently with
// each other but wait for an in-progress write; writes are serialised.
// Reads are not lock-free. Only the worker that owns
// a chunk may insert its completion record, and records are never
// removed.
type Ledger struct {
	path string

	totalFrames   int64
	framesEncoded atomic.Int64

	mu        sync.RWMutex
	done      map[string]CompletionRecord
	audioDone bool
}

// NewLedger returns a ledger for the given done.json path. Init must be
// called once the total frame count is known.
func NewLedger(path string) *Ledger {
	return &Ledger{path: path, done: make(map[string]CompletionRecord)}
}

// Init sets the run's total frame count. Called once, before any
// record.
func (l *Ledger) Init(totalFrames int) {
	l.totalFrames = int64(totalFrames)
}

// Record inserts a chunk's completion and immediately snapshots to disk.
// A crash between the in-memory insert and the snapshot only costs a
// redo of this one chunk on resume.
func (l *Ledger) Record(chunkName string, frames int, bytes int64) error {
	l.mu.Lock()
	l.done[chunkName] = CompletionRecord{Frames: frames, Bytes: bytes}
	l.mu.Unlock()

	l.framesEncoded.Add(int64(frames))
	return l.snapshotLocked()
}

// Contains reports whether chunkName already has a completion record.
func (l *Ledger) Contains(chunkName string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.done[chunkName]
	return ok
}

// AudioMarkDone records that the audio track finished and snapshots.
func (l *Ledger) AudioMarkDone() error {
	l.mu.Lock()
	l.audioDone = true
	l.mu.Unlock()
	return l.snapshotLocked()
}

// AudioDone reports whether the audio track has finished.
func (l *Ledger) AudioDone() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.audioDone
}

// FramesEncoded returns the running total of frames recorded so far,
// used to drive progress estimates.
func (l *Ledger) FramesEncoded() int64 {
	return l.framesEncoded.Load()
}

// TotalFrames returns the total frame count set by Init, or restored by
// LoadFromDisk on resume.
func (l *Ledger) TotalFrames() int64 {
	return l.totalFrames
}

// snapshotLocked serialises the current state to disk. Named -Locked
// for symmetry with the public API even though it takes its own lock;
// it must never be called while l.mu is already held.
func (l *Ledger) snapshotLocked() error {
	l.mu.RLock()
	snap := ledgerFile{
		Frames:    l.totalFrames,
		Done:      make(map[string]CompletionRecord, len(l.done)),
		AudioDone: l.audioDone,
	}
	for k, v := range l.done {
		snap.Done[k] = v
	}
	l.mu.RUnlock()

	return l.snapshotToDisk(snap)
}

func (l *Ledger) snapshotToDisk(snap ledgerFile) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return apperrors.NewLedgerIOError("failed to marshal done ledger", err)
	}

	tmp := l.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return apperrors.NewLedgerIOError("failed to create ledger directory", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.NewLedgerIOError("failed to write done ledger", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return apperrors.NewLedgerIOError("failed to finalise done ledger", err)
	}
	return nil
}

// LoadFromDisk rehydrates the in-memory ledger from its on-disk
// snapshot, if one exists. A missing file is not an error: it means a
// fresh run.
func (l *Ledger) LoadFromDisk() error {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return apperrors.NewLedgerIOError("failed to read done ledger", err)
	}

	var snap ledgerFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return apperrors.NewLedgerIOError("failed to parse done ledger", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.totalFrames = snap.Frames
	l.audioDone = snap.AudioDone
	l.done = snap.Done
	if l.done == nil {
		l.done = make(map[string]CompletionRecord)
	}

	var encoded int64
	for _, rec := range l.done {
		encoded += int64(rec.Frames)
	}
	l.framesEncoded.Store(encoded)

	return nil
}
