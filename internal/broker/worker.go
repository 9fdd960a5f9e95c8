package broker

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/five82/chunkenc/internal/chunk"
	"github.com/five82/chunkenc/internal/command"
	apperrors "github.com/five82/chunkenc/internal/errors"
	"github.com/five82/chunkenc/internal/ffprobe"
	"github.com/five82/chunkenc/internal/reporter"
)

// retryDelay is the pause between a crashed attempt and the next retry,
// long enough to let a transient resource spike (disk, memory) clear.
const retryDelay = 2 * time.Second

// runChunk performs the full per-chunk pipeline for one worker slot:
// optional target-quality search, then up to cfg.MaxTries attempts of
// the final pass-count encode, reporting progress and retrying crashes
// per §4.F.
func runChunk(ctx context.Context, workerID int, c chunk.Chunk, b *Broker) error {
	b.reporter.PerWorkerTask(workerID, c.Index())
	b.reporter.PerWorkerStatus(workerID, "probing")

	q, hasQ := c.Quantizer()
	if !hasQ && b.tqConfig != nil {
		seed := b.seedFor(c.Index())
		chosen, err := searchQuantizer(ctx, c, b.tqConfig, seed, b.encoder, b.metric, b.probeDir)
		if err != nil {
			return err
		}
		c = c.WithQuantizer(chosen)
		q, _ = c.Quantizer()
		b.tracker.Record(c.Index(), q)
		b.adjacency.MarkComplete(c.Index(), q)
	}

	outputPath := c.OutputPath(b.encoder.OutputExt())

	var lastErr error
	for attempt := 1; attempt <= b.maxTries; attempt++ {
		b.reporter.PerWorkerStatus(workerID, fmt.Sprintf("encoding (attempt %d/%d)", attempt, b.maxTries))

		advanced, err := attemptEncode(ctx, c, q, outputPath, b)
		if err == nil {
			if err := b.ledger.Record(c.Name(), c.FrameCount(), int64(fileSize(outputPath))); err != nil {
				return apperrors.NewLedgerIOError("recording chunk completion", err)
			}
			b.reporter.PerWorkerStatus(workerID, "done")
			return nil
		}

		b.reporter.Rewind(advanced)
		lastErr = err

		if attempt < b.maxTries {
			b.reporter.PerWorkerStatus(workerID, "retrying after crash")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}

	return apperrors.NewChunkCrashError(c.Name(), b.maxTries, b.maxTries, lastErr)
}

// attemptEncode runs one full pass-count-pass attempt of the final
// encode, reporting per-pass frame progress as it goes. It returns the
// number of frames it reported via Advance, so the caller can reverse
// them on failure.
func attemptEncode(ctx context.Context, c chunk.Chunk, quantizer int, outputPath string, b *Broker) (int64, error) {
	var advanced int64

	for pass := 1; pass <= c.Passes(); pass++ {
		pipeline, err := b.encoder.FinalCommand(ctx, c, quantizer, pass, outputPath)
		if err != nil {
			return advanced, err
		}

		outcome, err := command.RunPipeline(ctx, pipeline)
		delta := scanProgress(outcome.Stderr, b.encoder, b.reporter)
		advanced += delta

		if err != nil {
			return advanced, apperrors.NewChunkCrashError(c.Name(), pass, c.Passes(), err)
		}
	}

	if !c.IgnoreFrameMismatch() {
		info, err := ffprobe.GetMediaInfo(outputPath)
		if err != nil {
			return advanced, apperrors.NewFrameMismatchError(c.Name(), c.FrameCount(), 0)
		}
		if got := int(info.TotalFrames); got != c.FrameCount() {
			return advanced, apperrors.NewFrameMismatchError(c.Name(), c.FrameCount(), got)
		}
	}

	return advanced, nil
}

// scanProgress parses every captured stderr stage for progress lines. A
// stage's frame counter is cumulative, so each stage tracks its own
// last-seen value and reports only the forward delta, guarding against a
// stage restarting its counter (e.g. a converter stage that shares a
// prefix with the encoder's own progress format).
func scanProgress(stderrStages [][]byte, encoder EncoderAdapter, r reporter.Reporter) int64 {
	var total int64
	for _, stage := range stderrStages {
		var last int
		scanner := bufio.NewScanner(bytes.NewReader(stage))
		for scanner.Scan() {
			update, ok := encoder.ParseProgress(scanner.Text())
			if !ok {
				continue
			}
			delta := update.Frames - last
			if delta <= 0 {
				last = update.Frames
				continue
			}
			last = update.Frames
			r.Advance(int64(delta))
			total += int64(delta)
		}
	}
	return total
}

