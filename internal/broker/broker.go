package broker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/five82/chunkenc/internal/chunk"
	"github.com/five82/chunkenc/internal/reporter"
	"github.com/five82/chunkenc/internal/tq"
	"github.com/five82/chunkenc/internal/worker"
)

// Config controls the broker's worker pool.
type Config struct {
	// Workers is the number of bounded worker slots (W in §4.F).
	Workers int

	// MaxTries is the per-chunk retry ceiling.
	MaxTries int

	// PinCPUs requests best-effort CPU-affinity pinning of worker slots.
	PinCPUs bool

	// RampBatchSize is how many worker slots are brought online per
	// ramp-up tick, to avoid a thundering herd of cold-start encoder
	// processes. Zero or negative disables ramp-up (all slots start
	// immediately).
	RampBatchSize int

	// RampInterval is the pause between ramp-up ticks.
	RampInterval time.Duration

	// TQ is the target-quality search configuration. Nil disables the
	// search entirely; every chunk must then already carry a quantizer.
	TQ *tq.Config

	ProbeDir string

	// Permits caps how many chunks may be mid-encode at once, independent
	// of Workers, for memory-constrained hosts where more worker slots
	// would exist than the system can hold in flight at once (see
	// internal/encode.CalculatePermits). Zero or negative means no
	// additional cap beyond Workers.
	Permits int
}

// Broker runs a bounded pool of worker slots against a fixed-order chunk
// queue (§4.F). Workers never reorder the queue; each pops the next
// unclaimed chunk and runs it to completion or terminal failure.
type Broker struct {
	cfg Config

	ledger    *chunk.Ledger
	tracker   *tq.QuantizerTracker
	adjacency *chunk.Adjacency
	reporter  reporter.Reporter
	encoder   EncoderAdapter
	metric    MetricAdapter

	tqConfig *tq.Config
	maxTries int
	probeDir string
	permits  *worker.Semaphore

	cursor atomic.Int64
	chunks []chunk.Chunk
}

// New constructs a Broker for one run.
func New(cfg Config, ledger *chunk.Ledger, tracker *tq.QuantizerTracker, adjacency *chunk.Adjacency, rep reporter.Reporter, encoder EncoderAdapter, metric MetricAdapter) *Broker {
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	b := &Broker{
		cfg:       cfg,
		ledger:    ledger,
		tracker:   tracker,
		adjacency: adjacency,
		reporter:  rep,
		encoder:   encoder,
		metric:    metric,
		tqConfig:  cfg.TQ,
		maxTries:  max(cfg.MaxTries, 1),
		probeDir:  cfg.ProbeDir,
	}
	if cfg.Permits > 0 {
		b.permits = worker.NewSemaphore(cfg.Permits)
	}
	return b
}

// seedFor returns a cross-chunk quantizer seed for chunkIndex, or nil if
// no neighbouring chunk has completed its own search yet (§4.E's
// cross-chunk prediction seeding).
func (b *Broker) seedFor(chunkIndex int) *int {
	if b.tracker == nil || b.tracker.Count() == 0 {
		return nil
	}
	q := b.tracker.Predict(chunkIndex, (b.tqConfig.QMin+b.tqConfig.QMax)/2)
	return &q
}

// Run dispatches chunks (already filtered of ledger-complete work and in
// their final fixed order) across the configured worker pool and blocks
// until every chunk completes or one fails fatally. The first fatal
// error wins; ctx cancellation propagates to in-flight child processes.
func (b *Broker) Run(ctx context.Context, chunks []chunk.Chunk) error {
	b.chunks = chunks
	b.cursor.Store(0)

	workers := max(b.cfg.Workers, 1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var firstErr atomic.Pointer[error]

	launch := func(id int) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.cfg.PinCPUs {
				pinWorkerCPUs(id, workers)
			}
			b.workerLoop(ctx, id, cancel, &firstErr)
		}()
	}

	if b.cfg.RampBatchSize <= 0 {
		for id := 0; id < workers; id++ {
			launch(id)
		}
	} else {
	rampLoop:
		for id := 0; id < workers; {
			batchEnd := min(id+b.cfg.RampBatchSize, workers)
			for ; id < batchEnd; id++ {
				launch(id)
			}
			if id < workers {
				select {
				case <-ctx.Done():
					break rampLoop
				case <-time.After(b.cfg.RampInterval):
				}
			}
		}
	}

	wg.Wait()
	b.reporter.Finish()

	if p := firstErr.Load(); p != nil {
		return *p
	}
	return ctx.Err()
}

func (b *Broker) workerLoop(ctx context.Context, workerID int, cancel context.CancelFunc, firstErr *atomic.Pointer[error]) {
	for {
		idx := int(b.cursor.Add(1)) - 1
		if idx >= len(b.chunks) {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		c := b.chunks[idx]
		if b.ledger.Contains(c.Name()) {
			continue
		}

		if b.permits != nil {
			select {
			case <-ctx.Done():
				return
			case <-b.permits.Chan():
			}
		}

		err := runChunk(ctx, workerID, c, b)

		if b.permits != nil {
			b.permits.Release()
		}

		if err != nil {
			firstErr.CompareAndSwap(nil, &err)
			cancel()
			return
		}
	}
}
