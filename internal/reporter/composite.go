package reporter

// CompositeReporter fans every event out to a fixed set of reporters.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter creates a composite reporter.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	return &CompositeReporter{reporters: reporters}
}

func (c *CompositeReporter) Begin(totalFrames, initialFrames int64) {
	for _, r := range c.reporters {
		r.Begin(totalFrames, initialFrames)
	}
}

func (c *CompositeReporter) Advance(deltaFrames int64) {
	for _, r := range c.reporters {
		r.Advance(deltaFrames)
	}
}

func (c *CompositeReporter) Rewind(deltaFrames int64) {
	for _, r := range c.reporters {
		r.Rewind(deltaFrames)
	}
}

func (c *CompositeReporter) PerWorkerStatus(workerID int, text string) {
	for _, r := range c.reporters {
		r.PerWorkerStatus(workerID, text)
	}
}

func (c *CompositeReporter) PerWorkerTask(workerID, chunkIndex int) {
	for _, r := range c.reporters {
		r.PerWorkerTask(workerID, chunkIndex)
	}
}

func (c *CompositeReporter) UpdateEstimates(fps, kbps float64, estTotalBytes int64, chunksDone, chunksTotal int) {
	for _, r := range c.reporters {
		r.UpdateEstimates(fps, kbps, estTotalBytes, chunksDone, chunksTotal)
	}
}

func (c *CompositeReporter) Finish() {
	for _, r := range c.reporters {
		r.Finish()
	}
}
