package broker

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinWorkerCPUs best-effort pins the calling goroutine's OS thread to a
// disjoint subset of CPUs for worker slot workerID out of numWorkers
// total slots, per §4.F's "slots may be pinned to disjoint CPU subsets".
// A failure here has no correctness consequence and is silently ignored.
func pinWorkerCPUs(workerID, numWorkers int) {
	if numWorkers <= 0 {
		return
	}
	cpus := runtime.NumCPU()
	if cpus <= 1 || numWorkers <= 1 {
		return
	}

	share := cpus / numWorkers
	if share <= 0 {
		return
	}

	var set unix.CPUSet
	set.Zero()
	start := workerID * share
	end := start + share
	if workerID == numWorkers-1 {
		end = cpus
	}
	for cpu := start; cpu < end && cpu < cpus; cpu++ {
		set.Set(cpu)
	}

	runtime.LockOSThread()
	_ = unix.SchedSetaffinity(0, &set)
}
