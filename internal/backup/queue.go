package backup

import (
	"runtime"
	"sync"
)

// WorkerCount returns the fixed worker count W = max(1, availableParallelism)
// used to size a BoundedQueue for the running host.
func WorkerCount() int {
	if n := runtime.GOMAXPROCS(0); n > 1 {
		return n
	}
	return 1
}

// ProcessFileFunc handles one queued path. workerID identifies which of the
// queue's fixed workers is calling, stable for the worker's lifetime, so
// callers can pin a dedicated resource (e.g. a catalogue connection) to it.
type ProcessFileFunc func(workerID int, path string)

// BoundedQueue is a fixed worker pool draining a bounded FIFO of file
// paths. Producers block in Enqueue while the queue is full; workers block
// waiting for work until Finalize is called and the queue drains.
//
// Grounded on the mutex/condition-variable ThreadedFileQueue: a buffered
// channel plays the role of the bounded FIFO plus its condition variables,
// and a WaitGroup plays the role of joining worker threads.
type BoundedQueue struct {
	items chan string
	wg    sync.WaitGroup
}

// NewBoundedQueue starts workers goroutines (at least 1), each repeatedly
// pulling one path at a time and invoking process outside any lock. The
// queue depth is 4*workers, matching Q = 4*W.
func NewBoundedQueue(workers int, process ProcessFileFunc) *BoundedQueue {
	if workers < 1 {
		workers = 1
	}
	q := &BoundedQueue{
		items: make(chan string, workers*4),
	}
	q.wg.Add(workers)
	for id := 0; id < workers; id++ {
		go func(workerID int) {
			defer q.wg.Done()
			for path := range q.items {
				process(workerID, path)
			}
		}(id)
	}
	return q
}

// Enqueue publishes path, blocking the caller while the queue is full.
func (q *BoundedQueue) Enqueue(path string) {
	q.items <- path
}

// Finalize signals completion and blocks until every worker has drained
// the remaining items and exited. Safe to call exactly once.
func (q *BoundedQueue) Finalize() {
	close(q.items)
	q.wg.Wait()
}
