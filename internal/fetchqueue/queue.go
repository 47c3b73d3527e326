// Package fetchqueue implements the bounded-in-practice, unbounded-in-
// contract FIFO of fetch jobs shared by the RPC submission handler and
// the fetcher pool's workers.
package fetchqueue

import (
	"sync"
	"time"

	"urlfetcher/internal/urlfetcher"
)

// Queue is a multi-producer, multi-consumer FIFO of FetchJob. Enqueue
// never blocks and never fails; DequeueWithTimeout blocks up to a given
// duration before reporting a timeout, giving workers a bounded window
// in which to observe shutdown.
type Queue struct {
	mu     sync.Mutex
	items  []urlfetcher.FetchJob
	notify chan struct{}
}

// New constructs an empty Queue.
func New() *Queue {
	return &Queue{
		notify: make(chan struct{}, 1),
	}
}

// Enqueue appends job to the back of the queue and wakes one waiting
// dequeuer, if any. It never blocks.
func (q *Queue) Enqueue(job urlfetcher.FetchJob) {
	q.mu.Lock()
	q.items = append(q.items, job)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// DequeueWithTimeout pops the front job if one is available within d.
// It returns ok == false on timeout, with no job popped.
func (q *Queue) DequeueWithTimeout(d time.Duration) (job urlfetcher.FetchJob, ok bool) {
	deadline := time.Now().Add(d)
	for {
		if j, popped := q.tryPop(); popped {
			return j, true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return urlfetcher.FetchJob{}, false
		}
		timer := time.NewTimer(remaining)
		select {
		case <-q.notify:
			timer.Stop()
		case <-timer.C:
			return urlfetcher.FetchJob{}, false
		}
	}
}

// Len reports the number of jobs currently queued, for metrics/debug use.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) tryPop() (urlfetcher.FetchJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return urlfetcher.FetchJob{}, false
	}
	job := q.items[0]
	q.items = q.items[1:]
	return job, true
}
