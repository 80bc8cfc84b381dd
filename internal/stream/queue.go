package stream

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultQueueCapacity bounds the per-session frame backlog.
const DefaultQueueCapacity = 10

// FrameTask is one unit of work: a single raw frame awaiting transformation.
type FrameTask struct {
	ID   string
	Data []byte
}

// DequeueResult classifies the outcome of a Dequeue call.
type DequeueResult int

const (
	// DequeueOK means an item was returned.
	DequeueOK DequeueResult = iota
	// DequeueTimeout means no item arrived within the wait window.
	DequeueTimeout
	// DequeueClosed means the queue was closed.
	DequeueClosed
	// DequeueCancelled means the caller's context was cancelled.
	DequeueCancelled
)

// FrameQueue is a bounded FIFO of frame tasks with a drop-oldest admission
// policy. A stale frame is worthless the instant a newer one exists, so a
// full queue evicts its oldest entry rather than blocking the producer.
// Built on a native buffered channel; the wrapper only adds eviction and
// close bookkeeping.
type FrameQueue struct {
	mu     sync.Mutex
	tasks  chan FrameTask
	closed bool
}

// NewFrameQueue creates a queue holding at most capacity tasks.
func NewFrameQueue(capacity int) *FrameQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &FrameQueue{tasks: make(chan FrameTask, capacity)}
}

// TryEnqueue appends a task without ever blocking. If the queue is full, the
// single oldest queued task is evicted first. Returns whether an eviction
// happened and whether the task was accepted (false only after Close).
func (q *FrameQueue) TryEnqueue(task FrameTask) (evicted, accepted bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false, false
	}

	select {
	case q.tasks <- task:
		return false, true
	default:
	}

	// Full. Make room by dropping the oldest entry. The only other reader
	// is the session's worker, which can only shrink the queue further, so
	// the send below cannot block while the lock is held.
	select {
	case <-q.tasks:
		evicted = true
	default:
	}
	q.tasks <- task
	return evicted, true
}

// Dequeue blocks until an item exists, the wait window elapses, the queue is
// closed, or ctx is cancelled.
func (q *FrameQueue) Dequeue(ctx context.Context, wait time.Duration, clock clockwork.Clock) (FrameTask, DequeueResult) {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return FrameTask{}, DequeueClosed
	}

	timer := clock.NewTimer(wait)
	defer timer.Stop()

	select {
	case task, ok := <-q.tasks:
		if !ok {
			return FrameTask{}, DequeueClosed
		}
		return task, DequeueOK
	case <-timer.Chan():
		return FrameTask{}, DequeueTimeout
	case <-ctx.Done():
		return FrameTask{}, DequeueCancelled
	}
}

// Close marks the queue closed and wakes blocked dequeuers. Idempotent.
// Tasks still queued at close time are discarded, not processed.
func (q *FrameQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.tasks)
}

// Len returns the current number of queued tasks.
func (q *FrameQueue) Len() int {
	return len(q.tasks)
}

// Capacity returns the maximum number of queued tasks.
func (q *FrameQueue) Capacity() int {
	return cap(q.tasks)
}
