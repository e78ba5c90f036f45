package syncer

import (
	"sync"

	"github.com/theonlysinjin/team-retro/internal/backend"
)

// updateQueue is a thread-safe FIFO queue of feed updates.
//
// The queue is unbounded so the feed pump never blocks on a slow apply.
// It uses a buffered channel of size 1 for signaling so the Run loop can
// wait on it together with ctx.Done.
type updateQueue struct {
	mu      sync.Mutex
	updates []backend.Update
	closed  bool
	signal  chan struct{}
}

func newUpdateQueue() *updateQueue {
	return &updateQueue{
		updates: make([]backend.Update, 0, 16),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds an update to the back of the queue.
// Returns false if the queue is closed.
func (q *updateQueue) Enqueue(u backend.Update) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.updates = append(q.updates, u)

	// Non-blocking: the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes and returns the front update without blocking.
func (q *updateQueue) TryDequeue() (backend.Update, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.updates) == 0 {
		return backend.Update{}, false
	}
	u := q.updates[0]

	// Release the slot so the snapshot slices can be collected.
	q.updates[0] = backend.Update{}
	if len(q.updates) == 1 {
		q.updates = q.updates[:0]
	} else {
		q.updates = q.updates[1:]
	}
	return u, true
}

// Wait returns a channel that signals when updates may be available.
func (q *updateQueue) Wait() <-chan struct{} {
	return q.signal
}

// Drained reports whether the queue is closed and empty.
func (q *updateQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.updates) == 0
}

// Len returns the current queue length.
func (q *updateQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.updates)
}

// Close signals that no more updates will be enqueued and wakes waiters.
func (q *updateQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
