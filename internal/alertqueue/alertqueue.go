// Package alertqueue provides a bounded FIFO queue with a blocking wait.
package alertqueue

import (
	"sync"
	"time"
)

// Queue is safe for concurrent use by multiple producers and consumers.
type Queue[T any] struct {
	m       sync.Mutex
	items   []T
	limit   int
	dropped int64
	notify  func()

	// closed and replaced on every push so waiters never miss one
	pushedC chan struct{}
}

// New returns an empty queue that holds at most limit items.
func New[T any](limit int) *Queue[T] {
	return &Queue[T]{
		limit:   limit,
		pushedC: make(chan struct{}),
	}
}

// Push appends v to the queue. When the queue is full v is dropped and false is returned.
func (q *Queue[T]) Push(v T) bool {
	q.m.Lock()
	if len(q.items) >= q.limit {
		q.dropped++
		q.m.Unlock()
		return false
	}
	wasEmpty := len(q.items) == 0
	q.items = append(q.items, v)
	close(q.pushedC)
	q.pushedC = make(chan struct{})
	notify := q.notify
	q.m.Unlock()

	if wasEmpty && notify != nil {
		notify()
	}
	return true
}

// PopAll removes and returns all queued items in the order they were pushed.
func (q *Queue[T]) PopAll() []T {
	q.m.Lock()
	defer q.m.Unlock()
	ret := q.items
	q.items = nil
	return ret
}

// Wait blocks until an item is queued or timeout elapses.
// The first item is returned but not removed from the queue.
func (q *Queue[T]) Wait(timeout time.Duration) (T, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		q.m.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			q.m.Unlock()
			return v, true
		}
		pushedC := q.pushedC
		q.m.Unlock()

		select {
		case <-pushedC:
		case <-timer.C:
			var zero T
			return zero, false
		}
	}
}

// SetNotify sets a function to call when an item is pushed into an empty queue.
// f is called on the pushing goroutine and must not block.
func (q *Queue[T]) SetNotify(f func()) {
	q.m.Lock()
	q.notify = f
	q.m.Unlock()
}

// SetLimit changes the capacity. Items already queued are kept.
func (q *Queue[T]) SetLimit(n int) {
	q.m.Lock()
	q.limit = n
	q.m.Unlock()
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.m.Lock()
	defer q.m.Unlock()
	return len(q.items)
}

// Dropped returns the number of items rejected because the queue was full.
func (q *Queue[T]) Dropped() int64 {
	q.m.Lock()
	defer q.m.Unlock()
	return q.dropped
}
