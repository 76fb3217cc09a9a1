// Package bridge turns callback driven deliveries into an ordered
// stream that can be consumed with blocking calls.
package bridge

import (
	"context"
	"errors"
	"sync"
)

// ErrTerminated is returned by Pop once the queue has been terminated
// and every entry pushed before termination has been popped.
var ErrTerminated = errors.New("queue terminated")

// Queue is an unbounded first in first out queue.
// Push and Terminate never block so they are safe to call from event
// callbacks. Pop blocks until an entry or termination is available.
//
// The queue has no bound: a producer that outpaces the consumer grows
// it without limit.
type Queue[T any] struct {
	mu         sync.Mutex
	items      []T
	terminated bool

	// signal has a buffer of one so pushes never block and a pending
	// wake up is never lost.
	signal chan struct{}
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		signal: make(chan struct{}, 1),
	}
}

func (q *Queue[T]) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Push appends v. It reports false and drops v if the queue was
// terminated.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.terminated {
		return false
	}
	q.items = append(q.items, v)
	q.notify()
	return true
}

// Terminate stops accepting entries. Entries already queued are still
// delivered by Pop. Calling Terminate more than once is a no-op.
func (q *Queue[T]) Terminate() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.terminated {
		return
	}
	q.terminated = true
	q.notify()
}

// Pop removes and returns the oldest entry. It blocks while the queue is
// empty and not terminated. It returns ErrTerminated once the queue is
// terminated and drained, and ctx.Err() if ctx is done first.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			if len(q.items) > 0 || q.terminated {
				// Pass the wake up on for the next Pop.
				q.notify()
			}
			q.mu.Unlock()
			return v, nil
		}
		if q.terminated {
			q.notify()
			q.mu.Unlock()
			return zero, ErrTerminated
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-q.signal:
		}
	}
}

// Discard drops every queued entry and terminates the queue.
func (q *Queue[T]) Discard() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = nil
	q.terminated = true
	q.notify()
}
