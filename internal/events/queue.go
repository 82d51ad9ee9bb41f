package events

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Push and Pop once the queue is closed.
var ErrQueueClosed = errors.New("events: queue closed")

// Queue is an unbounded FIFO of envelopes. Any number of producers may Push
// concurrently; a single consumer drains it with Pop.
type Queue struct {
	mu     sync.Mutex
	items  []Envelope
	notify chan struct{}
	closed bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Push appends env to the tail of the queue. It never blocks.
func (q *Queue) Push(env Envelope) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, env)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Pop removes and returns the head of the queue, blocking until an envelope
// is available, the queue is closed, or ctx is done.
func (q *Queue) Pop(ctx context.Context) (Envelope, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			env := q.items[0]
			q.items[0] = Envelope{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return env, nil
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return Envelope{}, ErrQueueClosed
		}

		select {
		case <-q.notify:
		case <-ctx.Done():
			return Envelope{}, ctx.Err()
		}
	}
}

// Len returns the number of queued envelopes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting envelopes. Pending envelopes can still be popped.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}
