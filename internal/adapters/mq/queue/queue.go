// Package queue defines the contract for enqueuing and consuming live
// feed events.
//
// Implementations may use channels or more advanced structures. The
// service ships a single in-memory bounded queue; ingest stays
// non-blocking and the consumer drains in arrival order.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/abakedjoetato/luxqueue/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 100000
	defaultBufferSize    = 100000
)

// Event represents the payload type flowing through the queue.
// Using the model.LiveEvent type for type safety.
type Event = model.LiveEvent

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an event, reporting false when the queue is full or closed.
	Enqueue(ctx context.Context, e Event) bool

	// Dequeue returns a channel that receives events as they arrive.
	// The channel closes once the queue closes and its backlog drains.
	Dequeue(ctx context.Context) <-chan Event

	// Len reports how many events are waiting.
	Len(ctx context.Context) int

	// Close stops intake. Buffered events stay readable until drained.
	Close() error

	// IsClosed reports whether Close has been called.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	events     chan Event
	capacity   int
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.events = make(chan Event, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	q.recordDepth()

	return q
}

// recordDepth publishes the depth gauges and returns the depth it saw.
func (q *InMemoryQueue) recordDepth() int {
	depth := len(q.events)
	metrics.UpdateQueueSize(depth)
	metrics.UpdateQueueUtilization(float64(depth) / float64(q.capacity))
	return depth
}

// Enqueue adds an event without blocking. It reports false when the
// queue is full, closed, or the caller's context has ended.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Event) bool { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	// Producers share the lock; Close takes it exclusively, so a send
	// can never race the channel close.
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	// capacity may sit below the channel buffer; enforce it explicitly.
	if len(q.events) >= q.capacity {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false
	}

	select {
	case q.events <- e:
		metrics.RecordQueueEnqueue()
		q.recordDepth()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel fed from the queue buffer. The channel
// closes when the queue closes and its backlog drains, or when ctx ends.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for event := range q.events {
			select {
			case out <- event:
				metrics.RecordQueueDequeue()
				q.recordDepth()
			case <-ctx.Done():
				// One event was already taken off the buffer for this
				// handoff and cannot be delivered once ctx ends.
				metrics.RecordErrorByComponent("queue", "dropped_in_flight")
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued events, refreshing the depth
// gauges as a side effect.
func (q *InMemoryQueue) Len(context.Context) int {
	return q.recordDepth()
}

// Close shuts down the queue. Enqueues fail afterwards; buffered events
// remain readable until drained.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.events)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
