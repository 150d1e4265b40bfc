// Package queue defines the contract for enqueuing and consuming live
// feed events.
package queue

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the depth at which Enqueue starts refusing events.
// It is enforced independently of the channel buffer, so it can sit
// below the buffer size. Non-positive values are ignored.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithBufferSize sets the size of the underlying events channel.
// Non-positive values are ignored.
func WithBufferSize(size int) Option {
	return func(q *InMemoryQueue) {
		if size > 0 {
			q.bufferSize = size
		}
	}
}
