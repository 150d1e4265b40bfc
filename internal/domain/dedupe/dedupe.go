// Package dedupe provides idempotency tracking for the live event feed.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen event IDs to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	// This is the ONLY method for deduplication - thread-safe and atomic.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen list, allowing it to be retried.
	// This should only be used when an event was marked as seen but failed
	// to be processed (e.g., queue backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a ring buffer over insertion
// order. Bounded mode (maxSize > 0) overwrites the oldest recorded id
// when the ring wraps, so eviction is O(1). Unbounded mode (maxSize <= 0)
// is a plain map with no eviction.
type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]int // id -> ring slot; -1 in unbounded mode
	ring     []string       // insertion order, nil in unbounded mode
	occupied []bool         // slot liveness; "" is a valid id
	next     int            // slot the next insert claims
	maxSize  int            // maximum number of IDs to keep (0 or negative = UNBOUNDED)
	size     atomic.Int64   // current number of entries (atomic)
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000, // default max size
	}

	// Apply all options
	for _, opt := range opts {
		opt(d)
	}

	// Initialize the seen map
	d.seen = make(map[string]int)

	// Allocate the ring for bounded mode
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
		d.occupied = make([]bool, d.maxSize)
	}

	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
// Returns true if id was already seen, false if it was newly recorded.
func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Check if already seen
	if _, exists := d.seen[id]; exists {
		return true // Already seen
	}

	if d.maxSize > 0 {
		// BOUNDED MODE: claim the next ring slot, evicting its occupant.
		// Invariant: an occupied slot's id is always live in the map,
		// because Unrecord frees the slot when it removes the id.
		slot := d.next
		if d.occupied[slot] {
			delete(d.seen, d.ring[slot])
			d.size.Add(-1)
		}

		d.ring[slot] = id
		d.occupied[slot] = true
		d.seen[id] = slot
		d.next = (slot + 1) % d.maxSize
	} else {
		// UNBOUNDED MODE: Just use the map
		d.seen[id] = -1
	}
	d.size.Add(1)
	return false // Newly recorded
}

// Unrecord removes an ID from the seen list, allowing it to be retried.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, exists := d.seen[id]
	if !exists {
		return
	}

	delete(d.seen, id)

	// Free the ring slot in bounded mode so the wrap does not charge an
	// eviction for an entry already gone.
	if slot >= 0 && slot < len(d.occupied) && d.ring[slot] == id {
		d.ring[slot] = ""
		d.occupied[slot] = false
	}

	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
