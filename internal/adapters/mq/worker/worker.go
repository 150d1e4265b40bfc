// Package worker runs the live-event consumer that feeds the scoring
// engine. A single worker drains the queue so events apply in arrival
// order; scaling out would reorder interactions within a session.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/abakedjoetato/luxqueue/internal/adapters/mq/queue"
	"github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/abakedjoetato/luxqueue/pkg/logger"
	"github.com/abakedjoetato/luxqueue/pkg/metrics"
)

// Default worker configuration constants.
const (
	pumpShutdownTimeout = 30 * time.Second
)

// Event abstracts what workers read off the queue.
// Using the model.LiveEvent type for consistency.
type Event = model.LiveEvent

// Applier applies one live event to the scoring state.
type Applier interface {
	Apply(ctx context.Context, event model.LiveEvent) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes events off the queue until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining events before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing events.
type InMemoryWorker struct {
	queue   Queue
	applier Applier
	name    string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, applier Applier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		applier:  applier,
		name:     "worker", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	// The worker name is tagged onto whichever logger won: the one
	// injected via WithLogger, or the process-wide default.
	if w.logger == nil {
		w.logger = logger.Get()
	}
	w.logger = w.logger.Named(w.name)

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	eventChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			// Process the event
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing event", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	// Signal shutdown
	close(w.shutdown)

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent hands a single event to the engine.
func (w *InMemoryWorker) processEvent(ctx context.Context, event queue.Event) error { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	// Track overall processing latency
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	if err := w.applier.Apply(ctx, event); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "apply_error")
		w.logger.Error(ctx, "event application failed",
			logger.String("event_id", event.EventID),
			logger.String("kind", string(event.Kind)),
			logger.Error(err),
		)
		return fmt.Errorf("apply event %s: %w", event.EventID, err)
	}

	return nil
}

// Pump owns the queue consumer lifecycle. It runs exactly one worker:
// arrival order is part of the scoring contract, so processing is never
// fanned out.
type Pump struct {
	worker *InMemoryWorker
	queue  Queue

	// Logging
	logger logger.Logger
}

// NewPump creates the single-consumer pump for a queue. Options are
// forwarded to the underlying worker.
func NewPump(queue Queue, applier Applier, opts ...Option) *Pump {
	w := NewInMemoryWorker(queue, applier, append([]Option{WithName("pump")}, opts...)...)
	p := &Pump{
		worker: w,
		queue:  queue,
		logger: w.logger,
	}

	metrics.UpdateWorkerCount(1)

	return p
}

// Start starts the consumer.
func (p *Pump) Start(ctx context.Context) {
	go p.worker.Run(ctx)
}

// Shutdown gracefully shuts down the pump. The queue is closed first so
// buffered events drain through the worker before it exits.
func (p *Pump) Shutdown(ctx context.Context) error {
	// First close the queue to stop new events
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	// Wait for the worker to drain or the deadline to lapse
	shutdownCtx, cancel := context.WithTimeout(ctx, pumpShutdownTimeout)
	defer cancel()

	select {
	case <-p.worker.done:
		metrics.UpdateWorkerCount(0)
		return nil
	case <-shutdownCtx.Done():
		p.logger.Warn(ctx, "event pump shutdown timed out")
		return fmt.Errorf("pump shutdown timed out: %w", shutdownCtx.Err())
	}
}
