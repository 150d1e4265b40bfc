// Package service wires the queue store, the live-event pipeline, and the
// display coordinator into one lifecycle, and implements the dependencies
// required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abakedjoetato/luxqueue/internal/adapters/display"
	eventqueue "github.com/abakedjoetato/luxqueue/internal/adapters/mq/queue"
	"github.com/abakedjoetato/luxqueue/internal/adapters/mq/worker"
	"github.com/abakedjoetato/luxqueue/internal/adapters/repository"
	"github.com/abakedjoetato/luxqueue/internal/domain/dedupe"
	"github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/abakedjoetato/luxqueue/internal/engine"
	"github.com/abakedjoetato/luxqueue/internal/refresh"
	"github.com/abakedjoetato/luxqueue/internal/resolver"
	"github.com/abakedjoetato/luxqueue/internal/settings"
	"github.com/abakedjoetato/luxqueue/pkg/logger"
	"github.com/abakedjoetato/luxqueue/pkg/metrics"
)

// Service implements the API dependencies for the submission queue system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      *repository.SQLiteStore
	deduper    dedupe.Deduper
	eventQueue eventqueue.Queue
	pump       *worker.Pump
	engine     engine.Engine
	resolver   resolver.Resolver
	settings   *settings.Cache

	// The coordinator sits behind its own lock: store change notifications
	// arrive from operation and pump goroutines, including while Stop holds
	// mu draining the pump, so routing them through mu would deadlock.
	notifyMu    sync.RWMutex
	coordinator refresh.Coordinator

	// Display boundary. Both default to the log-backed display when not
	// injected; a real chat frontend supplies its own.
	publisher refresh.Publisher
	sink      engine.SummarySink

	// Configuration
	dbPath            string
	queueSize         int
	dedupeSize        int
	pageSize          int
	watchInterval     time.Duration
	resortInterval    time.Duration
	refreshTick       time.Duration
	publishSpacing    time.Duration
	reconcileInterval time.Duration

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDBPath sets the SQLite database path. Empty means a private in-memory
// database, which is what the tests use.
func WithDBPath(path string) Option {
	return func(s *Service) {
		s.dbPath = path
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithPageSize sets the default page size for queue views and surfaces.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithWatchInterval sets how often watch time accrues to present handles.
func WithWatchInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.watchInterval = interval
		}
	}
}

// WithResortInterval sets how often watch scores are flushed to the store.
func WithResortInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.resortInterval = interval
		}
	}
}

// WithRefreshTick sets how often dirty display surfaces are republished.
func WithRefreshTick(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.refreshTick = interval
		}
	}
}

// WithPublishSpacing sets the delay between consecutive surface publishes.
func WithPublishSpacing(spacing time.Duration) Option {
	return func(s *Service) {
		if spacing > 0 {
			s.publishSpacing = spacing
		}
	}
}

// WithReconcileInterval sets how often surface pointers are probed.
func WithReconcileInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.reconcileInterval = interval
		}
	}
}

// WithPublisher sets the display publisher surfaces render through.
func WithPublisher(p refresh.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithSummarySink sets the sink that receives close-of-session summaries.
func WithSummarySink(sink engine.SummarySink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration. Interval options
// left unset fall through to each component's own default.
func New(opts ...Option) *Service {
	s := &Service{
		dbPath:     "",     // in-memory unless configured
		queueSize:  100000, // default queue size
		dedupeSize: 50000,  // default dedupe cache size
		pageSize:   10,     // default page size
		logger:     nil,    // will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting submission queue service...")

	store, err := repository.New(
		repository.WithPath(s.dbPath),
		repository.WithChangeNotifier(s.queueChanged),
	)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	s.store = store

	s.settings = settings.New(store)
	if err := s.settings.Load(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("load settings: %w", err)
	}

	if s.publisher == nil || s.sink == nil {
		d := display.New(display.WithChannelLookup(s.summaryChannel))
		if s.publisher == nil {
			s.publisher = d
		}
		if s.sink == nil {
			s.sink = d
		}
	}

	s.engine = engine.New(store,
		engine.WithSummarySink(s.sink),
		engine.WithWatchInterval(s.watchInterval),
		engine.WithResortInterval(s.resortInterval),
	)
	s.resolver = resolver.New(store)

	s.notifyMu.Lock()
	s.coordinator = refresh.New(store, s.publisher,
		refresh.WithTickInterval(s.refreshTick),
		refresh.WithPublishSpacing(s.publishSpacing),
		refresh.WithReconcileInterval(s.reconcileInterval),
		refresh.WithPageSize(s.pageSize),
	)
	s.notifyMu.Unlock()

	if err := s.engine.Start(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("start engine: %w", err)
	}
	if err := s.coordinator.Start(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("start refresh coordinator: %w", err)
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithBufferSize(s.queueSize),
	)

	// Single consumer; the pump never fans out so events apply in
	// arrival order.
	s.pump = worker.NewPump(s.eventQueue, s.engine, worker.WithLogger(s.logger))
	s.pump.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "submission queue service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("pageSize", s.pageSize),
	)

	return nil
}

// Stop gracefully shuts down the service. The pump drains first so buffered
// events score before the engine and store go away; an open session is ended
// administratively by the engine.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping submission queue service...")

	if s.pump != nil {
		if err := s.pump.Shutdown(ctx); err != nil {
			s.logger.Error(ctx, "event pump shutdown", logger.Error(err))
		}
	}

	if s.resolver != nil {
		s.resolver.Close()
	}

	if s.coordinator != nil {
		if err := s.coordinator.Stop(ctx); err != nil {
			s.logger.Error(ctx, "refresh coordinator stop", logger.Error(err))
		}
	}

	if s.engine != nil {
		if err := s.engine.Stop(ctx); err != nil {
			s.logger.Error(ctx, "engine stop", logger.Error(err))
		}
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error(ctx, "closing store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "submission queue service stopped")
}

// queueChanged forwards repository change notifications to the refresh
// coordinator. The store is built before the coordinator exists, so the
// indirection covers the window where notifications have nowhere to go.
func (s *Service) queueChanged(tiers ...model.Tier) {
	s.notifyMu.RLock()
	c := s.coordinator
	s.notifyMu.RUnlock()

	if c != nil {
		c.QueueChanged(tiers...)
	}
}

// summaryChannel resolves the session-summary destination from settings at
// emit time, so a changed setting applies without a restart.
func (s *Service) summaryChannel(ctx context.Context) string {
	value, _ := s.settings.Get(ctx, settings.KeySummaryChannel)
	return value
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":    s.started,
		"queueSize":  s.queueSize,
		"dedupeSize": s.dedupeSize,
		"pageSize":   s.pageSize,
	}

	if s.started {
		queueLen := s.eventQueue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["dedupeLength"] = s.deduper.Size()

		_, open := s.engine.Session()
		stats["sessionOpen"] = open

		if counts, err := s.store.TierCounts(ctx); err == nil {
			tiers := make(map[string]int, len(counts))
			total := 0
			for tier, count := range counts {
				tiers[tier.String()] = count
				total += count
				metrics.UpdateTierSize(tier.String(), count)
			}
			stats["tiers"] = tiers
			stats["totalSubmissions"] = total
		}

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
