// Package metrics provides Prometheus metrics for the submission queue service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the queue service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Queue Lifecycle Metrics - What really matters for a submission queue
	submissionsCreated prometheus.Counter
	submissionsRemoved prometheus.Counter
	tierMoves          *prometheus.CounterVec
	takeNextTotal      prometheus.Counter
	takeNextEmpty      prometheus.Counter
	giftRewards        prometheus.Counter
	tierSize           *prometheus.GaugeVec

	// Event Pipeline Metrics
	eventsProcessed prometheus.Counter
	eventsDuplicate prometheus.Counter
	eventsDiscarded *prometheus.CounterVec
	scoringLatency  prometheus.Histogram

	// Session Metrics
	sessionOpen    prometheus.Gauge
	sessionsTotal  prometheus.Counter
	watchedHandles prometheus.Gauge

	// Event Queue Metrics - Ingest buffer performance
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueLatency       prometheus.Histogram

	// Worker Metrics - Pump performance
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Store Metrics
	storeWriteLatency prometheus.Histogram
	storeReadLatency  prometheus.Histogram

	// Refresh Metrics - Display publication health
	publishTotal    prometheus.Counter
	publishFailures *prometheus.CounterVec
	publishLatency  prometheus.Histogram
	dirtySurfaces   prometheus.Gauge
	reconcileRuns   prometheus.Counter
	pointersCleared prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics - Detailed error tracking
	errorsByComponent *prometheus.CounterVec

	// System Metrics - Runtime health
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "luxqueue",
		subsystem:        "queue",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// A disabled manager registers into a private registry: Record* calls
	// stay valid but the configured registry never exports anything.
	reg := m.registry
	if !m.enabled {
		reg = prometheus.NewRegistry()
	}
	if len(m.customLabels) > 0 {
		reg = prometheus.WrapRegistererWith(prometheus.Labels(m.customLabels), reg)
	}
	if m.metricPrefix != "" {
		reg = prometheus.WrapRegistererWithPrefix(m.metricPrefix, reg)
	}
	auto := promauto.With(reg)

	// Queue Lifecycle Metrics
	m.submissionsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_created_total",
		Help:      "Total number of submissions accepted into the queue",
	})

	m.submissionsRemoved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_removed_total",
		Help:      "Total number of submissions removed from the queue",
	})

	m.tierMoves = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "tier_moves_total",
			Help:      "Total number of tier moves by target tier",
		},
		[]string{"target"},
	)

	m.takeNextTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "take_next_total",
		Help:      "Total number of submissions dispatched to review",
	})

	m.takeNextEmpty = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "take_next_empty_total",
		Help:      "Total number of take-next calls that found no eligible submission",
	})

	m.giftRewards = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "gift_rewards_total",
		Help:      "Total number of gift-triggered tier promotions",
	})

	m.tierSize = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "tier_size",
			Help:      "Current number of submissions per tier",
		},
		[]string{"tier"},
	)

	// Event Pipeline Metrics
	m.eventsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_processed_total",
		Help:      "Total number of feed events successfully processed",
	})

	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Total number of duplicate events detected (indicates data quality)",
	})

	m.eventsDiscarded = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_discarded_total",
			Help:      "Total number of events discarded without scoring, by reason",
		},
		[]string{"reason"},
	)

	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_milliseconds",
		Help:      "Histogram of per-event scoring latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Session Metrics
	m.sessionOpen = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "session_open",
		Help:      "Whether a live session is currently open (0 or 1)",
	})

	m.sessionsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_total",
		Help:      "Total number of live sessions opened",
	})

	m.watchedHandles = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "watched_handles",
		Help:      "Number of handles with accumulated watch time this session",
	})

	// Event Queue Metrics
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_queue_size",
		Help:      "Current size of the inbound event queue (backlog indicator)",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_queue_capacity",
		Help:      "Maximum inbound event queue capacity",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_queue_utilization_ratio",
		Help:      "Event queue utilization ratio (current size / capacity)",
	})

	m.queueEnqueueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_queue_enqueue_total",
		Help:      "Total number of events enqueued",
	})

	m.queueDequeueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_queue_dequeue_total",
		Help:      "Total number of events dequeued",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_queue_enqueue_errors_total",
		Help:      "Total number of enqueue errors (queue full or closed)",
	})

	m.queueLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_queue_processing_latency_milliseconds",
		Help:      "Enqueue path latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Worker Metrics
	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Current number of event workers (processing capacity)",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Worker processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrorRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of worker errors",
	})

	// Store Metrics
	m.storeWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_write_latency_milliseconds",
		Help:      "Store mutation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeReadLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_read_latency_milliseconds",
		Help:      "Store query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Refresh Metrics
	m.publishTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_total",
		Help:      "Total number of successful display publishes",
	})

	m.publishFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "publish_failures_total",
			Help:      "Total number of failed display publishes by reason",
		},
		[]string{"reason"},
	)

	m.publishLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_latency_milliseconds",
		Help:      "Display publish latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.dirtySurfaces = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dirty_surfaces",
		Help:      "Number of display surfaces awaiting a refresh",
	})

	m.reconcileRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_runs_total",
		Help:      "Total number of view pointer reconciliation passes",
	})

	m.pointersCleared = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pointers_cleared_total",
		Help:      "Total number of view pointers invalidated (target gone)",
	})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds (user experience)",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Error Metrics
	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	// System Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Queue Lifecycle Metrics Functions.

// RecordSubmissionCreated increments the submissions created counter.
func RecordSubmissionCreated() {
	globalManager.submissionsCreated.Inc()
}

// RecordSubmissionRemoved increments the submissions removed counter.
func RecordSubmissionRemoved() {
	globalManager.submissionsRemoved.Inc()
}

// RecordTierMove increments the tier move counter for a target tier.
func RecordTierMove(target string) {
	globalManager.tierMoves.WithLabelValues(target).Inc()
}

// RecordTakeNext increments the dispatched-submission counter.
func RecordTakeNext() {
	globalManager.takeNextTotal.Inc()
}

// RecordTakeNextEmpty increments the empty take-next counter.
func RecordTakeNextEmpty() {
	globalManager.takeNextEmpty.Inc()
}

// RecordGiftReward increments the gift promotion counter.
func RecordGiftReward() {
	globalManager.giftRewards.Inc()
}

// UpdateTierSize sets the current submission count for a tier.
func UpdateTierSize(tier string, count int) {
	globalManager.tierSize.WithLabelValues(tier).Set(float64(count))
}

// Event Pipeline Metrics Functions.

// RecordEventProcessed increments the events processed counter.
func RecordEventProcessed() {
	globalManager.eventsProcessed.Inc()
}

// RecordEventDuplicate increments the duplicate events counter.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// RecordEventDiscarded increments the discarded events counter for a reason.
func RecordEventDiscarded(reason string) {
	globalManager.eventsDiscarded.WithLabelValues(reason).Inc()
}

// RecordScoringLatency records per-event scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// Session Metrics Functions.

// UpdateSessionOpen sets whether a live session is open.
func UpdateSessionOpen(open bool) {
	if open {
		globalManager.sessionOpen.Set(1)
		return
	}
	globalManager.sessionOpen.Set(0)
}

// RecordSessionStarted increments the sessions counter.
func RecordSessionStarted() {
	globalManager.sessionsTotal.Inc()
}

// UpdateWatchedHandles sets the size of the current watch presence set.
func UpdateWatchedHandles(count int) {
	globalManager.watchedHandles.Set(float64(count))
}

// Event Queue Metrics Functions.

// UpdateQueueSize sets the current event queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum event queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the event queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records enqueue path latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueLatency.Observe(latencyMs)
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// Store Metrics Functions.

// RecordStoreWriteLatency records store mutation latency.
func RecordStoreWriteLatency(latencyMs float64) {
	globalManager.storeWriteLatency.Observe(latencyMs)
}

// RecordStoreReadLatency records store query latency.
func RecordStoreReadLatency(latencyMs float64) {
	globalManager.storeReadLatency.Observe(latencyMs)
}

// Refresh Metrics Functions.

// RecordPublish increments the successful publish counter.
func RecordPublish() {
	globalManager.publishTotal.Inc()
}

// RecordPublishFailure increments the publish failure counter for a reason.
func RecordPublishFailure(reason string) {
	globalManager.publishFailures.WithLabelValues(reason).Inc()
}

// RecordPublishLatency records display publish latency.
func RecordPublishLatency(latencyMs float64) {
	globalManager.publishLatency.Observe(latencyMs)
}

// UpdateDirtySurfaces sets the number of surfaces awaiting refresh.
func UpdateDirtySurfaces(count int) {
	globalManager.dirtySurfaces.Set(float64(count))
}

// RecordReconcileRun increments the reconciliation pass counter.
func RecordReconcileRun() {
	globalManager.reconcileRuns.Inc()
}

// RecordPointerCleared increments the invalidated pointer counter.
func RecordPointerCleared() {
	globalManager.pointersCleared.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
