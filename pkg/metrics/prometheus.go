// Package metrics provides Prometheus metrics for the placement eligibility service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Core Business Metrics
	submissions *prometheus.CounterVec
	verdicts    *prometheus.CounterVec

	// Sweep Metrics
	sweepRuns     prometheus.Counter
	sweepItems    *prometheus.CounterVec
	sweepDuration prometheus.Histogram

	// Decision event delivery
	eventsPublished *prometheus.CounterVec

	// Queue Metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker Metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Repository Metrics
	repositoryQueryLatency *prometheus.HistogramVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Metrics
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
		namespace:        "placement",
		subsystem:        "eligibility",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogram(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.submissions = auto.NewCounterVec(
		m.counter("submissions_total", "Application submissions by outcome (eligible, not_eligible, conflict, not_found, invalid, error)"),
		[]string{"outcome"},
	)
	m.verdicts = auto.NewCounterVec(
		m.counter("verdicts_total", "Eligibility verdicts computed by status"),
		[]string{"status"},
	)

	m.sweepRuns = auto.NewCounter(m.counter("sweep_runs_total", "Total number of re-evaluation sweeps"))
	m.sweepItems = auto.NewCounterVec(
		m.counter("sweep_items_total", "Sweep items by outcome (updated, failed, skipped)"),
		[]string{"outcome"},
	)
	m.sweepDuration = auto.NewHistogram(m.histogram("sweep_duration_seconds", "Wall time of a whole sweep in seconds"))

	m.eventsPublished = auto.NewCounterVec(
		m.counter("decision_events_total", "Decision events by delivery result (published, failed, dropped)"),
		[]string{"result"},
	)

	m.queueSize = auto.NewGauge(m.gauge("queue_size", "Current size of the decision event queue"))
	m.queueCapacity = auto.NewGauge(m.gauge("queue_capacity", "Maximum queue capacity"))
	m.queueEnqueueRate = auto.NewCounter(m.counter("queue_enqueue_total", "Total number of messages enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counter("queue_dequeue_total", "Total number of messages dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counter("queue_enqueue_errors_total", "Total number of enqueue errors"))

	m.workerCount = auto.NewGauge(m.gauge("worker_count", "Configured number of publisher workers"))
	m.workerActiveCount = auto.NewGauge(m.gauge("worker_active_count", "Number of running publisher workers"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogram("worker_processing_latency_milliseconds", "Time to publish one decision event in milliseconds"))
	m.workerErrorRate = auto.NewCounter(m.counter("worker_errors_total", "Total number of worker errors"))

	m.repositoryQueryLatency = auto.NewHistogramVec(
		m.histogram("repository_query_latency_milliseconds", "Repository operation latency in milliseconds"),
		[]string{"operation"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counter("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogram("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counter("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counter("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gauge("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gauge("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds"))
}

// RecordSubmission counts one submission attempt by outcome.
func RecordSubmission(outcome string) {
	globalManager.submissions.WithLabelValues(outcome).Inc()
}

// RecordVerdict counts one computed verdict.
func RecordVerdict(status string) {
	globalManager.verdicts.WithLabelValues(status).Inc()
}

// RecordSweep records a finished sweep and its duration in seconds.
func RecordSweep(durationSeconds float64) {
	globalManager.sweepRuns.Inc()
	globalManager.sweepDuration.Observe(durationSeconds)
}

// RecordSweepItem counts one sweep manifest entry by outcome.
func RecordSweepItem(outcome string) {
	globalManager.sweepItems.WithLabelValues(outcome).Inc()
}

// RecordDecisionEvent counts a decision event delivery result.
func RecordDecisionEvent(result string) {
	globalManager.eventsPublished.WithLabelValues(result).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
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

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// RecordRepositoryQueryLatency records the latency of one repository operation.
func RecordRepositoryQueryLatency(operation string, latencyMs float64) {
	globalManager.repositoryQueryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
