// Package metrics provides Prometheus metrics for the sideline session service.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the sideline service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Session metrics
	commandsApplied   *prometheus.CounterVec
	commandsDuplicate prometheus.Counter
	commandLatency    prometheus.Histogram
	swaps             prometheus.Counter
	logLines          *prometheus.CounterVec
	clockTicks        prometheus.Counter
	clockStaleTicks   prometheus.Counter
	clockRunning      prometheus.Gauge
	clockElapsed      prometheus.Gauge
	reportsSent       *prometheus.CounterVec
	observers         prometheus.Gauge

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "sideline",
		subsystem:        "session",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval returns how often gauge updaters should run.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Enabled reports whether metrics collection is on.
func (m *Manager) Enabled() bool { return m.enabled.Load() }

// Configure applies options to the global manager. Only WithMetricsEnabled
// and WithRefreshInterval take effect here; naming and registry options are
// fixed once the metrics are registered.
func Configure(opts ...Option) {
	for _, opt := range opts {
		opt(globalManager)
	}
}

// Enabled reports whether the global manager records anything.
func Enabled() bool { return globalManager.Enabled() }

// RefreshInterval returns how often gauge updaters should sample.
func RefreshInterval() time.Duration { return globalManager.RefreshInterval() }

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.commandsApplied = m.counterVec("commands_applied_total", "Commands applied by the dispatcher", "kind")
	m.commandsDuplicate = m.counter("commands_duplicate_total", "Retried commands acknowledged without being applied")
	m.commandLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "command_latency_milliseconds",
		Help:      "Time from enqueue to applied for user commands",
		Buckets:   m.histogramBuckets,
	})
	m.swaps = m.counter("swaps_total", "Completed pairwise swaps")
	m.logLines = m.counterVec("log_lines_total", "Substitution log lines recorded", "kind")
	m.clockTicks = m.counter("clock_ticks_total", "Clock ticks applied")
	m.clockStaleTicks = m.counter("clock_stale_ticks_total", "Clock ticks dropped because their run was cancelled")
	m.clockRunning = m.gauge("clock_running", "1 while the match clock is running")
	m.clockElapsed = m.gauge("clock_elapsed_seconds", "Elapsed match time in seconds")
	m.reportsSent = m.counterVec("reports_sent_total", "Match report send attempts", "result")
	m.observers = m.gauge("observers", "Connected snapshot observers")

	m.queueSize = m.gauge("queue_size", "Commands waiting for the dispatcher")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queued commands")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Commands enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Commands dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Commands rejected by the queue")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type",
		"component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type",
		"endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordCommandApplied counts an applied command of the given kind.
func RecordCommandApplied(kind string) {
	if !Enabled() {
		return
	}
	globalManager.commandsApplied.WithLabelValues(kind).Inc()
}

// RecordCommandDuplicate counts a retried command that was not re-applied.
func RecordCommandDuplicate() {
	if !Enabled() {
		return
	}
	globalManager.commandsDuplicate.Inc()
}

// RecordCommandLatency records enqueue-to-applied latency in milliseconds.
func RecordCommandLatency(latencyMs float64) {
	if !Enabled() {
		return
	}
	globalManager.commandLatency.Observe(latencyMs)
}

// RecordSwap counts a completed swap.
func RecordSwap() {
	if !Enabled() {
		return
	}
	globalManager.swaps.Inc()
}

// RecordLogLine counts a recorded log line of the given change kind.
func RecordLogLine(kind string) {
	if !Enabled() {
		return
	}
	globalManager.logLines.WithLabelValues(kind).Inc()
}

// RecordClockTick counts an applied tick.
func RecordClockTick() {
	if !Enabled() {
		return
	}
	globalManager.clockTicks.Inc()
}

// RecordStaleTick counts a tick dropped after pause or reset.
func RecordStaleTick() {
	if !Enabled() {
		return
	}
	globalManager.clockStaleTicks.Inc()
}

// UpdateClock publishes the clock state.
func UpdateClock(elapsed int, running bool) {
	if !Enabled() {
		return
	}
	globalManager.clockElapsed.Set(float64(elapsed))
	if running {
		globalManager.clockRunning.Set(1)
	} else {
		globalManager.clockRunning.Set(0)
	}
}

// RecordReportSent counts a report send attempt by result.
func RecordReportSent(result string) {
	if !Enabled() {
		return
	}
	globalManager.reportsSent.WithLabelValues(result).Inc()
}

// UpdateObservers sets the number of connected observers.
func UpdateObservers(count int) {
	if !Enabled() {
		return
	}
	globalManager.observers.Set(float64(count))
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if !Enabled() {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if !Enabled() {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if !Enabled() {
		return
	}
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if !Enabled() {
		return
	}
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if !Enabled() {
		return
	}
	globalManager.queueEnqueueErrors.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !Enabled() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !Enabled() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !Enabled() {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !Enabled() {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !Enabled() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !Enabled() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !Enabled() {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
