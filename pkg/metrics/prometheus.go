// Package metrics provides Prometheus metrics for the estatecamp service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default bucket layouts. Latencies are recorded in milliseconds; a
// likelihood lies in [0,1].
//
//nolint:gochecknoglobals // fixed bucket layouts
var (
	defaultLatencyBuckets    = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}
	defaultLikelihoodBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
)

// Manager manages all Prometheus metrics for the estatecamp service.
type Manager struct {
	namespace         string
	subsystem         string
	histogramBuckets  []float64
	likelihoodBuckets []float64
	constLabels       prometheus.Labels
	registry          prometheus.Registerer

	// Scoring
	predictions          *prometheus.CounterVec
	predictedLikelihood  prometheus.Histogram
	scoringLatency       prometheus.Histogram
	scoringErrors        prometheus.Counter
	predictionsPersisted prometheus.Counter
	persistErrors        prometheus.Counter
	jobsDuplicate        prometheus.Counter

	// Campaign content
	leadsImported     prometheus.Counter
	leadsImportSkip   *prometheus.CounterVec
	assetsUploaded    *prometheus.CounterVec
	exportsRendered   *prometheus.CounterVec
	totalLeads        prometheus.Gauge
	rateLimitRejected *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
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
		namespace:         "estatecamp",
		subsystem:         "leads",
		histogramBuckets:  defaultLatencyBuckets,
		likelihoodBuckets: defaultLikelihoodBuckets,
		constLabels:       prometheus.Labels{},
		registry:          prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place to declare every series
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(
		m.counterOpts("predictions_total", "Total number of lead predictions by buyer segment"),
		[]string{"segment"},
	)
	m.predictedLikelihood = auto.NewHistogram(
		m.histogramOpts("predicted_likelihood", "Distribution of predicted conversion likelihoods", m.likelihoodBuckets),
	)
	m.scoringLatency = auto.NewHistogram(
		m.histogramOpts("scoring_latency_milliseconds", "Histogram of scoring latency in milliseconds", m.histogramBuckets),
	)
	m.scoringErrors = auto.NewCounter(
		m.counterOpts("scoring_errors_total", "Total number of scoring attempts that did not produce a prediction"),
	)
	m.predictionsPersisted = auto.NewCounter(
		m.counterOpts("predictions_persisted_total", "Total number of predictions written back to lead records"),
	)
	m.persistErrors = auto.NewCounter(
		m.counterOpts("persist_errors_total", "Total number of failed prediction writes"),
	)
	m.jobsDuplicate = auto.NewCounter(
		m.counterOpts("jobs_duplicate_total", "Total number of duplicate score jobs dropped"),
	)

	m.leadsImported = auto.NewCounter(
		m.counterOpts("imported_total", "Total number of leads created from spreadsheet imports"),
	)
	m.leadsImportSkip = auto.NewCounterVec(
		m.counterOpts("import_skipped_total", "Total number of spreadsheet rows skipped by reason"),
		[]string{"reason"},
	)
	m.assetsUploaded = auto.NewCounterVec(
		m.counterOpts("assets_uploaded_total", "Total number of creative assets uploaded by media type"),
		[]string{"type"},
	)
	m.exportsRendered = auto.NewCounterVec(
		m.counterOpts("exports_rendered_total", "Total number of campaign plans exported by format"),
		[]string{"format"},
	)
	m.totalLeads = auto.NewGauge(
		m.gaugeOpts("total", "Total number of lead records known to the service"),
	)
	m.rateLimitRejected = auto.NewCounterVec(
		m.counterOpts("rate_limited_total", "Total number of requests rejected by the rate limiter"),
		[]string{"endpoint"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current size of the score job queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum queue capacity"))
	m.queueUtilization = auto.NewGauge(
		m.gaugeOpts("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)"),
	)
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of jobs enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Total number of enqueue errors"))
	m.queueProcessingLatency = auto.NewHistogram(
		m.histogramOpts("queue_processing_latency_milliseconds", "Queue processing latency in milliseconds", m.histogramBuckets),
	)

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured number of score workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of workers currently processing a job"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds", m.histogramBuckets),
	)
	m.workerErrorRate = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of worker errors"))

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordPrediction counts a prediction for segment and observes its likelihood.
func RecordPrediction(segment string, likelihood float64) {
	globalManager.predictions.WithLabelValues(segment).Inc()
	globalManager.predictedLikelihood.Observe(likelihood)
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordScoringError increments the scoring errors counter.
func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// RecordPredictionPersisted increments the persisted predictions counter.
func RecordPredictionPersisted() {
	globalManager.predictionsPersisted.Inc()
}

// RecordPersistError increments the failed prediction writes counter.
func RecordPersistError() {
	globalManager.persistErrors.Inc()
}

// RecordJobDuplicate increments the duplicate score jobs counter.
func RecordJobDuplicate() {
	globalManager.jobsDuplicate.Inc()
}

// RecordLeadsImported adds n to the imported leads counter.
func RecordLeadsImported(n int) {
	globalManager.leadsImported.Add(float64(n))
}

// RecordImportSkipped adds n skipped rows for reason.
func RecordImportSkipped(reason string, n int) {
	globalManager.leadsImportSkip.WithLabelValues(reason).Add(float64(n))
}

// RecordAssetUploaded counts an uploaded creative asset.
func RecordAssetUploaded(mediaType string) {
	globalManager.assetsUploaded.WithLabelValues(mediaType).Inc()
}

// RecordExportRendered counts a rendered campaign plan.
func RecordExportRendered(format string) {
	globalManager.exportsRendered.WithLabelValues(format).Inc()
}

// UpdateTotalLeads sets the total lead count.
func UpdateTotalLeads(count int) {
	globalManager.totalLeads.Set(float64(count))
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimitRejected.WithLabelValues(endpoint).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
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

// RecordQueueProcessingLatency records the time a job spent from enqueue to completion.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
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

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

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
