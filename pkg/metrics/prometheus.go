// Package metrics provides Prometheus metrics for the eblviz service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Estimator
	estimatesComputed *prometheus.CounterVec
	estimateValue     *prometheus.GaugeVec

	// Histogram renderer
	histogramRenders        *prometheus.CounterVec
	histogramRenderDuration prometheus.Histogram
	histogramBins           prometheus.Gauge
	markerSkipped           prometheus.Counter

	// Dataset
	datasetRecords    prometheus.Gauge
	datasetDropped    prometheus.Gauge
	datasetLoadErrors *prometheus.CounterVec
	datasetLoadTime   prometheus.Histogram

	// Animation
	animationLoopsStarted  prometheus.Counter
	animationLoopsActive   prometheus.Gauge
	animationFrames        prometheus.Counter
	animationSeverity      prometheus.Gauge
	animationParticleCount prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure replaces the global manager with one built from opts on a fresh
// registry, so /healthz exposes only the reconfigured collectors. Call it at
// startup, before anything records. Invalid names or labels leave the current
// manager in place and return ErrConfigure.
func Configure(opts ...Option) (err error) {
	registry := prometheus.NewRegistry()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrConfigure, r)
		}
	}()
	m := NewManager(append(opts, WithPrometheusRegistry(registry))...)
	globalManager = m
	customRegistry = registry
	return nil
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "eblviz",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.estimatesComputed = auto.NewCounterVec(
		m.counterOpts("estimates_computed_total", "Number of blood-loss estimates computed, by weight table"),
		[]string{"table"},
	)
	m.estimateValue = auto.NewGaugeVec(
		m.gaugeOpts("estimate_milliliters", "Most recent estimate in mL, by weight table"),
		[]string{"table"},
	)

	m.histogramRenders = auto.NewCounterVec(
		m.counterOpts("histogram_renders_total", "Number of histogram renders, by output format"),
		[]string{"format"},
	)
	m.histogramRenderDuration = auto.NewHistogram(
		m.histogramOpts("histogram_render_duration_milliseconds", "Histogram layout and paint time in milliseconds", m.histogramBuckets),
	)
	m.histogramBins = auto.NewGauge(m.gaugeOpts("histogram_bins", "Number of bins in the last rendered histogram"))
	m.markerSkipped = auto.NewCounter(m.counterOpts("histogram_marker_skipped_total", "Renders where the estimate marker was omitted because the estimate was not a number"))

	m.datasetRecords = auto.NewGauge(m.gaugeOpts("dataset_records", "Records in the loaded patient dataset"))
	m.datasetDropped = auto.NewGauge(m.gaugeOpts("dataset_records_dropped", "Records dropped at load for lacking a numeric measured value"))
	m.datasetLoadErrors = auto.NewCounterVec(
		m.counterOpts("dataset_load_errors_total", "Dataset load failures, by reason"),
		[]string{"reason"},
	)
	m.datasetLoadTime = auto.NewHistogram(
		m.histogramOpts("dataset_load_duration_milliseconds", "Dataset load time in milliseconds", m.histogramBuckets),
	)

	m.animationLoopsStarted = auto.NewCounter(m.counterOpts("animation_loops_started_total", "Animation loops started"))
	m.animationLoopsActive = auto.NewGauge(m.gaugeOpts("animation_loops_active", "Animation loops currently running"))
	m.animationFrames = auto.NewCounter(m.counterOpts("animation_frames_total", "Animation frames stepped"))
	m.animationSeverity = auto.NewGauge(m.gaugeOpts("animation_severity", "Current animation severity in [0,1]"))
	m.animationParticleCount = auto.NewGauge(m.gaugeOpts("animation_particles", "Particles in the animation field"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by HTTP endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordEstimate counts an estimate computed with the named table and keeps its value.
func RecordEstimate(table string, value float64) {
	globalManager.estimatesComputed.WithLabelValues(table).Inc()
	globalManager.estimateValue.WithLabelValues(table).Set(value)
}

// RecordHistogramRender counts a render in the given format ("json", "svg").
func RecordHistogramRender(format string, durationMs float64, bins int) {
	globalManager.histogramRenders.WithLabelValues(format).Inc()
	globalManager.histogramRenderDuration.Observe(durationMs)
	globalManager.histogramBins.Set(float64(bins))
}

// RecordMarkerSkipped counts a render without estimate marker.
func RecordMarkerSkipped() {
	globalManager.markerSkipped.Inc()
}

// UpdateDatasetRecords sets the loaded and dropped record counts.
func UpdateDatasetRecords(loaded, dropped int) {
	globalManager.datasetRecords.Set(float64(loaded))
	globalManager.datasetDropped.Set(float64(dropped))
}

// RecordDatasetLoadError counts a dataset load failure.
func RecordDatasetLoadError(reason string) {
	globalManager.datasetLoadErrors.WithLabelValues(reason).Inc()
}

// RecordDatasetLoadDuration records how long a dataset load took.
func RecordDatasetLoadDuration(durationMs float64) {
	globalManager.datasetLoadTime.Observe(durationMs)
}

// RecordAnimationLoopStarted counts a started loop and raises the active gauge.
func RecordAnimationLoopStarted() {
	globalManager.animationLoopsStarted.Inc()
	globalManager.animationLoopsActive.Inc()
}

// RecordAnimationLoopStopped lowers the active loop gauge.
func RecordAnimationLoopStopped() {
	globalManager.animationLoopsActive.Dec()
}

// RecordAnimationFrame counts a stepped frame.
func RecordAnimationFrame() {
	globalManager.animationFrames.Inc()
}

// UpdateAnimationSeverity sets the severity gauge.
func UpdateAnimationSeverity(severity float64) {
	globalManager.animationSeverity.Set(severity)
}

// UpdateAnimationParticles sets the particle count gauge.
func UpdateAnimationParticles(count int) {
	globalManager.animationParticleCount.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error on an HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystemMemoryUsage sets allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
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
