package easyrequester

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the request lifecycle and
// the admission coordinators. It is safe for concurrent use, and every
// method is a no-op on a nil receiver.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	queueDepth *prometheus.GaugeVec
	queueWait  *prometheus.HistogramVec

	supersessionsTotal *prometheus.CounterVec
	trackerEntries     *prometheus.GaugeVec

	rateLimitWait *prometheus.HistogramVec

	errorsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using supplied registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	mc := &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "easyrequester_requests_total",
				Help: "Total number of requests by terminal outcome",
			},
			[]string{"method", "outcome", "status_code", "endpoint"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "easyrequester_request_duration_seconds",
				Help:    "Duration of request execution in seconds, excluding queue wait",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "outcome", "endpoint"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "easyrequester_requests_in_flight",
				Help: "Number of requests currently executing",
			},
			[]string{"method", "endpoint"},
		),
		queueDepth: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "easyrequester_queue_depth",
				Help: "Number of requests waiting in the sequential queue",
			},
			[]string{"name"},
		),
		queueWait: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "easyrequester_queue_wait_seconds",
				Help:    "Time requests spent waiting in the sequential queue",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		supersessionsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "easyrequester_supersessions_total",
				Help: "Total number of pending requests cancelled by a newer request",
			},
			[]string{"endpoint"},
		),
		trackerEntries: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "easyrequester_tracker_entries",
				Help: "Number of URLs with a pending request in abort-previous mode",
			},
			[]string{"name"},
		),
		rateLimitWait: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "easyrequester_rate_limit_wait_seconds",
				Help:    "Time spent waiting on the client-side rate limiter",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "easyrequester_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type", "method", "endpoint"},
		),
	}
	if reg, ok := registry.(*prometheus.Registry); ok {
		mc.registry = reg
	}

	return mc
}

// RecordRequest records a terminal outcome with its execution duration.
func (mc *MetricsCollector) RecordRequest(method, endpoint string, outcome OutcomeKind, statusCode int, duration time.Duration) {
	if mc == nil {
		return
	}

	statusCodeStr := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(method, outcome.String(), statusCodeStr, endpoint).Inc()
	mc.requestDuration.WithLabelValues(method, outcome.String(), endpoint).Observe(duration.Seconds())
}

// RecordRequestStart increments in-flight gauge.
func (mc *MetricsCollector) RecordRequestStart(method, endpoint string) {
	if mc == nil {
		return
	}

	mc.requestsInFlight.WithLabelValues(method, endpoint).Inc()
}

// RecordRequestEnd decrements in-flight gauge.
func (mc *MetricsCollector) RecordRequestEnd(method, endpoint string) {
	if mc == nil {
		return
	}

	mc.requestsInFlight.WithLabelValues(method, endpoint).Dec()
}

// RecordQueueDepth sets the number of queued requests.
func (mc *MetricsCollector) RecordQueueDepth(name string, depth int) {
	if mc == nil {
		return
	}

	mc.queueDepth.WithLabelValues(name).Set(float64(depth))
}

// RecordQueueWait observes how long a request waited before executing.
func (mc *MetricsCollector) RecordQueueWait(method, endpoint string, wait time.Duration) {
	if mc == nil {
		return
	}

	mc.queueWait.WithLabelValues(method, endpoint).Observe(wait.Seconds())
}

// RecordSupersession increments the supersession counter.
func (mc *MetricsCollector) RecordSupersession(endpoint string) {
	if mc == nil {
		return
	}

	mc.supersessionsTotal.WithLabelValues(endpoint).Inc()
}

// RecordTrackerEntries sets the number of live tracker entries.
func (mc *MetricsCollector) RecordTrackerEntries(name string, entries int) {
	if mc == nil {
		return
	}

	mc.trackerEntries.WithLabelValues(name).Set(float64(entries))
}

// RecordRateLimitWait observes time spent waiting for a limiter token.
func (mc *MetricsCollector) RecordRateLimitWait(endpoint string, wait time.Duration) {
	if mc == nil {
		return
	}

	mc.rateLimitWait.WithLabelValues(endpoint).Observe(wait.Seconds())
}

// RecordError increments error counter by type.
func (mc *MetricsCollector) RecordError(errorType, method, endpoint string) {
	if mc == nil {
		return
	}

	mc.errorsTotal.WithLabelValues(errorType, method, endpoint).Inc()
}

// GetRegistry exposes the underlying prometheus registry. It is nil when the
// collector was built on a registerer that is not a *prometheus.Registry.
func (mc *MetricsCollector) GetRegistry() *prometheus.Registry {
	if mc == nil {
		return nil
	}
	return mc.registry
}
