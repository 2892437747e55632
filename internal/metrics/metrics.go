package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all Prometheus collectors for the SocialSync client.
type Metrics struct {
	registry *prometheus.Registry

	// API client.
	APIRequestsTotal      *prometheus.CounterVec
	APIRequestDuration    *prometheus.HistogramVec
	APINetworkErrorsTotal *prometheus.CounterVec
	BackendReachable      prometheus.Gauge

	// Client-side throttling.
	RateLimitRejectionsTotal *prometheus.CounterVec

	// Data service fallback.
	FallbackOperationsTotal *prometheus.CounterVec

	// OAuth bridge.
	OAuthFlowsTotal *prometheus.CounterVec
	OAuthPending    prometheus.Gauge

	// Analytics event recorder.
	EventsBufferSize    prometheus.Gauge
	EventsFlushesTotal  *prometheus.CounterVec
	EventsRecordedTotal prometheus.Counter

	StartTime prometheus.Gauge
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		APIRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialsync_api_requests_total",
			Help: "Total number of API requests that received a response.",
		}, []string{"method", "route", "status_code"}),

		APIRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "socialsync_api_request_duration_seconds",
			Help:    "API request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		APINetworkErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialsync_api_network_errors_total",
			Help: "Total number of API calls that produced no usable response, by error kind.",
		}, []string{"route", "kind"}),

		BackendReachable: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "socialsync_backend_reachable",
			Help: "1 if the last health probe succeeded, 0 otherwise.",
		}),

		RateLimitRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialsync_ratelimit_rejections_total",
			Help: "Total number of requests refused by the client-side rate limiter.",
		}, []string{"host"}),

		FallbackOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialsync_fallback_operations_total",
			Help: "Total number of operations served from local storage.",
		}, []string{"operation"}),

		OAuthFlowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialsync_oauth_flows_total",
			Help: "Total number of finished OAuth flows by outcome.",
		}, []string{"platform", "outcome"}),

		OAuthPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "socialsync_oauth_pending",
			Help: "Number of OAuth flows awaiting authorization.",
		}),

		EventsBufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "socialsync_events_buffer_size",
			Help: "Current number of buffered analytics events.",
		}),

		EventsFlushesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialsync_events_flushes_total",
			Help: "Total number of analytics event flushes.",
		}, []string{"status"}),

		EventsRecordedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "socialsync_events_recorded_total",
			Help: "Total number of analytics events recorded.",
		}),

		StartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "socialsync_start_time_seconds",
			Help: "Unix timestamp when the process started.",
		}),
	}

	reg.MustRegister(
		m.APIRequestsTotal,
		m.APIRequestDuration,
		m.APINetworkErrorsTotal,
		m.BackendReachable,
		m.RateLimitRejectionsTotal,
		m.FallbackOperationsTotal,
		m.OAuthFlowsTotal,
		m.OAuthPending,
		m.EventsBufferSize,
		m.EventsFlushesTotal,
		m.EventsRecordedTotal,
		m.StartTime,
	)

	m.StartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one API round trip.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.APIRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncNetworkError counts an API call that never got a usable response.
func (m *Metrics) IncNetworkError(route, kind string) {
	m.APINetworkErrorsTotal.WithLabelValues(route, kind).Inc()
}

// SetBackendReachable records the outcome of the latest health probe.
func (m *Metrics) SetBackendReachable(ok bool) {
	if ok {
		m.BackendReachable.Set(1)
		return
	}
	m.BackendReachable.Set(0)
}

// IncRateLimitRejection counts a request refused by the client limiter.
func (m *Metrics) IncRateLimitRejection(host string) {
	m.RateLimitRejectionsTotal.WithLabelValues(host).Inc()
}

// IncFallback counts an operation served from local storage.
func (m *Metrics) IncFallback(operation string) {
	m.FallbackOperationsTotal.WithLabelValues(operation).Inc()
}

// OAuthStarted marks a flow as awaiting authorization.
func (m *Metrics) OAuthStarted() {
	m.OAuthPending.Inc()
}

// OAuthFinished records a flow's terminal outcome.
func (m *Metrics) OAuthFinished(platform, outcome string) {
	m.OAuthPending.Dec()
	m.OAuthFlowsTotal.WithLabelValues(platform, outcome).Inc()
}

// EventRecorded counts a buffered analytics event.
func (m *Metrics) EventRecorded(buffered int) {
	m.EventsRecordedTotal.Inc()
	m.EventsBufferSize.Set(float64(buffered))
}

// EventsFlushed records a flush attempt and the buffer size after it.
func (m *Metrics) EventsFlushed(err error, buffered int) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EventsFlushesTotal.WithLabelValues(status).Inc()
	m.EventsBufferSize.Set(float64(buffered))
}
