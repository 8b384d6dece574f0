// Package obs holds the Prometheus collectors of the console service.
package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rejection reasons recorded by InvitationRejected.
const (
	ReasonNotFound = "not_found"
	ReasonExpired  = "expired"
	ReasonConflict = "conflict"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	invitationsCreated   prometheus.Counter
	invitationsAccepted  prometheus.Counter
	invitationsRejected  *prometheus.CounterVec
	invitationsCancelled prometheus.Counter
	invitationsPending   prometheus.Gauge
	invitationsExpired   prometheus.Gauge

	buildInfo *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		invitationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "console_invitations_created_total",
			Help: "Invitations created.",
		}),
		invitationsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "console_invitations_accepted_total",
			Help: "Invitations accepted.",
		}),
		invitationsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "console_invitations_rejected_total",
			Help: "Failed acceptance attempts by reason.",
		}, []string{"reason"}),
		invitationsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "console_invitations_cancelled_total",
			Help: "Invitations cancelled before acceptance.",
		}),
		invitationsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "console_invitations_pending",
			Help: "Stored invitations that can still be accepted.",
		}),
		invitationsExpired: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "console_invitations_expired",
			Help: "Stored invitations past their validity window.",
		}),

		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Console service build information.",
		}, []string{"version", "env"}),
	}

	reg.MustRegister(
		m.httpInFlight,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.invitationsCreated,
		m.invitationsAccepted,
		m.invitationsRejected,
		m.invitationsCancelled,
		m.invitationsPending,
		m.invitationsExpired,
		m.buildInfo,
	)
	return m
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// SetBuildInfo publishes build_info{version, env} 1.
func (m *Metrics) SetBuildInfo(version, env string) {
	if m == nil {
		return
	}
	m.buildInfo.WithLabelValues(version, env).Set(1)
}

func (m *Metrics) InvitationCreated() {
	if m == nil {
		return
	}
	m.invitationsCreated.Inc()
}

func (m *Metrics) InvitationAccepted() {
	if m == nil {
		return
	}
	m.invitationsAccepted.Inc()
}

func (m *Metrics) InvitationRejected(reason string) {
	if m == nil {
		return
	}
	m.invitationsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) InvitationCancelled() {
	if m == nil {
		return
	}
	m.invitationsCancelled.Inc()
}

// SetInvitationCounts replaces the pending and expired gauges.
func (m *Metrics) SetInvitationCounts(pending, expired int) {
	if m == nil {
		return
	}
	m.invitationsPending.Set(float64(pending))
	m.invitationsExpired.Set(float64(expired))
}

// Instrument measures requests to next under the route label. The route is
// the registered pattern rather than the raw path so tokens and ids stay out
// of the label set.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		status := strconv.Itoa(sw.code)
		m.httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
