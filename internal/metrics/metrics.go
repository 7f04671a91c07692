package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the HTTP and business collectors. All methods are nil-safe so
// services can run without metrics in tests.
type Metrics struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec

	AuthzDenials     *prometheus.CounterVec
	Registrations    *prometheus.CounterVec
	Applications     *prometheus.CounterVec
	SoftDeletes      *prometheus.CounterVec
	AuditPublishFail prometheus.Counter
}

// New registers every collector on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vlab_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vlab_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),

		AuthzDenials: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vlab_authorization_denials_total",
			Help: "Policy denials by resource and action",
		}, []string{"resource", "action"}),

		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vlab_registrations_total",
			Help: "Completed registrations by role",
		}, []string{"role"}),

		Applications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vlab_applications_total",
			Help: "Application submissions by outcome",
		}, []string{"outcome"}),

		SoftDeletes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vlab_soft_deletes_total",
			Help: "Soft deletes by entity",
		}, []string{"entity"}),

		AuditPublishFail: f.NewCounter(prometheus.CounterOpts{
			Name: "vlab_audit_publish_failures_total",
			Help: "Audit events that could not be published",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
}

func (m *Metrics) IncDenial(resource, action string) {
	if m != nil {
		m.AuthzDenials.WithLabelValues(resource, action).Inc()
	}
}

func (m *Metrics) IncRegistration(role string) {
	if m != nil {
		m.Registrations.WithLabelValues(role).Inc()
	}
}

func (m *Metrics) IncApplication(outcome string) {
	if m != nil {
		m.Applications.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncSoftDelete(entity string) {
	if m != nil {
		m.SoftDeletes.WithLabelValues(entity).Inc()
	}
}

func (m *Metrics) IncAuditFailure() {
	if m != nil {
		m.AuditPublishFail.Inc()
	}
}
