package observability

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	LoginAttemptsTotal    *prometheus.CounterVec // outcome: success|failure|rate_limited
	ResolutionsTotal      *prometheus.CounterVec // source: session|certificate|none
	PasswordHashDuration  prometheus.Histogram
	PasswordChangesTotal  *prometheus.CounterVec // outcome: success|denied|failure

	// Authorization metrics
	AuthzDecisionsTotal *prometheus.CounterVec // decision: allow|deny|not_found

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	// Audit metrics
	AuditEventsTotal *prometheus.CounterVec // event_type

	registry *prometheus.Registry
}

// NewMetrics creates and registers all metrics with the given registry
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "organizator_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "organizator_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "organizator_login_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "organizator_security_resolutions_total",
				Help: "Security context resolutions by credential source",
			},
			[]string{"source"},
		),
		PasswordHashDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "organizator_password_hash_duration_seconds",
				Help:    "PBKDF2 derivation and verification latency",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
			},
		),
		PasswordChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "organizator_password_changes_total",
				Help: "Password change requests by outcome",
			},
			[]string{"outcome"},
		),
		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "organizator_authz_decisions_total",
				Help: "Authorization gate decisions",
			},
			[]string{"decision"},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "organizator_db_connections_active",
				Help: "Active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "organizator_db_connections_idle",
				Help: "Idle database connections",
			},
		),
		AuditEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "organizator_audit_events_total",
				Help: "Audit events recorded, by event type",
			},
			[]string{"event_type"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginAttemptsTotal,
		m.ResolutionsTotal,
		m.PasswordHashDuration,
		m.PasswordChangesTotal,
		m.AuthzDecisionsTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.AuditEventsTotal,
	)

	return m
}

// Handler returns the /metrics HTTP handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CollectDBStats copies connection pool stats into the DB gauges.
// Intended to run on a ticker.
func (m *Metrics) CollectDBStats(db *sql.DB) {
	stats := db.Stats()
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}
