package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "realm_provisioner"

// RealmMetrics holds all Prometheus metrics for the realm service.
type RealmMetrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	IdPCallsTotal       *prometheus.CounterVec
	IdPCallDuration     *prometheus.HistogramVec
	InconsistentWrites  *prometheus.CounterVec
	EventsPublished     *prometheus.CounterVec
}

// NewRealmMetrics initializes the metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewRealmMetrics(reg prometheus.Registerer) *RealmMetrics {
	factory := promauto.With(reg)
	return &RealmMetrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		IdPCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "idp",
			Name:      "calls_total",
			Help:      "Total number of identity provider admin calls by operation and outcome.",
		}, []string{"operation", "outcome"}), // outcome: ok, error
		IdPCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "idp",
			Name:      "call_duration_seconds",
			Help:      "Identity provider admin call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		InconsistentWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realm",
			Name:      "inconsistent_writes_total",
			Help:      "Writes that reached the identity provider but failed locally.",
		}, []string{"operation"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Realm lifecycle events by publish status.",
		}, []string{"status"}),
	}
}
