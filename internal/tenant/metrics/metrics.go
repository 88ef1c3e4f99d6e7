package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tenant module. Client resolution is
// on the ingestion critical path, so its latency is tracked.
type Metrics struct {
	ClientsCreated         prometheus.Counter
	ProfilesCreated        prometheus.Counter
	ResolveClientDuration  prometheus.Histogram
	ResolveProfileDuration prometheus.Histogram
}

// New creates a Metrics instance with all tenant module metrics registered.
func New() *Metrics {
	return &Metrics{
		ClientsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vacmetrics_clients_created_total",
			Help: "Total number of clients created",
		}),
		ProfilesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vacmetrics_profiles_created_total",
			Help: "Total number of profiles created",
		}),
		ResolveClientDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vacmetrics_resolve_client_duration_seconds",
			Help:    "Duration of ResolveClient operations (ingestion critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ResolveProfileDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vacmetrics_resolve_profile_duration_seconds",
			Help:    "Duration of ResolveProfile operations (ingestion critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementClientsCreated records a successful client creation.
func (m *Metrics) IncrementClientsCreated() { m.ClientsCreated.Inc() }

// IncrementProfilesCreated records a successful profile creation.
func (m *Metrics) IncrementProfilesCreated() { m.ProfilesCreated.Inc() }

// ObserveResolveClient records the duration of a ResolveClient operation.
func (m *Metrics) ObserveResolveClient(start time.Time) {
	m.ResolveClientDuration.Observe(time.Since(start).Seconds())
}

// ObserveResolveProfile records the duration of a ResolveProfile operation.
func (m *Metrics) ObserveResolveProfile(start time.Time) {
	m.ResolveProfileDuration.Observe(time.Since(start).Seconds())
}
