package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the reference module.
type Metrics struct {
	CacheHits         *prometheus.CounterVec
	CacheMisses       *prometheus.CounterVec
	PendingCreated    *prometheus.CounterVec
	ResolveDuration   *prometheus.HistogramVec
	CacheInvalidation prometheus.Counter
}

// New creates a Metrics instance with all reference module metrics registered.
func New() *Metrics {
	return &Metrics{
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vacmetrics_reference_cache_hits_total",
			Help: "Reference resolution cache hits by entity",
		}, []string{"entity"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vacmetrics_reference_cache_misses_total",
			Help: "Reference resolution cache misses by entity",
		}, []string{"entity"}),
		PendingCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vacmetrics_reference_pending_created_total",
			Help: "Pending (inactive) reference rows created by non-strict resolution",
		}, []string{"entity"}),
		ResolveDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vacmetrics_reference_resolve_duration_seconds",
			Help:    "Duration of reference resolution calls",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"entity"}),
		CacheInvalidation: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vacmetrics_reference_cache_invalidations_total",
			Help: "Reference cache version bumps triggered by reference writes",
		}),
	}
}

// RecordCacheHit records a cache hit for the given entity.
func (m *Metrics) RecordCacheHit(entity string) {
	m.CacheHits.WithLabelValues(entity).Inc()
}

// RecordCacheMiss records a cache miss for the given entity.
func (m *Metrics) RecordCacheMiss(entity string) {
	m.CacheMisses.WithLabelValues(entity).Inc()
}

// RecordPendingCreated records creation of a pending reference row.
func (m *Metrics) RecordPendingCreated(entity string) {
	m.PendingCreated.WithLabelValues(entity).Inc()
}

// ObserveResolve records the duration of a resolution call.
func (m *Metrics) ObserveResolve(entity string, start time.Time) {
	m.ResolveDuration.WithLabelValues(entity).Observe(time.Since(start).Seconds())
}

// RecordInvalidation records a cache version bump.
func (m *Metrics) RecordInvalidation() {
	m.CacheInvalidation.Inc()
}
