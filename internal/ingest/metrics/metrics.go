package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks batch ingestion throughput and per-record outcomes.
type Metrics struct {
	RecordsProcessed *prometheus.CounterVec
	BatchDuration    prometheus.Histogram
	BatchSize        prometheus.Histogram
	DegradedRecords  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RecordsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vacmetrics_ingest_records_total",
			Help: "Ingested records by outcome (created, updated, rejected).",
		}, []string{"outcome"}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vacmetrics_ingest_batch_duration_seconds",
			Help:    "Wall time to process one ingestion batch.",
			Buckets: prometheus.DefBuckets,
		}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vacmetrics_ingest_batch_size",
			Help:    "Number of records per ingestion batch.",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
		}),
		DegradedRecords: factory.NewCounter(prometheus.CounterOpts{
			Name: "vacmetrics_ingest_degraded_records_total",
			Help: "Records stored without resolved canonical geography.",
		}),
	}
}

func (m *Metrics) ObserveRecord(outcome string) {
	if m == nil {
		return
	}
	m.RecordsProcessed.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveBatch(size int, seconds float64) {
	if m == nil {
		return
	}
	m.BatchSize.Observe(float64(size))
	m.BatchDuration.Observe(seconds)
}

func (m *Metrics) ObserveDegraded() {
	if m == nil {
		return
	}
	m.DegradedRecords.Inc()
}
