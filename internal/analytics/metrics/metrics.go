package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	RowsReturned  prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Queries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vacmetrics_analytics_queries_total",
			Help: "Aggregation queries by time bucket.",
		}, []string{"bucket"}),
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vacmetrics_analytics_query_duration_seconds",
			Help:    "Aggregation query latency by time bucket.",
			Buckets: prometheus.DefBuckets,
		}, []string{"bucket"}),
		RowsReturned: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vacmetrics_analytics_rows_returned",
			Help:    "Result rows per aggregation query.",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000},
		}),
	}
}

func (m *Metrics) ObserveQuery(bucket string, seconds float64, rows int) {
	if m == nil {
		return
	}
	m.Queries.WithLabelValues(bucket).Inc()
	m.QueryDuration.WithLabelValues(bucket).Observe(seconds)
	m.RowsReturned.Observe(float64(rows))
}
