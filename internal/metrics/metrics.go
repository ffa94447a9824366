// Package metrics holds the Prometheus collectors for import runs.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Row results.
const (
	RowAccepted = "accepted"
	RowRejected = "rejected"
	RowFailed   = "failed"
)

type metrics struct {
	rowsTotal *prometheus.CounterVec
	runsTotal *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		rowsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrportal",
			Name:      "import_rows_total",
			Help:      "Rows seen by the import pipeline, by outcome.",
		}, []string{"format", "result"}),
		runsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrportal",
			Name:      "import_runs_total",
			Help:      "Finalized import runs by terminal status.",
		}, []string{"format", "status"}),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hrportal",
			Name:      "import_duration_seconds",
			Help:      "Wall time spent importing one file.",
			Buckets: []float64{
				0.005, 0.01, 0.05,
				0.1, 0.25, 0.5,
				1, 2.5, 5, 10, 30,
			},
		}, []string{"format"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}

// ObserveRows adds n rows with the given outcome.
func ObserveRows(format, result string, n int) {
	if n <= 0 {
		return
	}
	getMetrics().rowsTotal.WithLabelValues(format, result).Add(float64(n))
}

// ObserveRun records a finalized run and its duration.
func ObserveRun(format, status string, elapsed time.Duration) {
	m := getMetrics()
	m.runsTotal.WithLabelValues(format, status).Inc()
	m.duration.WithLabelValues(format).Observe(elapsed.Seconds())
}
