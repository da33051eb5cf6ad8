// Package metrics defines the service's internal Prometheus metrics,
// exposed read-only via the ops HTTP mux rather than a full exporter
// pipeline (spec §1 Non-goals exclude metrics exporters; this is a single
// counter/histogram set, not an exporter).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry groups the service's metrics under one prometheus.Registerer.
type Registry struct {
	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec
	RowsExtracted     *prometheus.CounterVec
	ActiveExecutions  prometheus.Gauge
}

// New registers and returns the service's metric collectors.
func New(reg prometheus.Registerer) *Registry {
	m := &Registry{
		ExecutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingestion_executions_total",
			Help: "Total number of completed job executions, by dataset and outcome.",
		}, []string{"dataset_id", "outcome"}),
		ExecutionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ingestion_execution_duration_seconds",
			Help:    "Duration of job executions in seconds, by dataset.",
			Buckets: prometheus.DefBuckets,
		}, []string{"dataset_id"}),
		RowsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingestion_rows_extracted_total",
			Help: "Total number of rows extracted, by dataset.",
		}, []string{"dataset_id"}),
		ActiveExecutions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ingestion_active_executions",
			Help: "Number of job executions currently in flight.",
		}),
	}
	reg.MustRegister(m.ExecutionsTotal, m.ExecutionDuration, m.RowsExtracted, m.ActiveExecutions)
	return m
}
