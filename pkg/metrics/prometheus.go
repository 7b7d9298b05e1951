package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics emitted by the export pipeline.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec
	RunsRejected     prometheus.Counter
	RunDuration      prometheus.Histogram
	StageDuration    *prometheus.HistogramVec
	DegradedRefresh  prometheus.Counter
	RecordsExported  *prometheus.GaugeVec
	UnmatchedRecords prometheus.Gauge
}

// NewMetrics registers the pipeline metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by trigger and final status",
		}, []string{"trigger", "status"}),
		RunsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_rejected_total",
			Help:      "Runs rejected because another run was in flight",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_run_duration_seconds",
			Help:      "Wall time of a full pipeline run",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Wall time of each pipeline stage",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		DegradedRefresh: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_degraded_total",
			Help:      "Refreshes that fell back to previously generated images",
		}),
		RecordsExported: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_exported",
			Help:      "Rows written in the last run per category",
		}, []string{"category"}),
		UnmatchedRecords: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reconciliation_unmatched_fuel_records",
			Help:      "Fuel records without a matching flight in the last run",
		}),
	}
}
