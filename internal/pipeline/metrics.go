package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline Prometheus collectors
type Metrics struct {
	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	StageDuration    *prometheus.HistogramVec
	UnitsForecasted  prometheus.Gauge
	UnitFailures     *prometheus.CounterVec
	AlertsEmitted    *prometheus.GaugeVec
	LastSuccessEpoch prometheus.Gauge
}

// NewMetrics creates and registers all collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revcast_pipeline_runs_total",
				Help: "Pipeline runs by mode and outcome",
			},
			[]string{"mode", "status"},
		),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "revcast_pipeline_run_duration_seconds",
			Help:    "Wall time of a pipeline run",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "revcast_pipeline_stage_duration_seconds",
				Help:    "Wall time per pipeline stage",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
			},
			[]string{"stage"},
		),
		UnitsForecasted: factory.NewGauge(prometheus.GaugeOpts{
			Name: "revcast_units_forecasted",
			Help: "Business units present in the latest ensemble forecast",
		}),
		UnitFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revcast_unit_failures_total",
				Help: "Business units excluded from a model",
			},
			[]string{"model"},
		),
		AlertsEmitted: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "revcast_alerts",
				Help: "Alerts emitted by the latest run per severity",
			},
			[]string{"severity"},
		),
		LastSuccessEpoch: factory.NewGauge(prometheus.GaugeOpts{
			Name: "revcast_pipeline_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
	}
}
