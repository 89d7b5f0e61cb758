package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/pkg/logger"
)

// HistorySink stores loaded history (ingest.Repository)
type HistorySink interface {
	SaveRevenue(ctx context.Context, points []contracts.RevenuePoint) error
	SaveKPIMetrics(ctx context.Context, metrics []contracts.KPIMetricsPoint) error
}

// DataSyncJob copies raw CSV history into PostgreSQL
type DataSyncJob struct {
	source   contracts.HistorySource
	sink     HistorySink
	schedule string
	logger   *logger.Logger
}

// NewDataSyncJob creates a new data sync job
func NewDataSyncJob(source contracts.HistorySource, sink HistorySink, schedule string, log *logger.Logger) *DataSyncJob {
	return &DataSyncJob{
		source:   source,
		sink:     sink,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *DataSyncJob) Name() string {
	return "data_sync"
}

// Schedule returns the cron schedule
func (j *DataSyncJob) Schedule() string {
	return j.schedule
}

// Run loads both CSV tables and upserts them
func (j *DataSyncJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled data sync")

	// 1. Revenue history
	points, err := j.source.LoadRevenue(ctx)
	if err != nil {
		return fmt.Errorf("load revenue: %w", err)
	}
	if err := j.sink.SaveRevenue(ctx, points); err != nil {
		return fmt.Errorf("save revenue: %w", err)
	}

	// 2. KPI metrics
	metrics, err := j.source.LoadKPIMetrics(ctx)
	if err != nil {
		return fmt.Errorf("load kpi metrics: %w", err)
	}
	if err := j.sink.SaveKPIMetrics(ctx, metrics); err != nil {
		return fmt.Errorf("save kpi metrics: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"revenue_rows": len(points),
		"kpi_rows":     len(metrics),
	}).Info("Scheduled data sync completed")

	return nil
}
