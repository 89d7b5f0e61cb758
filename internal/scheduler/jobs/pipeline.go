package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/internal/pipeline"
	"github.com/wonny/revcast/internal/scheduler"
	"github.com/wonny/revcast/pkg/logger"
)

// Runner executes pipeline runs
type Runner interface {
	Run(ctx context.Context, config pipeline.RunConfig) (*pipeline.RunResult, error)
}

// PipelineJob runs the revenue pipeline on a schedule
// ⭐ SSOT: 파이프라인 스케줄은 이 Job에서만
type PipelineJob struct {
	runner   Runner
	schedule string
	mode     pipeline.Mode
	logger   *logger.Logger
}

// NewPipelineJob creates a new pipeline job
func NewPipelineJob(runner Runner, schedule string, mode pipeline.Mode, log *logger.Logger) *PipelineJob {
	return &PipelineJob{
		runner:   runner,
		schedule: schedule,
		mode:     mode,
		logger:   log,
	}
}

// Name returns the job name
func (j *PipelineJob) Name() string {
	return "revenue_pipeline"
}

// Schedule returns the cron schedule (기본: 매월 1일 06:00)
func (j *PipelineJob) Schedule() string {
	return j.schedule
}

// Run executes the pipeline and writes its outputs
func (j *PipelineJob) Run(ctx context.Context) error {
	j.logger.WithField("mode", string(j.mode)).Info("Starting scheduled pipeline run")

	result, err := j.runner.Run(ctx, pipeline.RunConfig{
		Mode:         j.mode,
		WriteOutputs: true,
	})
	if err != nil {
		// 입력 데이터 부재는 재시도해도 동일
		if errors.Is(err, contracts.ErrMissingInput) {
			return scheduler.Permanent(fmt.Errorf("pipeline run: %w", err))
		}
		return fmt.Errorf("pipeline run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    result.RunID,
		"forecasts": len(result.Forecasts),
		"failures":  len(result.Failures),
		"alerts":    len(result.Alerts),
	}).Info("Scheduled pipeline run completed")

	return nil
}
