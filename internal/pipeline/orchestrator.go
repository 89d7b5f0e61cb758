package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/revcast/internal/alert"
	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/internal/features"
	"github.com/wonny/revcast/internal/forecast"
	"github.com/wonny/revcast/internal/ingest"
	"github.com/wonny/revcast/internal/kpi"
	"github.com/wonny/revcast/internal/report"
	"github.com/wonny/revcast/internal/settings"
	"github.com/wonny/revcast/pkg/logger"
	"github.com/wonny/revcast/pkg/tracing"
)

// ErrRunInProgress is returned when a run is already executing
var ErrRunInProgress = errors.New("pipeline run already in progress")

const tracerName = "revcast/pipeline"

// Orchestrator coordinates the six-stage pipeline
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	source   contracts.HistorySource
	settings *settings.Settings
	hash     string

	// Stage components
	quality   *ingest.QualityGate
	features  *features.Builder
	trend     *forecast.TrendForecaster
	seasonal  *forecast.SeasonalForecaster
	ensembler *forecast.Ensembler
	kpi       *kpi.Engine
	alerts    *alert.Engine

	// Optional collaborators
	writer   *report.Writer
	metrics  *Metrics
	store    Store
	notifier Notifier

	running sync.Mutex
	logger  *logger.Logger
}

// Notifier delivers a run's alerts (webhook)
type Notifier interface {
	Notify(ctx context.Context, runID string, alerts []contracts.Alert) (int, error)
}

// Options are the optional collaborators of an Orchestrator
type Options struct {
	Writer   *report.Writer // nil 이면 P5 생략
	Metrics  *Metrics
	Store    Store
	Notifier Notifier // 알림 전송 실패는 실행 실패로 보지 않음
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(source contracts.HistorySource, s *settings.Settings, opts Options, log *logger.Logger) (*Orchestrator, error) {
	hash, err := settings.Hash(s)
	if err != nil {
		return nil, fmt.Errorf("hash settings: %w", err)
	}

	zl := log.Zerolog()
	return &Orchestrator{
		source:    source,
		settings:  s,
		hash:      hash,
		quality:   ingest.NewQualityGate(ingest.QualityConfig{MinHistory: s.Forecast.MinHistoricalPeriods}, zl),
		features:  features.NewBuilder(zl),
		trend:     forecast.NewTrendForecaster(s.Forecast, zl),
		seasonal:  forecast.NewSeasonalForecaster(s.Forecast, zl),
		ensembler: forecast.NewEnsembler(s.Forecast, zl),
		kpi:       kpi.NewEngine(s.KPI, zl),
		alerts:    alert.NewEngine(s, zl),
		writer:    opts.Writer,
		metrics:   opts.Metrics,
		store:     opts.Store,
		notifier:  opts.Notifier,
		logger:    log.WithField("component", "pipeline.orchestrator"),
	}, nil
}

// SettingsHash identifies the parameter set of every run
func (o *Orchestrator) SettingsHash() string {
	return o.hash
}

// Store returns the run store (may be nil)
func (o *Orchestrator) Store() Store {
	return o.store
}

// runState carries intermediate values between stages
type runState struct {
	points   []contracts.RevenuePoint
	metrics  []contracts.KPIMetricsPoint
	features contracts.FeatureSet
	linear   forecast.Output
	season   forecast.Output
}

// Run executes the stages selected by config.Mode
// P0 → P1 → P2 → P3 → P4 → P5
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	if !o.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.running.Unlock()

	if config.Mode == "" {
		config.Mode = ModeFull
	}
	if config.RunID == "" {
		config.RunID = uuid.New().String()
	}

	result := &RunResult{
		RunID:        config.RunID,
		Mode:         config.Mode,
		SettingsHash: o.hash,
		StartedAt:    time.Now().UTC(),
		Stages:       make([]contracts.StageResult, 0, len(contracts.AllStages())),
	}

	ctx, span := tracing.StartSpan(ctx, tracerName, "pipeline.run",
		tracing.AttrRunID.String(result.RunID))

	o.logger.WithFields(map[string]interface{}{
		"run_id":        result.RunID,
		"mode":          string(config.Mode),
		"settings_hash": o.hash,
	}).Info("Starting pipeline run")

	err := o.execute(ctx, config, result)

	result.FinishedAt = time.Now().UTC()
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
	}
	tracing.End(span, err)
	o.observe(result)

	if config.WriteOutputs && o.writer != nil {
		o.writeRecord(result)
	}

	if o.store != nil {
		if serr := o.store.Save(ctx, result); serr != nil {
			o.logger.WithError(serr).Warn("Failed to store run result")
		}
	}

	if err != nil {
		o.logger.WithFields(map[string]interface{}{
			"run_id": result.RunID,
			"stages": len(result.Stages),
		}).WithError(err).Error("Pipeline run failed")
		return result, err
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"duration": result.Duration().Seconds(),
		"stages":   len(result.Stages),
		"failures": len(result.Failures),
		"alerts":   len(result.Alerts),
	}).Info("Pipeline run completed successfully")

	return result, nil
}

func (o *Orchestrator) execute(ctx context.Context, config RunConfig, result *RunResult) error {
	st := &runState{}

	// P0: Load
	if err := o.stage(ctx, result, contracts.StageLoad, func(ctx context.Context, sr *contracts.StageResult) error {
		return o.runLoad(ctx, config.Mode, st, result, sr)
	}); err != nil {
		return err
	}

	if config.Mode.forecasts() {
		// P1: Features
		if err := o.stage(ctx, result, contracts.StageFeatures, func(_ context.Context, sr *contracts.StageResult) error {
			st.features = o.features.Build(st.points)
			sr.InputCount = len(st.points)
			sr.OutputCount = len(st.features.Rows)
			sr.Metadata = map[string]interface{}{"has_lag12": st.features.HasLag12}
			return nil
		}); err != nil {
			return err
		}

		// P2: Forecast
		if err := o.stage(ctx, result, contracts.StageForecast, func(_ context.Context, sr *contracts.StageResult) error {
			return o.runForecast(st, result, sr)
		}); err != nil {
			return err
		}
	}

	if config.Mode.kpis() {
		// P3: KPI
		if err := o.stage(ctx, result, contracts.StageKPI, func(_ context.Context, sr *contracts.StageResult) error {
			o.runKPI(st, result, sr)
			return nil
		}); err != nil {
			return err
		}

		// P4: Alert
		if err := o.stage(ctx, result, contracts.StageAlert, func(ctx context.Context, sr *contracts.StageResult) error {
			return o.runAlert(ctx, result, sr)
		}); err != nil {
			return err
		}
	}

	// P5: Report
	if config.WriteOutputs && o.writer != nil {
		if err := o.stage(ctx, result, contracts.StageReport, func(_ context.Context, sr *contracts.StageResult) error {
			files, err := o.writeOutputs(result)
			sr.OutputCount = files
			return err
		}); err != nil {
			return err
		}
		result.OutputDir = o.writer.Dir()
	}

	return nil
}

// stage runs fn as one recorded, traced and timed stage
func (o *Orchestrator) stage(ctx context.Context, result *RunResult, stage contracts.Stage, fn func(context.Context, *contracts.StageResult) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", stage.ShortName(), err)
	}

	ctx, span := tracing.StartSpan(ctx, tracerName, string(stage), tracing.AttrStage.String(string(stage)))
	o.logger.Infof("Running %s: %s", stage, stage.Description())

	start := time.Now()
	sr := contracts.StageResult{Stage: stage}
	err := fn(ctx, &sr)
	elapsed := time.Since(start)

	sr.DurationMS = elapsed.Milliseconds()
	sr.Success = err == nil
	if err != nil {
		sr.Error = err.Error()
	}
	result.Stages = append(result.Stages, sr)

	span.SetAttributes(tracing.AttrRecords.Int(sr.OutputCount))
	tracing.End(span, err)
	if o.metrics != nil {
		o.metrics.StageDuration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
	}

	if err != nil {
		return fmt.Errorf("%s failed: %w", stage.ShortName(), err)
	}

	o.logger.WithFields(map[string]interface{}{
		"stage":  string(stage),
		"input":  sr.InputCount,
		"output": sr.OutputCount,
		"ms":     sr.DurationMS,
	}).Info("Stage completed")
	return nil
}

// runLoad P0: 매출/KPI 이력 로드. 매출 이력이 없으면 실행 중단.
func (o *Orchestrator) runLoad(ctx context.Context, mode Mode, st *runState, result *RunResult, sr *contracts.StageResult) error {
	points, err := o.source.LoadRevenue(ctx)
	if err != nil {
		return fmt.Errorf("load revenue: %w", err)
	}
	if len(points) == 0 {
		return fmt.Errorf("revenue history is empty: %w", contracts.ErrMissingInput)
	}
	st.points = points

	if mode.kpis() {
		metrics, err := o.source.LoadKPIMetrics(ctx)
		if err != nil {
			return fmt.Errorf("load kpi metrics: %w", err)
		}
		if len(metrics) == 0 {
			o.logger.Warn("KPI history is empty, advanced KPIs will be blank")
		}
		st.metrics = metrics
	}

	result.History = o.kpi.UnitHistory(points)
	result.Aggregated = kpi.Aggregate(points)
	result.Data = kpi.Summarize(result.History, len(st.metrics))

	quality := o.quality.Check(points)
	result.Quality = &quality

	sr.OutputCount = len(points) + len(st.metrics)
	sr.Metadata = map[string]interface{}{
		"revenue_records": len(points),
		"kpi_records":     len(st.metrics),
		"business_units":  result.Data.BusinessUnits,
		"quality_score":   quality.Score,
		"eligible_units":  quality.EligibleUnits,
	}
	return nil
}

// runForecast P2: 추세/계절 모델, 앙상블, 신뢰구간
func (o *Orchestrator) runForecast(st *runState, result *RunResult, sr *contracts.StageResult) error {
	st.linear = o.trend.Fit(st.features.Rows)
	st.season = o.seasonal.Fit(st.features.Rows)

	ens := o.ensembler.Combine(st.linear, st.season)

	proxy := st.linear
	if contracts.ModelKind(o.settings.Forecast.ErrorProxy) == contracts.ModelSeasonal {
		proxy = st.season
	}
	intervals, err := o.ensembler.Intervals(ens.Rows, proxy)
	if err != nil {
		return fmt.Errorf("confidence intervals: %w", err)
	}

	summary := forecast.Summarize(ens.Rows)

	result.Forecasts = ens.Rows
	result.Intervals = intervals
	result.DroppedUnits = ens.DroppedUnits
	result.ForecastSummary = &summary
	result.Failures = append(append([]contracts.UnitFailure{}, st.linear.Failures...), st.season.Failures...)
	for _, out := range []forecast.Output{st.linear, st.season} {
		for _, unit := range out.Units() {
			result.Models = append(result.Models, out.Results[unit])
		}
	}

	sr.InputCount = len(st.features.Rows)
	sr.OutputCount = len(ens.Rows)
	sr.Metadata = map[string]interface{}{
		"units_forecasted": summary.UnitsForecasted,
		"failures":         len(result.Failures),
		"dropped_units":    len(ens.DroppedUnits),
	}
	return nil
}

// runKPI P3: 월별/사업부/고급 KPI
func (o *Orchestrator) runKPI(st *runState, result *RunResult, sr *contracts.StageResult) {
	result.Monthly = o.kpi.Monthly(st.points)
	result.Units = o.kpi.Units(st.points)
	result.Advanced = o.kpi.Advanced(st.points, st.metrics)

	sr.InputCount = len(st.points) + len(st.metrics)
	sr.OutputCount = len(result.Monthly) + len(result.Units) + len(result.Advanced)
	sr.Metadata = map[string]interface{}{
		"months":        len(result.Monthly),
		"units":         len(result.Units),
		"advanced_rows": len(result.Advanced),
	}
}

// runAlert P4: 알림 평가 및 대시보드 구성
func (o *Orchestrator) runAlert(ctx context.Context, result *RunResult, sr *contracts.StageResult) error {
	result.Alerts = o.alerts.Evaluate(result.Units, result.Advanced)

	dashboard, err := o.kpi.Dashboard(result.Monthly, result.Units, result.Advanced, result.Alerts)
	if err != nil {
		return fmt.Errorf("build dashboard: %w", err)
	}
	result.Dashboard = dashboard

	counts := alert.CountBySeverity(result.Alerts)
	sr.InputCount = len(result.Units) + len(result.Advanced)
	sr.OutputCount = len(result.Alerts)
	sr.Metadata = map[string]interface{}{
		"high":   counts[contracts.SeverityHigh],
		"medium": counts[contracts.SeverityMedium],
	}

	if o.notifier != nil {
		sent, err := o.notifier.Notify(ctx, result.RunID, result.Alerts)
		if err != nil {
			o.logger.WithError(err).WithField("run_id", result.RunID).Warn("Alert notification failed")
		}
		sr.Metadata["notified"] = sent
	}
	return nil
}

// observe updates Prometheus collectors
func (o *Orchestrator) observe(result *RunResult) {
	if o.metrics == nil {
		return
	}
	m := o.metrics

	status := "success"
	if !result.Success {
		status = "failure"
	}
	m.RunsTotal.WithLabelValues(string(result.Mode), status).Inc()
	m.RunDuration.Observe(result.Duration().Seconds())

	if !result.Success {
		return
	}
	m.LastSuccessEpoch.Set(float64(result.FinishedAt.Unix()))

	if result.Mode.forecasts() {
		if result.ForecastSummary != nil {
			m.UnitsForecasted.Set(float64(result.ForecastSummary.UnitsForecasted))
		}
		for _, f := range result.Failures {
			m.UnitFailures.WithLabelValues(string(f.Model)).Inc()
		}
	}
	if result.Mode.kpis() {
		counts := alert.CountBySeverity(result.Alerts)
		for _, sev := range []contracts.Severity{contracts.SeverityHigh, contracts.SeverityMedium} {
			m.AlertsEmitted.WithLabelValues(string(sev)).Set(float64(counts[sev]))
		}
	}
}
