package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/internal/report"
	"github.com/wonny/revcast/internal/settings"
	"github.com/wonny/revcast/pkg/logger"
)

// memorySource is an in-memory HistorySource
type memorySource struct {
	points  []contracts.RevenuePoint
	metrics []contracts.KPIMetricsPoint
	kpiErr  error

	started chan struct{}
	release chan struct{}
}

func (s *memorySource) LoadRevenue(ctx context.Context) ([]contracts.RevenuePoint, error) {
	if s.started != nil {
		close(s.started)
		<-s.release
	}
	return s.points, nil
}

func (s *memorySource) LoadKPIMetrics(ctx context.Context) ([]contracts.KPIMetricsPoint, error) {
	return s.metrics, s.kpiErr
}

func monthEnd(i int) time.Time {
	return time.Date(2021, time.February+time.Month(i), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

func flatHistory(unit string, months int, revenue float64) []contracts.RevenuePoint {
	out := make([]contracts.RevenuePoint, months)
	for i := range out {
		out[i] = contracts.RevenuePoint{
			Date:           monthEnd(i),
			BusinessUnit:   unit,
			Revenue:        revenue,
			CustomerCount:  100,
			MarketingSpend: 10000,
			ProfitMargin:   0.25,
			SalesTeamSize:  10,
		}
	}
	return out
}

func healthyMetrics(months int) []contracts.KPIMetricsPoint {
	out := make([]contracts.KPIMetricsPoint, months)
	for i := range out {
		out[i] = contracts.KPIMetricsPoint{
			Date:                    monthEnd(i),
			CustomerAcquisitionCost: contracts.Float(500),
			CustomerLifetimeValue:   contracts.Float(2500),
			ChurnRate:               contracts.Float(0.03),
			RetentionRate:           contracts.Float(0.95),
			NetPromoterScore:        contracts.Float(55),
			ConversionRate:          contracts.Float(0.2),
			MarketShare:             contracts.Float(0.1),
		}
	}
	return out
}

func newOrchestrator(t *testing.T, src contracts.HistorySource, opts Options) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(src, settings.Default(), opts, logger.NewNop())
	require.NoError(t, err)
	return o
}

func countAlerts(alerts []contracts.Alert, typ contracts.AlertType) int {
	n := 0
	for _, a := range alerts {
		if a.Type == typ {
			n++
		}
	}
	return n
}

func TestRun_FlatRevenueEndToEnd(t *testing.T) {
	src := &memorySource{points: flatHistory("Sales", 36, 100000), metrics: healthyMetrics(36)}
	o := newOrchestrator(t, src, Options{})

	result, err := o.Run(context.Background(), RunConfig{Mode: ModeFull})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, o.SettingsHash(), result.SettingsHash)

	require.Len(t, result.Forecasts, 12)
	for i, row := range result.Forecasts {
		assert.InDelta(t, 100000, row.EnsembleForecast, 1e-6)
		assert.Equal(t, time.Date(2024, time.January+time.Month(i), 1, 0, 0, 0, 0, time.UTC), row.Date)
	}
	require.Len(t, result.Intervals, 12)
	assert.InDelta(t, 100000, result.Intervals[0].Intervals[0].Lower, 1e-6)

	assert.Equal(t, 0, countAlerts(result.Alerts, contracts.AlertRevenueDecline))
	assert.Equal(t, 0, countAlerts(result.Alerts, contracts.AlertLowProfitMargin))
	assert.Empty(t, result.Failures)

	require.NotNil(t, result.Dashboard)
	assert.Equal(t, 100000.0, result.Dashboard.Summary.TotalRevenue)

	var stages []contracts.Stage
	for _, s := range result.Stages {
		assert.True(t, s.Success)
		stages = append(stages, s.Stage)
	}
	assert.Equal(t, []contracts.Stage{
		contracts.StageLoad, contracts.StageFeatures, contracts.StageForecast,
		contracts.StageKPI, contracts.StageAlert,
	}, stages)
}

func TestRun_EmptyRevenueIsFatal(t *testing.T) {
	o := newOrchestrator(t, &memorySource{}, Options{})

	result, err := o.Run(context.Background(), RunConfig{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrMissingInput))
	assert.False(t, result.Success)
	require.Len(t, result.Stages, 1)
	assert.False(t, result.Stages[0].Success)
	assert.Empty(t, result.Forecasts)
}

func TestRun_MissingKPIInput(t *testing.T) {
	src := &memorySource{
		points: flatHistory("Sales", 30, 5000),
		kpiErr: contracts.ErrMissingInput,
	}
	o := newOrchestrator(t, src, Options{})

	_, err := o.Run(context.Background(), RunConfig{Mode: ModeFull})
	assert.True(t, errors.Is(err, contracts.ErrMissingInput))

	// forecast mode never reads KPI history
	result, err := o.Run(context.Background(), RunConfig{Mode: ModeForecast})
	require.NoError(t, err)
	assert.Len(t, result.Forecasts, 12)
	assert.Nil(t, result.Dashboard)
}

func TestRun_ShortHistoryUnitIsolated(t *testing.T) {
	points := append(flatHistory("Sales", 30, 5000), flatHistory("Startup", 6, 900)...)
	o := newOrchestrator(t, &memorySource{points: points, metrics: healthyMetrics(30)}, Options{})

	result, err := o.Run(context.Background(), RunConfig{Mode: ModeFull})
	require.NoError(t, err)

	for _, row := range result.Forecasts {
		assert.Equal(t, "Sales", row.BusinessUnit)
	}
	require.Len(t, result.Failures, 2)
	for _, f := range result.Failures {
		assert.Equal(t, "Startup", f.BusinessUnit)
	}
	// KPI side still covers every unit
	assert.Len(t, result.Units, 2)

	require.NotNil(t, result.Quality)
	assert.Equal(t, 1, result.Quality.EligibleUnits)
	assert.Len(t, result.Quality.Units, 2)
}

func TestRun_KPIModeStages(t *testing.T) {
	o := newOrchestrator(t, &memorySource{points: flatHistory("Sales", 3, 10), metrics: healthyMetrics(3)}, Options{})

	result, err := o.Run(context.Background(), RunConfig{Mode: ModeKPI})
	require.NoError(t, err)
	assert.Empty(t, result.Forecasts)
	assert.Nil(t, result.ForecastSummary)
	assert.Len(t, result.Monthly, 3)
	require.Len(t, result.Stages, 3)
	assert.Equal(t, contracts.StageAlert, result.Stages[2].Stage)
}

func TestRun_WritesOutputs(t *testing.T) {
	dir := t.TempDir()
	writer := report.NewWriter(dir, settings.Default().Report, zerolog.Nop())
	src := &memorySource{points: flatHistory("Sales", 36, 100000), metrics: healthyMetrics(36)}
	o := newOrchestrator(t, src, Options{Writer: writer})

	result, err := o.Run(context.Background(), RunConfig{Mode: ModeFull, WriteOutputs: true})
	require.NoError(t, err)
	assert.Equal(t, dir, result.OutputDir)

	for _, name := range []string{
		report.FileForecasts, report.FileIntervals, report.FileForecastModels, report.FileForecastFailures,
		report.FileMonthlyKPIs, report.FileUnitKPIs, report.FileAdvancedKPIs, report.FileAlerts,
		report.FileProcessedRevenue, report.FileAggregatedRevenue, report.FileForecastSummary,
		report.FileKPISummary, report.FileDataSummary, report.FileDashboard, report.FileRun,
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	last := result.Stages[len(result.Stages)-1]
	assert.Equal(t, contracts.StageReport, last.Stage)
	assert.Equal(t, 14, last.OutputCount)
}

func TestRun_MetricsAndStore(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	store := NewMemoryStore(4, time.Hour)

	src := &memorySource{points: flatHistory("Sales", 36, 100000), metrics: healthyMetrics(36)}
	o := newOrchestrator(t, src, Options{Metrics: metrics, Store: store})

	result, err := o.Run(context.Background(), RunConfig{RunID: "run-1"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("full", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UnitsForecasted))

	latest, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result, latest)

	_, err = store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = o.Run(context.Background(), RunConfig{RunID: "run-2", Mode: ModeKPI})
	require.NoError(t, err)
	latest, err = store.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.RunID)
}

func TestRun_RejectsConcurrentRun(t *testing.T) {
	src := &memorySource{
		points:  flatHistory("Sales", 3, 10),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	o := newOrchestrator(t, src, Options{})

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background(), RunConfig{Mode: ModeForecast})
		done <- err
	}()

	<-src.started
	_, err := o.Run(context.Background(), RunConfig{Mode: ModeForecast})
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(src.release)
	assert.NoError(t, <-done)
}

func TestRun_Deterministic(t *testing.T) {
	points := append(flatHistory("Sales", 36, 100000), flatHistory("SMB", 30, 2500)...)
	for i := range points {
		points[i].Revenue += float64(i%12) * 100
	}
	src := &memorySource{points: points, metrics: healthyMetrics(36)}
	o := newOrchestrator(t, src, Options{})

	a, err := o.Run(context.Background(), RunConfig{RunID: "a"})
	require.NoError(t, err)
	b, err := o.Run(context.Background(), RunConfig{RunID: "b"})
	require.NoError(t, err)

	assert.Equal(t, a.Forecasts, b.Forecasts)
	assert.Equal(t, a.Monthly, b.Monthly)
	assert.Equal(t, a.Alerts, b.Alerts)
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("kpi")
	assert.True(t, ok)
	assert.Equal(t, ModeKPI, m)

	_, ok = ParseMode("everything")
	assert.False(t, ok)
}

type recordingNotifier struct {
	calls  int
	runID  string
	alerts []contracts.Alert
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, runID string, alerts []contracts.Alert) (int, error) {
	n.calls++
	n.runID = runID
	n.alerts = alerts
	if n.err != nil {
		return 0, n.err
	}
	return len(alerts), nil
}

func TestRun_NotifiesAlerts(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"delivered", nil},
		{"delivery failure is not fatal", errors.New("webhook down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{err: tt.err}
			src := &memorySource{points: flatHistory("Sales", 36, 100000), metrics: healthyMetrics(36)}
			o := newOrchestrator(t, src, Options{Notifier: notifier})

			result, err := o.Run(context.Background(), RunConfig{RunID: "run-n"})
			require.NoError(t, err)
			assert.True(t, result.Success)

			assert.Equal(t, 1, notifier.calls)
			assert.Equal(t, "run-n", notifier.runID)
			assert.Equal(t, result.Alerts, notifier.alerts)
		})
	}
}

func TestRun_ForecastModeSkipsNotifier(t *testing.T) {
	notifier := &recordingNotifier{}
	src := &memorySource{points: flatHistory("Sales", 36, 100000)}
	o := newOrchestrator(t, src, Options{Notifier: notifier})

	_, err := o.Run(context.Background(), RunConfig{Mode: ModeForecast})
	require.NoError(t, err)
	assert.Zero(t, notifier.calls)
}

func TestRun_BlankKPICellKeepsLatestMonth(t *testing.T) {
	metrics := healthyMetrics(30)
	last := &metrics[len(metrics)-1]
	last.ChurnRate = contracts.Float(0.06)
	last.NetPromoterScore = nil

	src := &memorySource{points: flatHistory("Sales", 30, 5000), metrics: metrics}
	o := newOrchestrator(t, src, Options{})

	result, err := o.Run(context.Background(), RunConfig{Mode: ModeKPI})
	require.NoError(t, err)

	latest := result.Advanced[len(result.Advanced)-1]
	require.NotNil(t, latest.ChurnRate)
	assert.Equal(t, 0.06, *latest.ChurnRate)
	require.NotNil(t, latest.NetPromoterScore)
	assert.Equal(t, 55.0, *latest.NetPromoterScore)
	assert.Equal(t, 1, countAlerts(result.Alerts, contracts.AlertHighChurnRate))
}
