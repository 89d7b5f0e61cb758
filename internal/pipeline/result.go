package pipeline

import (
	"time"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/internal/ingest"
	"github.com/wonny/revcast/internal/kpi"
)

// Mode selects which stages a run executes
type Mode string

const (
	ModeFull     Mode = "full"     // P0 → P5 전체
	ModeForecast Mode = "forecast" // P0, P1, P2, P5
	ModeKPI      Mode = "kpi"      // P0, P3, P4, P5
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, bool) {
	switch m := Mode(s); m {
	case ModeFull, ModeForecast, ModeKPI:
		return m, true
	}
	return "", false
}

func (m Mode) forecasts() bool { return m == ModeFull || m == ModeForecast }
func (m Mode) kpis() bool      { return m == ModeFull || m == ModeKPI }

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	RunID        string // 비어 있으면 uuid 생성
	Mode         Mode
	WriteOutputs bool
}

// RunResult is the complete record and output of one run
type RunResult struct {
	RunID        string                  `json:"run_id"`
	Mode         Mode                    `json:"mode"`
	SettingsHash string                  `json:"settings_hash"`
	StartedAt    time.Time               `json:"started_at"`
	FinishedAt   time.Time               `json:"finished_at"`
	Success      bool                    `json:"success"`
	Error        string                  `json:"error,omitempty"`
	Stages       []contracts.StageResult `json:"stages"`
	OutputDir    string                  `json:"output_dir,omitempty"`

	Data    kpi.DataSummary       `json:"data_summary"`
	Quality *ingest.QualityReport `json:"quality,omitempty"`

	// Forecast outputs
	Forecasts       []contracts.EnsembleForecastRow `json:"forecasts,omitempty"`
	Intervals       []contracts.IntervalForecastRow `json:"intervals,omitempty"`
	Models          []contracts.ModelResult         `json:"models,omitempty"`
	Failures        []contracts.UnitFailure         `json:"failures,omitempty"`
	DroppedUnits    []string                        `json:"dropped_units,omitempty"`
	ForecastSummary *contracts.ForecastSummary      `json:"forecast_summary,omitempty"`

	// KPI outputs
	History    []contracts.UnitHistoryRow `json:"-"`
	Aggregated []contracts.RevenuePoint   `json:"-"`
	Monthly    []contracts.MonthlyKPIRow  `json:"monthly_kpis,omitempty"`
	Units      []contracts.UnitKPIRow     `json:"unit_kpis,omitempty"`
	Advanced   []contracts.AdvancedKPIRow `json:"advanced_kpis,omitempty"`
	Alerts     []contracts.Alert          `json:"alerts,omitempty"`
	Dashboard  *kpi.Dashboard             `json:"dashboard,omitempty"`
}

// Duration of the run
func (r *RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Record strips the bulky tables, keeping the run metadata
func (r *RunResult) Record() *RunResult {
	return &RunResult{
		RunID:           r.RunID,
		Mode:            r.Mode,
		SettingsHash:    r.SettingsHash,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		Success:         r.Success,
		Error:           r.Error,
		Stages:          r.Stages,
		OutputDir:       r.OutputDir,
		Data:            r.Data,
		Quality:         r.Quality,
		Failures:        r.Failures,
		DroppedUnits:    r.DroppedUnits,
		ForecastSummary: r.ForecastSummary,
	}
}
