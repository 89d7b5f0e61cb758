package pipeline

import (
	"github.com/wonny/revcast/internal/report"
)

// writeOutputs P5: 결과 테이블/요약 기록. 기록한 파일 수를 반환.
func (o *Orchestrator) writeOutputs(result *RunResult) (int, error) {
	w := o.writer
	var tables []report.Table
	texts := map[string]string{}

	tables = append(tables,
		w.ProcessedRevenueTable(result.History),
		w.AggregatedRevenueTable(result.Aggregated),
	)
	texts[report.FileDataSummary] = w.DataSummaryText(result.Data)

	if result.Mode.forecasts() {
		tables = append(tables,
			w.ForecastTable(result.Forecasts),
			w.IntervalTable(result.Intervals),
			w.ModelTable(result.Models),
			w.FailureTable(result.Failures),
		)
		if result.ForecastSummary != nil {
			texts[report.FileForecastSummary] = w.ForecastSummaryText(*result.ForecastSummary, result.Failures)
		}
	}

	if result.Mode.kpis() {
		tables = append(tables,
			w.MonthlyKPITable(result.Monthly),
			w.UnitKPITable(result.Units),
			w.AdvancedKPITable(result.Advanced),
			w.AlertTable(result.Alerts),
		)
		if result.Dashboard != nil {
			texts[report.FileKPISummary] = w.KPISummaryText(result.Dashboard, o.settings.Alerts.SummaryTopAlerts)
		}
	}

	files := 0
	for _, t := range tables {
		if err := w.WriteTable(t); err != nil {
			return files, err
		}
		files++
	}
	for name, body := range texts {
		if err := w.WriteText(name, body); err != nil {
			return files, err
		}
		files++
	}

	if result.Dashboard != nil {
		if err := w.WriteJSON(report.FileDashboard, result.Dashboard); err != nil {
			return files, err
		}
		files++
	}

	o.logger.WithField("files", files).Info("Outputs written")
	return files, nil
}

// writeRecord run.json: 실패한 실행도 기록
func (o *Orchestrator) writeRecord(result *RunResult) {
	if err := o.writer.WriteJSON(report.FileRun, result.Record()); err != nil {
		o.logger.WithError(err).Warn("Failed to write run record")
	}
}
