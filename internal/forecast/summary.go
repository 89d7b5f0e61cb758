package forecast

import (
	"github.com/wonny/revcast/internal/contracts"
)

// Summarize describes a forecast table. An empty table yields a zero summary.
func Summarize(rows []contracts.EnsembleForecastRow) contracts.ForecastSummary {
	if len(rows) == 0 {
		return contracts.ForecastSummary{}
	}

	s := contracts.ForecastSummary{
		PeriodStart:     rows[0].Date,
		PeriodEnd:       rows[0].Date,
		ForecastRecords: len(rows),
	}

	units := make(map[string]struct{})
	for _, r := range rows {
		if r.Date.Before(s.PeriodStart) {
			s.PeriodStart = r.Date
		}
		if r.Date.After(s.PeriodEnd) {
			s.PeriodEnd = r.Date
		}
		s.TotalForecastRevenue += r.EnsembleForecast
		units[r.BusinessUnit] = struct{}{}
	}

	s.AvgMonthlyForecast = s.TotalForecastRevenue / float64(len(rows))
	s.UnitsForecasted = len(units)
	return s
}
