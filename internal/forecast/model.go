package forecast

import (
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/internal/features"
	"github.com/wonny/revcast/internal/settings"
)

// Output is the per-unit result map of one model plus the units it excluded
type Output struct {
	Kind     contracts.ModelKind
	Results  map[string]contracts.ModelResult
	Failures []contracts.UnitFailure
}

// Units returns the fitted business units in sorted order
func (o Output) Units() []string {
	units := make([]string, 0, len(o.Results))
	for u := range o.Results {
		units = append(units, u)
	}
	sort.Strings(units)
	return units
}

// unitFitter fits one business unit
type unitFitter func(unit string, rows []contracts.FeatureRow) (contracts.ModelResult, error)

// fitAll applies fit to every unit independently.
// 한 사업부의 실패가 다른 사업부에 영향을 주지 않는다.
func fitAll(kind contracts.ModelKind, cfg settings.Forecast, rows []contracts.FeatureRow, fit unitFitter, log zerolog.Logger) Output {
	out := Output{
		Kind:    kind,
		Results: make(map[string]contracts.ModelResult),
	}

	units, byUnit := features.SplitByUnit(rows)
	for _, unit := range units {
		unitRows := byUnit[unit]

		if len(unitRows) < cfg.MinHistoricalPeriods {
			log.Warn().
				Str("business_unit", unit).
				Int("periods", len(unitRows)).
				Int("required", cfg.MinHistoricalPeriods).
				Msg("insufficient data, skipping unit")
			out.Failures = append(out.Failures, contracts.UnitFailure{
				BusinessUnit: unit,
				Model:        kind,
				Reason:       ErrInsufficientHistory.Error(),
			})
			continue
		}

		result, err := fit(unit, unitRows)
		if err != nil {
			log.Warn().Err(err).
				Str("business_unit", unit).
				Msg("model fit failed, skipping unit")
			reason := err.Error()
			if !errors.Is(err, ErrDegenerateFit) {
				reason = ErrDegenerateFit.Error() + ": " + reason
			}
			out.Failures = append(out.Failures, contracts.UnitFailure{
				BusinessUnit: unit,
				Model:        kind,
				Reason:       reason,
			})
			continue
		}

		out.Results[unit] = result
	}

	return out
}

// forecastDates returns horizon consecutive month starts after last
func forecastDates(last time.Time, horizon int) []time.Time {
	dates := make([]time.Time, horizon)
	for i := range dates {
		dates[i] = contracts.AddMonths(last, i+1)
	}
	return dates
}

func revenues(rows []contracts.FeatureRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Revenue
	}
	return out
}

func zipPoints(dates []time.Time, values []float64) []contracts.ForecastPoint {
	out := make([]contracts.ForecastPoint, len(values))
	for i := range values {
		out[i] = contracts.ForecastPoint{Date: dates[i], Value: values[i]}
	}
	return out
}

func rowDates(rows []contracts.FeatureRow) []time.Time {
	out := make([]time.Time, len(rows))
	for i, r := range rows {
		out[i] = r.Date
	}
	return out
}
