package forecast

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/internal/settings"
)

// Ensembler merges linear and seasonal forecasts and attaches confidence intervals
// ⭐ SSOT: 앙상블은 (business_unit, date) 내부 조인
type Ensembler struct {
	cfg settings.Forecast
	log zerolog.Logger
}

// NewEnsembler 새 앙상블러 생성
func NewEnsembler(cfg settings.Forecast, log zerolog.Logger) *Ensembler {
	return &Ensembler{
		cfg: cfg,
		log: log.With().Str("component", "forecast.ensembler").Logger(),
	}
}

// Ensemble is the merged forecast table plus units only one model produced
type Ensemble struct {
	Rows         []contracts.EnsembleForecastRow
	DroppedUnits []string
}

type unitDate struct {
	unit string
	date time.Time
}

// Combine inner-joins the two outputs on (business_unit, date).
// ensemble_forecast is the unweighted mean of the two model forecasts.
// Rows are ordered by business unit, then date.
func (e *Ensembler) Combine(linear, seasonal Output) Ensemble {
	seasonalByKey := make(map[unitDate]float64)
	for unit, res := range seasonal.Results {
		for _, p := range res.Forecast {
			seasonalByKey[unitDate{unit, p.Date}] = p.Value
		}
	}

	var out Ensemble
	for _, unit := range linear.Units() {
		if _, ok := seasonal.Results[unit]; !ok {
			out.DroppedUnits = append(out.DroppedUnits, unit)
			continue
		}
		for _, p := range linear.Results[unit].Forecast {
			s, ok := seasonalByKey[unitDate{unit, p.Date}]
			if !ok {
				continue
			}
			out.Rows = append(out.Rows, contracts.EnsembleForecastRow{
				Date:             p.Date,
				BusinessUnit:     unit,
				LinearForecast:   p.Value,
				SeasonalForecast: s,
				EnsembleForecast: (p.Value + s) / 2,
				ForecastType:     contracts.ForecastTypePrediction,
			})
		}
	}
	for _, unit := range seasonal.Units() {
		if _, ok := linear.Results[unit]; !ok {
			out.DroppedUnits = append(out.DroppedUnits, unit)
		}
	}
	sort.Strings(out.DroppedUnits)

	if len(out.DroppedUnits) > 0 {
		e.log.Warn().
			Strs("business_units", out.DroppedUnits).
			Msg("units produced by only one model, excluded from ensemble")
	}

	return out
}

// Intervals attaches symmetric bands ensemble ∓ z·σ, where σ is the population
// standard deviation of the error-proxy model's in-sample residuals for the unit.
func (e *Ensembler) Intervals(rows []contracts.EnsembleForecastRow, proxy Output) ([]contracts.IntervalForecastRow, error) {
	zs := make([]settings.ZScore, 0, len(e.cfg.ConfidenceLevels))
	for _, level := range e.cfg.ConfidenceLevels {
		z, err := settings.LookupZ(level)
		if err != nil {
			return nil, err
		}
		zs = append(zs, z)
	}

	sigma := make(map[string]float64)
	for unit, res := range proxy.Results {
		sigma[unit] = ResidualStdDev(res.Residuals)
	}

	out := make([]contracts.IntervalForecastRow, 0, len(rows))
	for _, row := range rows {
		s, ok := sigma[row.BusinessUnit]
		if !ok {
			return nil, fmt.Errorf("no %s residuals for %s", proxy.Kind, row.BusinessUnit)
		}

		intervals := make([]contracts.ConfidenceInterval, len(zs))
		for i, z := range zs {
			margin := z.Z * s
			intervals[i] = contracts.ConfidenceInterval{
				Coverage: z.Coverage,
				Label:    z.Label,
				Lower:    row.EnsembleForecast - margin,
				Upper:    row.EnsembleForecast + margin,
			}
		}
		out = append(out, contracts.IntervalForecastRow{EnsembleForecastRow: row, Intervals: intervals})
	}
	return out, nil
}

// ResidualStdDev population standard deviation (ddof=0); 0 for no residuals
func ResidualStdDev(res []float64) float64 {
	if len(res) == 0 {
		return 0
	}
	return sqrt(stat.PopVariance(res, nil))
}
