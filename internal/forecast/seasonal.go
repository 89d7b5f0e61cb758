package forecast

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/internal/settings"
)

// SeasonalForecaster decomposes each unit into monthly factors and a deseasonalized trend
// ⭐ SSOT: 계절 분해 모델
type SeasonalForecaster struct {
	cfg settings.Forecast
	log zerolog.Logger
}

// NewSeasonalForecaster 새 계절 예측기 생성
func NewSeasonalForecaster(cfg settings.Forecast, log zerolog.Logger) *SeasonalForecaster {
	return &SeasonalForecaster{
		cfg: cfg,
		log: log.With().Str("component", "forecast.seasonal").Logger(),
	}
}

// Fit fits every business unit present in rows
func (f *SeasonalForecaster) Fit(rows []contracts.FeatureRow) Output {
	return fitAll(contracts.ModelSeasonal, f.cfg, rows, f.FitUnit, f.log)
}

// FitUnit fits one unit's rows, which must be sorted by date.
// No hold-out: the trend is fitted on the full deseasonalized history.
func (f *SeasonalForecaster) FitUnit(unit string, rows []contracts.FeatureRow) (contracts.ModelResult, error) {
	n := len(rows)
	y := revenues(rows)

	// 1. 월별 계절 지수
	factors, err := SeasonalFactors(rows)
	if err != nil {
		return contracts.ModelResult{}, err
	}

	// 2. 계절성 제거
	deseasonalized := make([]float64, n)
	for i, r := range rows {
		deseasonalized[i] = y[i] / factors[r.Date.Month()]
	}

	// 3. 추세 적합 (전 구간)
	model, err := fitIndex(deseasonalized)
	if err != nil {
		return contracts.ModelResult{}, err
	}

	// 4. 추세 예측 후 계절성 재적용
	dates := forecastDates(rows[n-1].Date, f.cfg.HorizonMonths)
	base := model.predictRange(n, n+f.cfg.HorizonMonths)
	forecast := ApplySeasonality(dates, base, factors)

	fitted := ApplySeasonality(rowDates(rows), model.predictRange(0, n), factors)

	f.log.Info().
		Str("business_unit", unit).
		Float64("slope", model.slope).
		Msg("seasonal model fitted")

	return contracts.ModelResult{
		BusinessUnit:    unit,
		Kind:            contracts.ModelSeasonal,
		Intercept:       model.intercept,
		Slope:           model.slope,
		SeasonalFactors: factors,
		BaseForecast:    zipPoints(dates, base),
		Forecast:        zipPoints(dates, forecast),
		Fitted:          zipPoints(rowDates(rows), fitted),
		Residuals:       residuals(y, fitted),
	}, nil
}

// SeasonalFactors returns mean revenue per calendar month divided by overall mean revenue.
// Only months present in rows get a factor.
func SeasonalFactors(rows []contracts.FeatureRow) (map[time.Month]float64, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no observations", ErrDegenerateFit)
	}

	overall := stat.Mean(revenues(rows), nil)
	if overall == 0 || !finite(overall) {
		return nil, fmt.Errorf("%w: overall mean revenue is %v", ErrDegenerateFit, overall)
	}

	byMonth := make(map[time.Month][]float64)
	for _, r := range rows {
		m := r.Date.Month()
		byMonth[m] = append(byMonth[m], r.Revenue)
	}

	factors := make(map[time.Month]float64, len(byMonth))
	for m, values := range byMonth {
		factor := stat.Mean(values, nil) / overall
		if factor == 0 || !finite(factor) {
			return nil, fmt.Errorf("%w: seasonal factor for %s is %v", ErrDegenerateFit, m, factor)
		}
		factors[m] = factor
	}
	return factors, nil
}

// ApplySeasonality multiplies each value by its month's factor (1.0 when absent)
func ApplySeasonality(dates []time.Time, values []float64, factors map[time.Month]float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		factor, ok := factors[dates[i].Month()]
		if !ok {
			factor = 1.0
		}
		out[i] = v * factor
	}
	return out
}
