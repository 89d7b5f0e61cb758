package forecast

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/internal/settings"
)

// TrendForecaster fits a linear trend per business unit
// ⭐ SSOT: 선형 추세 모델
type TrendForecaster struct {
	cfg settings.Forecast
	log zerolog.Logger
}

// NewTrendForecaster 새 추세 예측기 생성
func NewTrendForecaster(cfg settings.Forecast, log zerolog.Logger) *TrendForecaster {
	return &TrendForecaster{
		cfg: cfg,
		log: log.With().Str("component", "forecast.trend").Logger(),
	}
}

// Fit fits every business unit present in rows
func (f *TrendForecaster) Fit(rows []contracts.FeatureRow) Output {
	return fitAll(contracts.ModelLinearTrend, f.cfg, rows, f.FitUnit, f.log)
}

// FitUnit fits one unit's rows, which must be sorted by date.
//
// The first TrainFraction of the series trains the model and the rest is held
// out for MAE/MSE/R². Fitted values and residuals cover the entire series.
func (f *TrendForecaster) FitUnit(unit string, rows []contracts.FeatureRow) (contracts.ModelResult, error) {
	n := len(rows)
	y := revenues(rows)

	// 1. 시간 순서 유지한 단일 분할
	split := int(float64(n) * f.cfg.TrainFraction)
	if split < 2 || split >= n {
		return contracts.ModelResult{}, fmt.Errorf("%w: split %d of %d leaves an empty slice", ErrDegenerateFit, split, n)
	}

	// 2. 학습 구간 OLS
	model, err := fitIndex(y[:split])
	if err != nil {
		return contracts.ModelResult{}, err
	}

	// 3. 검증 구간 지표
	predicted := model.predictRange(split, n)
	metrics := &contracts.ModelMetrics{
		MAE:            meanAbsoluteError(y[split:], predicted),
		MSE:            meanSquaredError(y[split:], predicted),
		R2:             rSquared(y[split:], predicted),
		TrainSize:      split,
		ValidationSize: n - split,
	}

	// 4. 전 구간 적합값과 미래 예측
	fitted := model.predictRange(0, n)
	future := model.predictRange(n, n+f.cfg.HorizonMonths)

	f.log.Info().
		Str("business_unit", unit).
		Float64("r2", metrics.R2).
		Float64("mae", metrics.MAE).
		Msg("linear model fitted")

	return contracts.ModelResult{
		BusinessUnit: unit,
		Kind:         contracts.ModelLinearTrend,
		Intercept:    model.intercept,
		Slope:        model.slope,
		Metrics:      metrics,
		Forecast:     zipPoints(forecastDates(rows[n-1].Date, f.cfg.HorizonMonths), future),
		Fitted:       zipPoints(rowDates(rows), fitted),
		Residuals:    residuals(y, fitted),
	}, nil
}
