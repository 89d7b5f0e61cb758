package contracts

import "time"

// FeatureRow is a RevenuePoint augmented with calendar, seasonal and lag features
type FeatureRow struct {
	RevenuePoint

	Month          int     `json:"month"`
	Quarter        int     `json:"quarter"`
	Year           int     `json:"year"`
	DaysSinceStart int     `json:"days_since_start"` // 데이터셋 최초 날짜 기준
	SinMonth       float64 `json:"sin_month"`
	CosMonth       float64 `json:"cos_month"`

	// 선행/후행 채움 이후에도 컬럼 전체가 비어 있으면 nil
	RevenueLag1  *float64 `json:"revenue_lag1,omitempty"`
	RevenueLag3  *float64 `json:"revenue_lag3,omitempty"`
	RevenueLag12 *float64 `json:"revenue_lag12,omitempty"`
}

// FeatureSet is the output of the feature builder
type FeatureSet struct {
	Rows     []FeatureRow `json:"rows"`
	Columns  []string     `json:"columns"`   // 모델 입력으로 쓰이는 피처 컬럼
	HasLag12 bool         `json:"has_lag12"` // 전체 데이터셋 기준 단일 결정
}

// ModelKind identifies a forecasting model
type ModelKind string

const (
	ModelLinearTrend ModelKind = "linear_trend"
	ModelSeasonal    ModelKind = "seasonal_decomposition"
	ModelEnsemble    ModelKind = "ensemble"
)

// ModelMetrics holds validation-slice accuracy
type ModelMetrics struct {
	MAE            float64 `json:"mae"`
	MSE            float64 `json:"mse"`
	R2             float64 `json:"r2"`
	TrainSize      int     `json:"train_size"`
	ValidationSize int     `json:"validation_size"`
}

// ForecastPoint is one (date, value) pair
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ModelResult is the fitted state and output of one model for one business unit
type ModelResult struct {
	BusinessUnit string    `json:"business_unit"`
	Kind         ModelKind `json:"kind"`

	// y = Intercept + Slope*t, t = 0-based period index
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`

	// 계절 모델만 사용
	SeasonalFactors map[time.Month]float64 `json:"seasonal_factors,omitempty"`
	BaseForecast    []ForecastPoint        `json:"base_forecast,omitempty"` // 계절성 재적용 전 추세

	// 추세 모델만 사용
	Metrics *ModelMetrics `json:"metrics,omitempty"`

	Forecast  []ForecastPoint `json:"forecast"`
	Fitted    []ForecastPoint `json:"fitted"`    // 관측 전 구간 in-sample 적합값
	Residuals []float64       `json:"residuals"` // actual - fitted
}

// EnsembleForecastRow is one merged forecast for (business_unit, date)
type EnsembleForecastRow struct {
	Date             time.Time `json:"date"`
	BusinessUnit     string    `json:"business_unit"`
	LinearForecast   float64   `json:"linear_forecast"`
	SeasonalForecast float64   `json:"seasonal_forecast"`
	EnsembleForecast float64   `json:"ensemble_forecast"`
	ForecastType     string    `json:"forecast_type"`
}

// ForecastTypePrediction tags every ensemble row
const ForecastTypePrediction = "prediction"

// ConfidenceInterval is a symmetric band around the ensemble forecast
type ConfidenceInterval struct {
	Coverage float64 `json:"coverage"`
	Label    string  `json:"label"` // "80%", "95%"
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// IntervalForecastRow attaches confidence intervals to an ensemble row
type IntervalForecastRow struct {
	EnsembleForecastRow
	Intervals []ConfidenceInterval `json:"intervals"`
}

// UnitFailure records a business unit excluded from a model
type UnitFailure struct {
	BusinessUnit string    `json:"business_unit"`
	Model        ModelKind `json:"model"`
	Reason       string    `json:"reason"`
}

// ForecastSummary describes the forecast table as a whole
type ForecastSummary struct {
	PeriodStart          time.Time `json:"period_start"`
	PeriodEnd            time.Time `json:"period_end"`
	TotalForecastRevenue float64   `json:"total_forecast_revenue"`
	AvgMonthlyForecast   float64   `json:"avg_monthly_forecast"`
	UnitsForecasted      int       `json:"business_units_forecasted"`
	ForecastRecords      int       `json:"forecast_records"`
}
