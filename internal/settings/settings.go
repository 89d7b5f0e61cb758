package settings

// Settings holds every model and KPI parameter of a pipeline run
type Settings struct {
	Report   Report   `yaml:"report" json:"report"`
	Forecast Forecast `yaml:"forecast" json:"forecast"`
	KPI      KPI      `yaml:"kpi" json:"kpi"`
	Alerts   Alerts   `yaml:"alerts" json:"alerts"`
}

// Report 출력 메타 정보
type Report struct {
	Title       string `yaml:"title" json:"title"`
	CompanyName string `yaml:"company_name" json:"company_name"`
	Currency    string `yaml:"currency" json:"currency"`
	DateFormat  string `yaml:"date_format" json:"date_format"` // Go layout
}

// Forecast 예측 모델 파라미터
type Forecast struct {
	HorizonMonths        int       `yaml:"horizon_months" json:"horizon_months"`
	MinHistoricalPeriods int       `yaml:"min_historical_periods" json:"min_historical_periods"`
	TrainFraction        float64   `yaml:"train_fraction" json:"train_fraction"`
	ConfidenceLevels     []float64 `yaml:"confidence_levels" json:"confidence_levels"`

	// 신뢰구간 잔차 기준 모델: linear_trend | seasonal_decomposition
	ErrorProxy string `yaml:"error_proxy" json:"error_proxy"`
}

// KPI 목표치
type KPI struct {
	RevenueGrowthTarget     float64 `yaml:"revenue_growth_target" json:"revenue_growth_target"`
	ProfitMarginTarget      float64 `yaml:"profit_margin_target" json:"profit_margin_target"`
	CustomerRetentionTarget float64 `yaml:"customer_retention_target" json:"customer_retention_target"`
	YearAgoLookbackDays     int     `yaml:"year_ago_lookback_days" json:"year_ago_lookback_days"`
	TrendMonths             int     `yaml:"trend_months" json:"trend_months"` // 대시보드 추세 구간
}

// Alerts 알림 임계값
type Alerts struct {
	MoMDropThreshold float64 `yaml:"mom_drop_threshold" json:"mom_drop_threshold"`
	MaxChurnRate     float64 `yaml:"max_churn_rate" json:"max_churn_rate"`
	MinCLVToCACRatio float64 `yaml:"min_clv_to_cac_ratio" json:"min_clv_to_cac_ratio"`
	SummaryTopAlerts int     `yaml:"summary_top_alerts" json:"summary_top_alerts"`
}

// Default returns the built-in parameter set
func Default() *Settings {
	return &Settings{
		Report: Report{
			Title:       "Revenue Forecasting & KPI Dashboard",
			CompanyName: "Business Analytics Corp",
			Currency:    "USD",
			DateFormat:  "2006-01-02",
		},
		Forecast: Forecast{
			HorizonMonths:        12,
			MinHistoricalPeriods: 24,
			TrainFraction:        0.8,
			ConfidenceLevels:     []float64{0.80, 0.95},
			ErrorProxy:           "linear_trend",
		},
		KPI: KPI{
			RevenueGrowthTarget:     0.15,
			ProfitMarginTarget:      0.20,
			CustomerRetentionTarget: 0.90,
			YearAgoLookbackDays:     300,
			TrendMonths:             12,
		},
		Alerts: Alerts{
			MoMDropThreshold: -0.10,
			MaxChurnRate:     0.05,
			MinCLVToCACRatio: 3.0,
			SummaryTopAlerts: 5,
		},
	}
}
