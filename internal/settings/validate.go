package settings

import (
	"fmt"
	"time"
)

// ValidationError 검증 실패 (실행 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(s *Settings) error {
	// === Forecast ===
	if s.Forecast.HorizonMonths <= 0 {
		return ValidationError{"forecast.horizon_months", "must be > 0"}
	}
	if s.Forecast.MinHistoricalPeriods < 2 {
		return ValidationError{"forecast.min_historical_periods", "must be >= 2"}
	}
	if s.Forecast.TrainFraction <= 0 || s.Forecast.TrainFraction >= 1 {
		return ValidationError{"forecast.train_fraction", "must be in (0, 1)"}
	}
	// 학습/검증 구간이 모두 2개 이상이어야 R² 계산 가능
	minTrain := int(float64(s.Forecast.MinHistoricalPeriods) * s.Forecast.TrainFraction)
	if minTrain < 2 || s.Forecast.MinHistoricalPeriods-minTrain < 1 {
		return ValidationError{"forecast.train_fraction", "leaves an empty train or validation slice at the minimum history"}
	}
	if len(s.Forecast.ConfidenceLevels) == 0 {
		return ValidationError{"forecast.confidence_levels", "required"}
	}
	seen := make(map[float64]bool)
	for _, level := range s.Forecast.ConfidenceLevels {
		if _, err := LookupZ(level); err != nil {
			return ValidationError{"forecast.confidence_levels", fmt.Sprintf("%.4f not in %v", level, SupportedCoverages())}
		}
		if seen[level] {
			return ValidationError{"forecast.confidence_levels", fmt.Sprintf("duplicate level %.2f", level)}
		}
		seen[level] = true
	}
	switch s.Forecast.ErrorProxy {
	case "linear_trend", "seasonal_decomposition":
	default:
		return ValidationError{"forecast.error_proxy", "must be linear_trend or seasonal_decomposition"}
	}

	// === KPI ===
	if s.KPI.RevenueGrowthTarget <= 0 {
		return ValidationError{"kpi.revenue_growth_target", "must be > 0"}
	}
	if s.KPI.ProfitMarginTarget <= 0 || s.KPI.ProfitMarginTarget > 1 {
		return ValidationError{"kpi.profit_margin_target", "must be in (0, 1]"}
	}
	if s.KPI.CustomerRetentionTarget <= 0 || s.KPI.CustomerRetentionTarget > 1 {
		return ValidationError{"kpi.customer_retention_target", "must be in (0, 1]"}
	}
	if s.KPI.YearAgoLookbackDays <= 0 {
		return ValidationError{"kpi.year_ago_lookback_days", "must be > 0"}
	}
	if s.KPI.TrendMonths <= 0 {
		return ValidationError{"kpi.trend_months", "must be > 0"}
	}

	// === Alerts ===
	if s.Alerts.MoMDropThreshold >= 0 {
		return ValidationError{"alerts.mom_drop_threshold", "must be < 0"}
	}
	if s.Alerts.MaxChurnRate <= 0 || s.Alerts.MaxChurnRate >= 1 {
		return ValidationError{"alerts.max_churn_rate", "must be in (0, 1)"}
	}
	if s.Alerts.MinCLVToCACRatio <= 0 {
		return ValidationError{"alerts.min_clv_to_cac_ratio", "must be > 0"}
	}
	if s.Alerts.SummaryTopAlerts < 0 {
		return ValidationError{"alerts.summary_top_alerts", "must be >= 0"}
	}

	// === Report ===
	if s.Report.DateFormat == "" {
		return ValidationError{"report.date_format", "required"}
	}
	ref := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if _, err := time.Parse(s.Report.DateFormat, ref.Format(s.Report.DateFormat)); err != nil {
		return ValidationError{"report.date_format", "not a valid date layout"}
	}

	return nil
}
