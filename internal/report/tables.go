package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/wonny/revcast/internal/contracts"
)

func (w *Writer) date(t time.Time) string {
	return t.Format(w.meta.DateFormat)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// opt renders nil as an empty cell
func opt(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}

// =============================================================================
// Forecast tables
// =============================================================================

// ForecastTable revenue_forecasts.csv
func (w *Writer) ForecastTable(rows []contracts.EnsembleForecastRow) Table {
	t := Table{
		Name:   FileForecasts,
		Header: []string{"date", "business_unit", "linear_forecast", "seasonal_forecast", "ensemble_forecast", "forecast_type"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			w.date(r.Date), r.BusinessUnit,
			num(r.LinearForecast), num(r.SeasonalForecast), num(r.EnsembleForecast),
			r.ForecastType,
		})
	}
	return t
}

// IntervalTable forecast_intervals.csv with lower_NN/upper_NN per coverage level
func (w *Writer) IntervalTable(rows []contracts.IntervalForecastRow) Table {
	t := Table{
		Name:   FileIntervals,
		Header: []string{"date", "business_unit", "ensemble_forecast"},
	}
	if len(rows) > 0 {
		for _, ci := range rows[0].Intervals {
			level := strings.TrimSuffix(ci.Label, "%")
			t.Header = append(t.Header, "lower_"+level, "upper_"+level)
		}
	}

	for _, r := range rows {
		row := []string{w.date(r.Date), r.BusinessUnit, num(r.EnsembleForecast)}
		for _, ci := range r.Intervals {
			row = append(row, num(ci.Lower), num(ci.Upper))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ModelTable forecast_models.csv: fitted parameters and validation metrics per unit
func (w *Writer) ModelTable(results []contracts.ModelResult) Table {
	t := Table{
		Name:   FileForecastModels,
		Header: []string{"business_unit", "model", "intercept", "slope", "mae", "mse", "r2", "train_size", "validation_size"},
	}
	for _, r := range results {
		row := []string{r.BusinessUnit, string(r.Kind), num(r.Intercept), num(r.Slope)}
		if m := r.Metrics; m != nil {
			row = append(row, num(m.MAE), num(m.MSE), num(m.R2),
				strconv.Itoa(m.TrainSize), strconv.Itoa(m.ValidationSize))
		} else {
			row = append(row, "", "", "", "", "")
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// FailureTable forecast_failures.csv
func (w *Writer) FailureTable(failures []contracts.UnitFailure) Table {
	t := Table{
		Name:   FileForecastFailures,
		Header: []string{"business_unit", "model", "reason"},
	}
	for _, f := range failures {
		t.Rows = append(t.Rows, []string{f.BusinessUnit, string(f.Model), f.Reason})
	}
	return t
}

// =============================================================================
// KPI tables
// =============================================================================

// MonthlyKPITable monthly_kpis.csv
func (w *Writer) MonthlyKPITable(rows []contracts.MonthlyKPIRow) Table {
	t := Table{
		Name: FileMonthlyKPIs,
		Header: []string{
			"date", "revenue", "customer_count", "marketing_spend", "sales_team_size", "profit_margin",
			"revenue_mom_growth", "revenue_yoy_growth", "revenue_3m_avg", "revenue_12m_avg", "revenue_3m_sum",
			"revenue_12m_sum",
			"customer_mom_growth", "revenue_per_customer", "customers_per_salesperson", "marketing_roi",
			"marketing_spend_ratio", "revenue_target_achievement", "profit_margin_vs_target",
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			w.date(r.Date), num(r.Revenue), strconv.Itoa(r.CustomerCount), num(r.MarketingSpend),
			strconv.Itoa(r.SalesTeamSize), num(r.ProfitMargin),
			opt(r.RevenueMoMGrowth), opt(r.RevenueYoYGrowth), opt(r.Revenue3MAvg), opt(r.Revenue12MAvg),
			opt(r.Revenue3MSum), opt(r.Revenue12MSum), opt(r.CustomerMoMGrowth),
			num(r.RevenuePerCustomer), num(r.CustomersPerSalesperson), num(r.MarketingROI),
			num(r.MarketingSpendRatio), opt(r.RevenueTargetAchievement), num(r.ProfitMarginVsTarget),
		})
	}
	return t
}

// UnitKPITable unit_kpis.csv
func (w *Writer) UnitKPITable(rows []contracts.UnitKPIRow) Table {
	t := Table{
		Name: FileUnitKPIs,
		Header: []string{
			"business_unit", "latest_month", "current_revenue", "previous_month_revenue", "mom_growth",
			"yoy_growth", "ytd_revenue", "avg_monthly_revenue", "revenue_volatility", "customer_count",
			"revenue_per_customer", "profit_margin", "marketing_roi",
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.BusinessUnit, w.date(r.LatestMonth), num(r.CurrentRevenue), num(r.PreviousMonthRevenue),
			num(r.MoMGrowth), num(r.YoYGrowth), num(r.YTDRevenue), num(r.AvgMonthlyRevenue),
			num(r.RevenueVolatility), strconv.Itoa(r.CustomerCount), num(r.RevenuePerCustomer),
			num(r.ProfitMargin), num(r.MarketingROI),
		})
	}
	return t
}

// AdvancedKPITable advanced_kpis.csv
func (w *Writer) AdvancedKPITable(rows []contracts.AdvancedKPIRow) Table {
	t := Table{
		Name: FileAdvancedKPIs,
		Header: []string{
			"date", "revenue", "customer_count", "marketing_spend",
			"customer_acquisition_cost", "customer_lifetime_value", "churn_rate", "retention_rate",
			"net_promoter_score", "conversion_rate", "market_share",
			"clv_to_cac_ratio", "market_penetration", "customer_health_score", "revenue_quality_score",
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			w.date(r.Date), opt(r.Revenue), opt(r.CustomerCount), opt(r.MarketingSpend),
			opt(r.CustomerAcquisitionCost), opt(r.CustomerLifetimeValue), opt(r.ChurnRate), opt(r.RetentionRate),
			opt(r.NetPromoterScore), opt(r.ConversionRate), opt(r.MarketShare),
			opt(r.CLVToCACRatio), opt(r.MarketPenetration), opt(r.CustomerHealthScore), opt(r.RevenueQualityScore),
		})
	}
	return t
}

// AlertTable performance_alerts.csv
func (w *Writer) AlertTable(alerts []contracts.Alert) Table {
	t := Table{
		Name:   FileAlerts,
		Header: []string{"type", "business_unit", "message", "severity", "value", "threshold"},
	}
	for _, a := range alerts {
		t.Rows = append(t.Rows, []string{
			string(a.Type), a.BusinessUnit, a.Message, string(a.Severity), num(a.Value), num(a.Threshold),
		})
	}
	return t
}

// =============================================================================
// Processed history tables
// =============================================================================

// ProcessedRevenueTable processed_revenue.csv (per-unit enriched history)
func (w *Writer) ProcessedRevenueTable(rows []contracts.UnitHistoryRow) Table {
	t := Table{
		Name: FileProcessedRevenue,
		Header: []string{
			"date", "business_unit", "revenue", "customer_count", "profit_margin", "marketing_spend",
			"sales_team_size", "revenue_mom_growth", "revenue_yoy_growth", "revenue_3m_avg",
			"revenue_12m_sum", "customer_mom_growth", "revenue_per_customer",
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			w.date(r.Date), r.BusinessUnit, num(r.Revenue), strconv.Itoa(r.CustomerCount),
			num(r.ProfitMargin), num(r.MarketingSpend), strconv.Itoa(r.SalesTeamSize),
			opt(r.RevenueMoMGrowth), opt(r.RevenueYoYGrowth), opt(r.Revenue3MAvg),
			opt(r.Revenue12MSum), opt(r.CustomerMoMGrowth), num(r.RevenuePerCustomer),
		})
	}
	return t
}

// AggregatedRevenueTable aggregated_revenue.csv (all units summed per date)
func (w *Writer) AggregatedRevenueTable(points []contracts.RevenuePoint) Table {
	t := Table{
		Name:   FileAggregatedRevenue,
		Header: []string{"date", "revenue", "customer_count", "marketing_spend", "profit_margin", "sales_team_size", "business_unit"},
	}
	for _, p := range points {
		t.Rows = append(t.Rows, []string{
			w.date(p.Date), num(p.Revenue), strconv.Itoa(p.CustomerCount), num(p.MarketingSpend),
			num(p.ProfitMargin), strconv.Itoa(p.SalesTeamSize), p.BusinessUnit,
		})
	}
	return t
}
