package kpi

import (
	"time"

	"github.com/wonny/revcast/internal/contracts"
)

// Dashboard is the KPI view served to reporting consumers
type Dashboard struct {
	Summary         SummaryMetrics         `json:"summary_metrics"`
	UnitPerformance []contracts.UnitKPIRow `json:"unit_performance"`
	Trends          TrendingMetrics        `json:"trending_metrics"`
	Advanced        AdvancedMetrics        `json:"advanced_metrics"`
	Alerts          []contracts.Alert      `json:"alerts"`
}

// SummaryMetrics latest-month company figures
type SummaryMetrics struct {
	Month              time.Time `json:"month"`
	TotalRevenue       float64   `json:"total_revenue"`
	RevenueGrowthYoY   *float64  `json:"revenue_growth_yoy,omitempty"`
	RevenueGrowthMoM   *float64  `json:"revenue_growth_mom,omitempty"`
	TotalCustomers     int       `json:"total_customers"`
	RevenuePerCustomer float64   `json:"revenue_per_customer"`
	ProfitMargin       float64   `json:"profit_margin"`
	MarketingROI       float64   `json:"marketing_roi"`
}

// TrendPoint one month of a trend line
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TrendingMetrics trailing series for charts
type TrendingMetrics struct {
	Revenue   []TrendPoint `json:"revenue_trend"`
	Customers []TrendPoint `json:"customer_trend"`
	Margin    []TrendPoint `json:"margin_trend"`
}

// AdvancedMetrics latest advanced KPI values
type AdvancedMetrics struct {
	CustomerHealth *float64 `json:"customer_health,omitempty"`
	RevenueQuality *float64 `json:"revenue_quality,omitempty"`
	CLVCACRatio    *float64 `json:"clv_cac_ratio,omitempty"`
	NPSScore       *float64 `json:"nps_score,omitempty"`
}

// Dashboard assembles the dashboard from computed tables.
// Returns contracts.ErrMissingInput when there is no monthly history.
func (e *Engine) Dashboard(monthly []contracts.MonthlyKPIRow, units []contracts.UnitKPIRow, advanced []contracts.AdvancedKPIRow, alerts []contracts.Alert) (*Dashboard, error) {
	if len(monthly) == 0 {
		return nil, contracts.ErrMissingInput
	}

	latest := monthly[len(monthly)-1]
	d := &Dashboard{
		Summary: SummaryMetrics{
			Month:              latest.Date,
			TotalRevenue:       latest.Revenue,
			RevenueGrowthYoY:   latest.RevenueYoYGrowth,
			RevenueGrowthMoM:   latest.RevenueMoMGrowth,
			TotalCustomers:     latest.CustomerCount,
			RevenuePerCustomer: latest.RevenuePerCustomer,
			ProfitMargin:       latest.ProfitMargin,
			MarketingROI:       latest.MarketingROI,
		},
		UnitPerformance: units,
		Alerts:          alerts,
	}

	from := len(monthly) - e.cfg.TrendMonths
	if from < 0 {
		from = 0
	}
	for _, m := range monthly[from:] {
		d.Trends.Revenue = append(d.Trends.Revenue, TrendPoint{Date: m.Date, Value: m.Revenue})
		d.Trends.Customers = append(d.Trends.Customers, TrendPoint{Date: m.Date, Value: float64(m.CustomerCount)})
		d.Trends.Margin = append(d.Trends.Margin, TrendPoint{Date: m.Date, Value: m.ProfitMargin})
	}

	if len(advanced) > 0 {
		last := advanced[len(advanced)-1]
		d.Advanced = AdvancedMetrics{
			CustomerHealth: last.CustomerHealthScore,
			RevenueQuality: last.RevenueQualityScore,
			CLVCACRatio:    last.CLVToCACRatio,
			NPSScore:       last.NetPromoterScore,
		}
	}

	if d.Alerts == nil {
		d.Alerts = []contracts.Alert{}
	}
	return d, nil
}
