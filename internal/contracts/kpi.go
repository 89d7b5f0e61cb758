package contracts

import "time"

// MonthlyKPIRow holds aggregate-across-units KPIs for one month.
// Rolling and lagged fields are nil until enough history exists.
type MonthlyKPIRow struct {
	Date           time.Time `json:"date"`
	Revenue        float64   `json:"revenue"`
	CustomerCount  int       `json:"customer_count"`
	MarketingSpend float64   `json:"marketing_spend"`
	SalesTeamSize  int       `json:"sales_team_size"`
	ProfitMargin   float64   `json:"profit_margin"` // 사업부 평균

	RevenueMoMGrowth  *float64 `json:"revenue_mom_growth,omitempty"`
	RevenueYoYGrowth  *float64 `json:"revenue_yoy_growth,omitempty"`
	Revenue3MAvg      *float64 `json:"revenue_3m_avg,omitempty"`
	Revenue12MAvg     *float64 `json:"revenue_12m_avg,omitempty"`
	Revenue3MSum      *float64 `json:"revenue_3m_sum,omitempty"`
	Revenue12MSum     *float64 `json:"revenue_12m_sum,omitempty"`
	CustomerMoMGrowth *float64 `json:"customer_mom_growth,omitempty"`

	RevenuePerCustomer      float64 `json:"revenue_per_customer"`
	CustomersPerSalesperson float64 `json:"customers_per_salesperson"`
	MarketingROI            float64 `json:"marketing_roi"`
	MarketingSpendRatio     float64 `json:"marketing_spend_ratio"`

	RevenueTargetAchievement *float64 `json:"revenue_target_achievement,omitempty"`
	ProfitMarginVsTarget     float64  `json:"profit_margin_vs_target"`
}

// UnitKPIRow is the latest-month snapshot for one business unit
type UnitKPIRow struct {
	BusinessUnit         string    `json:"business_unit"`
	LatestMonth          time.Time `json:"latest_month"`
	CurrentRevenue       float64   `json:"current_revenue"`
	PreviousMonthRevenue float64   `json:"previous_month_revenue"`
	MoMGrowth            float64   `json:"mom_growth"`
	YoYGrowth            float64   `json:"yoy_growth"`
	YTDRevenue           float64   `json:"ytd_revenue"`
	AvgMonthlyRevenue    float64   `json:"avg_monthly_revenue"`
	RevenueVolatility    float64   `json:"revenue_volatility"`
	CustomerCount        int       `json:"customer_count"`
	RevenuePerCustomer   float64   `json:"revenue_per_customer"`
	ProfitMargin         float64   `json:"profit_margin"`
	MarketingROI         float64   `json:"marketing_roi"`
}

// AdvancedKPIRow is one month of the outer join between aggregate revenue and KPI metrics.
// Any field may be nil when neither side nor forward fill supplies a value.
type AdvancedKPIRow struct {
	Date time.Time `json:"date"`

	Revenue        *float64 `json:"revenue,omitempty"`
	CustomerCount  *float64 `json:"customer_count,omitempty"`
	MarketingSpend *float64 `json:"marketing_spend,omitempty"`

	CustomerAcquisitionCost *float64 `json:"customer_acquisition_cost,omitempty"`
	CustomerLifetimeValue   *float64 `json:"customer_lifetime_value,omitempty"`
	ChurnRate               *float64 `json:"churn_rate,omitempty"`
	RetentionRate           *float64 `json:"retention_rate,omitempty"`
	NetPromoterScore        *float64 `json:"net_promoter_score,omitempty"`
	ConversionRate          *float64 `json:"conversion_rate,omitempty"`
	MarketShare             *float64 `json:"market_share,omitempty"`

	CLVToCACRatio       *float64 `json:"clv_to_cac_ratio,omitempty"`
	MarketPenetration   *float64 `json:"market_penetration,omitempty"`
	CustomerHealthScore *float64 `json:"customer_health_score,omitempty"`
	RevenueQualityScore *float64 `json:"revenue_quality_score,omitempty"`
}

// UnitHistoryRow is a revenue point enriched with per-unit derived metrics
type UnitHistoryRow struct {
	RevenuePoint

	RevenueMoMGrowth   *float64 `json:"revenue_mom_growth,omitempty"`
	RevenueYoYGrowth   *float64 `json:"revenue_yoy_growth,omitempty"`
	Revenue3MAvg       *float64 `json:"revenue_3m_avg,omitempty"`
	Revenue12MSum      *float64 `json:"revenue_12m_sum,omitempty"`
	CustomerMoMGrowth  *float64 `json:"customer_mom_growth,omitempty"`
	RevenuePerCustomer float64  `json:"revenue_per_customer"`
}

// AllUnits labels company-wide rows and alerts
const (
	AllUnits   = "All"
	TotalUnits = "Total"
)

// AlertType enumerates alert rules
type AlertType string

const (
	AlertRevenueDecline     AlertType = "Revenue Decline"
	AlertMonthlyRevenueDrop AlertType = "Monthly Revenue Drop"
	AlertLowProfitMargin    AlertType = "Low Profit Margin"
	AlertLowRetentionRate   AlertType = "Low Retention Rate"
	AlertHighChurnRate      AlertType = "High Churn Rate"
	AlertLowCLVCACRatio     AlertType = "Low CLV/CAC Ratio"
)

// Severity of an alert
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
)

// Alert is one performance alert
type Alert struct {
	Type         AlertType `json:"type"`
	BusinessUnit string    `json:"business_unit"`
	Message      string    `json:"message"`
	Severity     Severity  `json:"severity"`
	Value        float64   `json:"value"`
	Threshold    float64   `json:"threshold"`
}
