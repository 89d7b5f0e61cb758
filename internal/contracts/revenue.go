package contracts

import (
	"errors"
	"sort"
	"time"
)

// ErrMissingInput is returned when required historical data is absent.
// 실행 전체를 중단시키는 유일한 오류.
var ErrMissingInput = errors.New("missing input data")

// RevenuePoint is one month of revenue history for a business unit
type RevenuePoint struct {
	Date           time.Time `json:"date"`
	BusinessUnit   string    `json:"business_unit"`
	Revenue        float64   `json:"revenue"`
	CustomerCount  int       `json:"customer_count"`
	MarketingSpend float64   `json:"marketing_spend"`
	ProfitMargin   float64   `json:"profit_margin"`
	SalesTeamSize  int       `json:"sales_team_size"`
}

// Series is the ordered history of a single business unit
type Series struct {
	BusinessUnit string         `json:"business_unit"`
	Points       []RevenuePoint `json:"points"`
}

// Len returns the number of observations
func (s Series) Len() int {
	return len(s.Points)
}

// Last returns the latest observation
func (s Series) Last() (RevenuePoint, bool) {
	if len(s.Points) == 0 {
		return RevenuePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Revenues returns the revenue column
func (s Series) Revenues() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Revenue
	}
	return out
}

// KPIMetricsPoint is one month of customer/market KPIs supplied independently of revenue.
// A nil metric is a blank cell; it is forward filled when joined with revenue.
type KPIMetricsPoint struct {
	Date                    time.Time `json:"date"`
	CustomerAcquisitionCost *float64  `json:"customer_acquisition_cost"`
	CustomerLifetimeValue   *float64  `json:"customer_lifetime_value"`
	ChurnRate               *float64  `json:"churn_rate"`
	RetentionRate           *float64  `json:"retention_rate"`
	NetPromoterScore        *float64  `json:"net_promoter_score"`
	ConversionRate          *float64  `json:"conversion_rate"`
	MarketShare             *float64  `json:"market_share"`
}

// Complete reports whether every metric is present
func (m KPIMetricsPoint) Complete() bool {
	return m.CustomerAcquisitionCost != nil && m.CustomerLifetimeValue != nil &&
		m.ChurnRate != nil && m.RetentionRate != nil && m.NetPromoterScore != nil &&
		m.ConversionRate != nil && m.MarketShare != nil
}

// SortPoints orders points by (business_unit, date) in place
func SortPoints(points []RevenuePoint) {
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].BusinessUnit != points[j].BusinessUnit {
			return points[i].BusinessUnit < points[j].BusinessUnit
		}
		return points[i].Date.Before(points[j].Date)
	})
}

// GroupByUnit splits points into per-unit series ordered by unit name, each sorted by date.
// The input slice is not modified.
func GroupByUnit(points []RevenuePoint) []Series {
	sorted := make([]RevenuePoint, len(points))
	copy(sorted, points)
	SortPoints(sorted)

	var out []Series
	for _, p := range sorted {
		if len(out) == 0 || out[len(out)-1].BusinessUnit != p.BusinessUnit {
			out = append(out, Series{BusinessUnit: p.BusinessUnit})
		}
		last := &out[len(out)-1]
		last.Points = append(last.Points, p)
	}
	return out
}

// MonthStart truncates t to the first day of its month (UTC)
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths returns the month start n months after t's month
func AddMonths(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
}

// Float returns a pointer to v (optional numeric fields)
func Float(v float64) *float64 {
	return &v
}
