package kpi

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/revcast/internal/contracts"
)

// UnitHistory enriches every point with per-unit growth, rolling and ratio metrics.
// Output is ordered by (business_unit, date).
func (e *Engine) UnitHistory(points []contracts.RevenuePoint) []contracts.UnitHistoryRow {
	out := make([]contracts.UnitHistoryRow, 0, len(points))

	for _, s := range contracts.GroupByUnit(points) {
		revs := s.Revenues()
		customers := make([]int, s.Len())
		for i, p := range s.Points {
			customers[i] = p.CustomerCount
		}

		mom := pctChange(revs, 1)
		yoy := pctChange(revs, 12)
		avg3 := rollingMean(revs, 3)
		sum12 := rollingSum(revs, 12)
		custMoM := pctChange(intsToFloats(customers), 1)

		for i, p := range s.Points {
			out = append(out, contracts.UnitHistoryRow{
				RevenuePoint:       p,
				RevenueMoMGrowth:   mom[i],
				RevenueYoYGrowth:   yoy[i],
				Revenue3MAvg:       avg3[i],
				Revenue12MSum:      sum12[i],
				CustomerMoMGrowth:  custMoM[i],
				RevenuePerCustomer: safeDiv(p.Revenue, float64(p.CustomerCount)),
			})
		}
	}
	return out
}

// DataSummary describes the cleaned inputs of a run
type DataSummary struct {
	RevenueRecords    int       `json:"revenue_records"`
	KPIRecords        int       `json:"kpi_records"`
	BusinessUnits     int       `json:"business_units"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	TotalRevenue      float64   `json:"total_revenue"`
	AvgMonthlyRevenue float64   `json:"avg_monthly_revenue"`
	AvgYoYGrowth      *float64  `json:"avg_yoy_growth,omitempty"` // 관측 가능한 YoY 평균
}

// Summarize builds a DataSummary from enriched history
func Summarize(history []contracts.UnitHistoryRow, kpiRecords int) DataSummary {
	s := DataSummary{
		RevenueRecords: len(history),
		KPIRecords:     kpiRecords,
	}
	if len(history) == 0 {
		return s
	}

	units := make(map[string]struct{})
	revenues := make([]float64, len(history))
	var yoy []float64

	s.StartDate = history[0].Date
	s.EndDate = history[0].Date
	for i, h := range history {
		units[h.BusinessUnit] = struct{}{}
		revenues[i] = h.Revenue
		s.TotalRevenue += h.Revenue
		if h.Date.Before(s.StartDate) {
			s.StartDate = h.Date
		}
		if h.Date.After(s.EndDate) {
			s.EndDate = h.Date
		}
		if h.RevenueYoYGrowth != nil {
			yoy = append(yoy, *h.RevenueYoYGrowth)
		}
	}

	s.BusinessUnits = len(units)
	s.AvgMonthlyRevenue = stat.Mean(revenues, nil)
	if len(yoy) > 0 {
		s.AvgYoYGrowth = contracts.Float(stat.Mean(yoy, nil))
	}
	return s
}
