package kpi

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/internal/settings"
)

// Engine computes monthly, per-unit and advanced KPIs from history
// ⭐ SSOT: KPI 계산은 예측과 독립
type Engine struct {
	cfg settings.KPI
	log zerolog.Logger
}

// NewEngine 새 KPI 엔진 생성
func NewEngine(cfg settings.KPI, log zerolog.Logger) *Engine {
	return &Engine{
		cfg: cfg,
		log: log.With().Str("component", "kpi.engine").Logger(),
	}
}

// =============================================================================
// Aggregation
// =============================================================================

// Aggregate sums every unit per date. Profit margin is the unit average.
// Rows are tagged business_unit "Total" and ordered by date.
func Aggregate(points []contracts.RevenuePoint) []contracts.RevenuePoint {
	type acc struct {
		point   contracts.RevenuePoint
		margins []float64
	}

	byDate := make(map[int64]*acc)
	var keys []int64
	for _, p := range points {
		k := p.Date.Unix()
		a, ok := byDate[k]
		if !ok {
			a = &acc{point: contracts.RevenuePoint{Date: p.Date, BusinessUnit: contracts.TotalUnits}}
			byDate[k] = a
			keys = append(keys, k)
		}
		a.point.Revenue += p.Revenue
		a.point.CustomerCount += p.CustomerCount
		a.point.MarketingSpend += p.MarketingSpend
		a.point.SalesTeamSize += p.SalesTeamSize
		a.margins = append(a.margins, p.ProfitMargin)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]contracts.RevenuePoint, len(keys))
	for i, k := range keys {
		a := byDate[k]
		a.point.ProfitMargin = stat.Mean(a.margins, nil)
		out[i] = a.point
	}
	return out
}

// =============================================================================
// Monthly aggregate KPIs
// =============================================================================

// Monthly computes one KPI row per historical month across all units
func (e *Engine) Monthly(points []contracts.RevenuePoint) []contracts.MonthlyKPIRow {
	agg := Aggregate(points)
	n := len(agg)

	revenue := make([]float64, n)
	customers := make([]int, n)
	for i, p := range agg {
		revenue[i] = p.Revenue
		customers[i] = p.CustomerCount
	}

	mom := pctChange(revenue, 1)
	yoy := pctChange(revenue, 12)
	avg3 := rollingMean(revenue, 3)
	avg12 := rollingMean(revenue, 12)
	sum3 := rollingSum(revenue, 3)
	sum12 := rollingSum(revenue, 12)
	custMoM := pctChange(intsToFloats(customers), 1)

	rows := make([]contracts.MonthlyKPIRow, n)
	for i, p := range agg {
		row := contracts.MonthlyKPIRow{
			Date:           p.Date,
			Revenue:        p.Revenue,
			CustomerCount:  p.CustomerCount,
			MarketingSpend: p.MarketingSpend,
			SalesTeamSize:  p.SalesTeamSize,
			ProfitMargin:   p.ProfitMargin,

			RevenueMoMGrowth:  mom[i],
			RevenueYoYGrowth:  yoy[i],
			Revenue3MAvg:      avg3[i],
			Revenue12MAvg:     avg12[i],
			Revenue3MSum:      sum3[i],
			Revenue12MSum:     sum12[i],
			CustomerMoMGrowth: custMoM[i],

			RevenuePerCustomer:      safeDiv(p.Revenue, float64(p.CustomerCount)),
			CustomersPerSalesperson: safeDiv(float64(p.CustomerCount), float64(p.SalesTeamSize)),
			MarketingROI:            safeDiv(p.Revenue, p.MarketingSpend),
			MarketingSpendRatio:     safeDiv(p.MarketingSpend, p.Revenue),

			ProfitMarginVsTarget: safeDiv(p.ProfitMargin, e.cfg.ProfitMarginTarget),
		}
		if yoy[i] != nil {
			row.RevenueTargetAchievement = contracts.Float(safeDiv(*yoy[i], e.cfg.RevenueGrowthTarget))
		}
		rows[i] = row
	}

	e.log.Debug().Int("months", n).Msg("monthly KPIs calculated")
	return rows
}

// =============================================================================
// Per-unit snapshot KPIs
// =============================================================================

// Units computes the latest-month snapshot for every business unit.
//
// The year-ago reference is the last observation dated at least
// YearAgoLookbackDays before the latest month, or the latest month itself
// when no such observation exists.
func (e *Engine) Units(points []contracts.RevenuePoint) []contracts.UnitKPIRow {
	series := contracts.GroupByUnit(points)
	rows := make([]contracts.UnitKPIRow, 0, len(series))

	for _, s := range series {
		latest, ok := s.Last()
		if !ok {
			continue
		}

		previous := latest
		if s.Len() > 1 {
			previous = s.Points[s.Len()-2]
		}

		yearAgo := latest
		cutoff := latest.Date.Add(-time.Duration(e.cfg.YearAgoLookbackDays) * 24 * time.Hour)
		for _, p := range s.Points {
			if p.Date.After(cutoff) {
				break
			}
			yearAgo = p
		}

		var ytd float64
		for _, p := range s.Points {
			if p.Date.Year() == latest.Date.Year() {
				ytd += p.Revenue
			}
		}

		revs := s.Revenues()
		mean := stat.Mean(revs, nil)
		var volatility float64
		if len(revs) > 1 {
			volatility = safeDiv(stat.StdDev(revs, nil), mean)
		}

		rows = append(rows, contracts.UnitKPIRow{
			BusinessUnit:         s.BusinessUnit,
			LatestMonth:          latest.Date,
			CurrentRevenue:       latest.Revenue,
			PreviousMonthRevenue: previous.Revenue,
			MoMGrowth:            safeDiv(latest.Revenue-previous.Revenue, previous.Revenue),
			YoYGrowth:            safeDiv(latest.Revenue-yearAgo.Revenue, yearAgo.Revenue),
			YTDRevenue:           ytd,
			AvgMonthlyRevenue:    mean,
			RevenueVolatility:    volatility,
			CustomerCount:        latest.CustomerCount,
			RevenuePerCustomer:   safeDiv(latest.Revenue, float64(latest.CustomerCount)),
			ProfitMargin:         latest.ProfitMargin,
			MarketingROI:         safeDiv(latest.Revenue, latest.MarketingSpend),
		})
	}

	e.log.Debug().Int("units", len(rows)).Msg("unit KPIs calculated")
	return rows
}
