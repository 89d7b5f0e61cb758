package kpi

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/internal/settings"
)

func engine() *Engine {
	return NewEngine(settings.Default().KPI, zerolog.Nop())
}

func monthEnd(y int, m time.Month) time.Time {
	return time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

// history builds n month-end points starting January 2022
func history(unit string, n int, revenue func(i int) float64) []contracts.RevenuePoint {
	out := make([]contracts.RevenuePoint, n)
	for i := range out {
		out[i] = contracts.RevenuePoint{
			Date:           monthEnd(2022, time.January+time.Month(i)),
			BusinessUnit:   unit,
			Revenue:        revenue(i),
			CustomerCount:  100,
			MarketingSpend: 10000,
			ProfitMargin:   0.25,
			SalesTeamSize:  10,
		}
	}
	return out
}

func constant(v float64) func(int) float64 {
	return func(int) float64 { return v }
}

func TestAggregate(t *testing.T) {
	points := append(history("A", 2, constant(100)), history("B", 2, constant(300))...)
	points[0].ProfitMargin = 0.1
	points[2].ProfitMargin = 0.3

	agg := Aggregate(points)
	require.Len(t, agg, 2)

	assert.Equal(t, contracts.TotalUnits, agg[0].BusinessUnit)
	assert.Equal(t, 400.0, agg[0].Revenue)
	assert.Equal(t, 200, agg[0].CustomerCount)
	assert.Equal(t, 20, agg[0].SalesTeamSize)
	assert.InDelta(t, 0.2, agg[0].ProfitMargin, 1e-12)
	assert.True(t, agg[0].Date.Before(agg[1].Date))
}

func TestMonthly(t *testing.T) {
	rows := engine().Monthly(history("A", 14, func(i int) float64 { return 1000 + 100*float64(i) }))
	require.Len(t, rows, 14)

	first := rows[0]
	assert.Nil(t, first.RevenueMoMGrowth)
	assert.Nil(t, first.RevenueYoYGrowth)
	assert.Nil(t, first.Revenue3MAvg)
	assert.Nil(t, first.Revenue3MSum)
	assert.Nil(t, first.RevenueTargetAchievement)
	assert.Equal(t, 10.0, first.RevenuePerCustomer)
	assert.Equal(t, 10.0, first.CustomersPerSalesperson)
	assert.Equal(t, 0.1, first.MarketingROI)
	assert.Equal(t, 10.0, first.MarketingSpendRatio)
	assert.InDelta(t, 1.25, first.ProfitMarginVsTarget, 1e-12)

	third := rows[2]
	require.NotNil(t, third.Revenue3MAvg)
	assert.InDelta(t, 1100, *third.Revenue3MAvg, 1e-9)
	require.NotNil(t, third.Revenue3MSum)
	assert.InDelta(t, 3300, *third.Revenue3MSum, 1e-9)
	require.NotNil(t, third.RevenueMoMGrowth)
	assert.InDelta(t, 100.0/1100, *third.RevenueMoMGrowth, 1e-12)

	last := rows[13]
	require.NotNil(t, last.RevenueYoYGrowth)
	assert.InDelta(t, (2300.0-1100)/1100, *last.RevenueYoYGrowth, 1e-12)
	require.NotNil(t, last.RevenueTargetAchievement)
	assert.InDelta(t, *last.RevenueYoYGrowth/0.15, *last.RevenueTargetAchievement, 1e-12)
	require.NotNil(t, last.Revenue12MAvg)
	require.NotNil(t, last.Revenue12MSum)
	assert.InDelta(t, *last.Revenue12MAvg*12, *last.Revenue12MSum, 1e-6)
}

func TestMonthly_DivisionGuards(t *testing.T) {
	points := history("A", 2, constant(0))
	for i := range points {
		points[i].CustomerCount = 0
		points[i].MarketingSpend = 0
		points[i].SalesTeamSize = 0
	}

	rows := engine().Monthly(points)
	require.Len(t, rows, 2)
	r := rows[1]
	assert.Equal(t, 0.0, r.RevenuePerCustomer)
	assert.Equal(t, 0.0, r.CustomersPerSalesperson)
	assert.Equal(t, 0.0, r.MarketingROI)
	assert.Equal(t, 0.0, r.MarketingSpendRatio)
	require.NotNil(t, r.RevenueMoMGrowth)
	assert.Equal(t, 0.0, *r.RevenueMoMGrowth)
}

func TestUnits(t *testing.T) {
	// 2022-01 .. 2023-06, revenue grows by 10 each month
	points := history("Sales", 18, func(i int) float64 { return 100 + 10*float64(i) })

	rows := engine().Units(points)
	require.Len(t, rows, 1)
	u := rows[0]

	assert.Equal(t, "Sales", u.BusinessUnit)
	assert.Equal(t, monthEnd(2023, time.June), u.LatestMonth)
	assert.Equal(t, 270.0, u.CurrentRevenue)
	assert.Equal(t, 260.0, u.PreviousMonthRevenue)
	assert.InDelta(t, 10.0/260, u.MoMGrowth, 1e-12)

	// 2023-06-30 minus 300 days is 2022-09-03; last point on or before is 2022-08-31 (i=7)
	assert.InDelta(t, (270.0-170)/170, u.YoYGrowth, 1e-12)

	// 2023: i = 12..17
	assert.Equal(t, 220.0+230+240+250+260+270, u.YTDRevenue)
	assert.InDelta(t, 185, u.AvgMonthlyRevenue, 1e-9)
	assert.Greater(t, u.RevenueVolatility, 0.0)
	assert.Equal(t, 2.7, u.RevenuePerCustomer)
	assert.Equal(t, 0.25, u.ProfitMargin)
	assert.Equal(t, 0.027, u.MarketingROI)
}

func TestUnits_SinglePoint(t *testing.T) {
	rows := engine().Units(history("Solo", 1, constant(500)))
	require.Len(t, rows, 1)

	u := rows[0]
	assert.Equal(t, 500.0, u.PreviousMonthRevenue)
	assert.Equal(t, 0.0, u.MoMGrowth)
	assert.Equal(t, 0.0, u.YoYGrowth)
	assert.Equal(t, 0.0, u.RevenueVolatility)
}

func TestUnits_DivisionGuards(t *testing.T) {
	points := history("Zero", 3, constant(0))
	points[2].CustomerCount = 0
	points[2].MarketingSpend = 0

	u := engine().Units(points)[0]
	assert.Equal(t, 0.0, u.MoMGrowth)
	assert.Equal(t, 0.0, u.RevenueVolatility)
	assert.Equal(t, 0.0, u.RevenuePerCustomer)
	assert.Equal(t, 0.0, u.MarketingROI)
}

func TestAdvanced_OuterJoinAndFill(t *testing.T) {
	points := history("A", 3, constant(1000)) // Jan..Mar 2022

	metrics := []contracts.KPIMetricsPoint{
		{
			Date:                    monthEnd(2022, time.February),
			CustomerAcquisitionCost: contracts.Float(200),
			CustomerLifetimeValue:   contracts.Float(800),
			ChurnRate:               contracts.Float(0.04),
			RetentionRate:           contracts.Float(0.92),
			NetPromoterScore:        contracts.Float(50),
			ConversionRate:          contracts.Float(0.2),
			MarketShare:             contracts.Float(0.1),
		},
		{
			Date:                    monthEnd(2022, time.April),
			CustomerAcquisitionCost: contracts.Float(0),
			CustomerLifetimeValue:   contracts.Float(900),
			ChurnRate:               contracts.Float(0.06),
			RetentionRate:           contracts.Float(0.88),
			NetPromoterScore:        contracts.Float(40),
			ConversionRate:          contracts.Float(0.1),
			MarketShare:             contracts.Float(0.2),
		},
	}

	rows := engine().Advanced(points, metrics)
	require.Len(t, rows, 4)

	// January: revenue only, nothing to fill KPI columns from
	jan := rows[0]
	require.NotNil(t, jan.Revenue)
	assert.Nil(t, jan.ChurnRate)
	assert.Nil(t, jan.CLVToCACRatio)
	assert.Nil(t, jan.CustomerHealthScore)

	feb := rows[1]
	require.NotNil(t, feb.CLVToCACRatio)
	assert.InDelta(t, 4.0, *feb.CLVToCACRatio, 1e-12)
	assert.InDelta(t, 100*0.1, *feb.MarketPenetration, 1e-12)
	assert.InDelta(t, 0.92*0.4+0.5*0.3+0.2*0.3, *feb.CustomerHealthScore, 1e-12)
	assert.InDelta(t, 0.92*0.5+0.96*0.5, *feb.RevenueQualityScore, 1e-12)

	// March: KPI side forward filled from February
	mar := rows[2]
	require.NotNil(t, mar.ChurnRate)
	assert.Equal(t, 0.04, *mar.ChurnRate)

	// April: revenue side forward filled from March, CAC of 0 guarded
	apr := rows[3]
	require.NotNil(t, apr.Revenue)
	assert.Equal(t, 1000.0, *apr.Revenue)
	assert.Equal(t, 0.0, *apr.CLVToCACRatio)
	assert.InDelta(t, 100*0.2, *apr.MarketPenetration, 1e-12)
}

func TestAdvanced_BlankCellFilledPerColumn(t *testing.T) {
	points := history("A", 2, constant(1000)) // Jan..Feb 2022

	metrics := []contracts.KPIMetricsPoint{
		{
			Date:                    monthEnd(2022, time.January),
			CustomerAcquisitionCost: contracts.Float(200),
			CustomerLifetimeValue:   contracts.Float(800),
			ChurnRate:               contracts.Float(0.04),
			RetentionRate:           contracts.Float(0.92),
			NetPromoterScore:        contracts.Float(50),
			ConversionRate:          contracts.Float(0.2),
			MarketShare:             contracts.Float(0.1),
		},
		{
			// NPS blank: only that column comes from January
			Date:                    monthEnd(2022, time.February),
			CustomerAcquisitionCost: contracts.Float(250),
			CustomerLifetimeValue:   contracts.Float(750),
			ChurnRate:               contracts.Float(0.06),
			RetentionRate:           contracts.Float(0.91),
			ConversionRate:          contracts.Float(0.25),
			MarketShare:             contracts.Float(0.12),
		},
	}

	rows := engine().Advanced(points, metrics)
	require.Len(t, rows, 2)

	feb := rows[1]
	require.NotNil(t, feb.ChurnRate)
	assert.Equal(t, 0.06, *feb.ChurnRate)
	require.NotNil(t, feb.NetPromoterScore)
	assert.Equal(t, 50.0, *feb.NetPromoterScore)
	require.NotNil(t, feb.CLVToCACRatio)
	assert.InDelta(t, 3.0, *feb.CLVToCACRatio, 1e-12)
	require.NotNil(t, feb.CustomerHealthScore)
	assert.InDelta(t, 0.91*0.4+0.5*0.3+0.25*0.3, *feb.CustomerHealthScore, 1e-12)
}

func TestUnitHistory(t *testing.T) {
	points := append(
		history("B", 13, func(i int) float64 { return 100 * float64(i+1) }),
		history("A", 2, constant(50))...,
	)

	rows := engine().UnitHistory(points)
	require.Len(t, rows, 15)

	assert.Equal(t, "A", rows[0].BusinessUnit)
	assert.Nil(t, rows[0].RevenueMoMGrowth)
	assert.Equal(t, 0.5, rows[0].RevenuePerCustomer)

	b := rows[2:]
	assert.Nil(t, b[11].RevenueYoYGrowth)
	require.NotNil(t, b[12].RevenueYoYGrowth)
	assert.InDelta(t, (1300.0-100)/100, *b[12].RevenueYoYGrowth, 1e-12)
	require.NotNil(t, b[11].Revenue12MSum)
	assert.InDelta(t, 7800, *b[11].Revenue12MSum, 1e-9)

	summary := Summarize(rows, 7)
	assert.Equal(t, 15, summary.RevenueRecords)
	assert.Equal(t, 7, summary.KPIRecords)
	assert.Equal(t, 2, summary.BusinessUnits)
	require.NotNil(t, summary.AvgYoYGrowth)
	assert.InDelta(t, 12.0, *summary.AvgYoYGrowth, 1e-12)
}

func TestDashboard(t *testing.T) {
	e := engine()
	points := history("A", 15, constant(1000))
	monthly := e.Monthly(points)
	units := e.Units(points)
	advanced := e.Advanced(points, []contracts.KPIMetricsPoint{{
		Date:                    monthEnd(2022, time.January),
		CustomerAcquisitionCost: contracts.Float(100),
		CustomerLifetimeValue:   contracts.Float(500),
		RetentionRate:           contracts.Float(0.9),
		NetPromoterScore:        contracts.Float(60),
		ConversionRate:          contracts.Float(0.2),
		ChurnRate:               contracts.Float(0.03),
	}})

	d, err := e.Dashboard(monthly, units, advanced, nil)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, d.Summary.TotalRevenue)
	require.NotNil(t, d.Summary.RevenueGrowthYoY)
	assert.Equal(t, 0.0, *d.Summary.RevenueGrowthYoY)
	assert.Len(t, d.Trends.Revenue, 12)
	assert.Equal(t, monthEnd(2023, time.March), d.Trends.Revenue[11].Date)
	require.NotNil(t, d.Advanced.CLVCACRatio)
	assert.Equal(t, 5.0, *d.Advanced.CLVCACRatio)
	assert.NotNil(t, d.Alerts)

	_, err = e.Dashboard(nil, nil, nil, nil)
	assert.True(t, errors.Is(err, contracts.ErrMissingInput))
}

func TestDeterminism(t *testing.T) {
	points := append(history("A", 24, func(i int) float64 { return float64(1000 + i*i) }),
		history("B", 24, constant(700))...)

	e := engine()
	assert.Equal(t, e.Monthly(points), e.Monthly(points))
	assert.Equal(t, e.Units(points), e.Units(points))
}
