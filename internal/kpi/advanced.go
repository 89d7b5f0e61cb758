package kpi

import (
	"sort"
	"time"

	"github.com/wonny/revcast/internal/contracts"
)

// Health and quality score weights
const (
	healthRetentionWeight  = 0.4
	healthNPSWeight        = 0.3
	healthConversionWeight = 0.3

	qualityRetentionWeight = 0.5
	qualityChurnWeight     = 0.5
)

// Advanced outer-joins the monthly revenue aggregate with the KPI metrics on date,
// forward fills every column, and derives ratio and score columns.
// A column with no earlier value stays nil, and so does anything derived from it.
func (e *Engine) Advanced(points []contracts.RevenuePoint, metrics []contracts.KPIMetricsPoint) []contracts.AdvancedKPIRow {
	rowsByDate := make(map[int64]*contracts.AdvancedKPIRow)
	row := func(d time.Time) *contracts.AdvancedKPIRow {
		k := d.Unix()
		r, ok := rowsByDate[k]
		if !ok {
			r = &contracts.AdvancedKPIRow{Date: d}
			rowsByDate[k] = r
		}
		return r
	}

	// 1. 매출 집계 측
	for _, p := range Aggregate(points) {
		r := row(p.Date)
		r.Revenue = contracts.Float(p.Revenue)
		r.CustomerCount = contracts.Float(float64(p.CustomerCount))
		r.MarketingSpend = contracts.Float(p.MarketingSpend)
	}

	// 2. KPI 측 (같은 날짜가 중복되면 마지막 값, 빈 셀은 유지 후 전방 채움)
	for _, m := range metrics {
		r := row(m.Date)
		setMetric(&r.CustomerAcquisitionCost, m.CustomerAcquisitionCost)
		setMetric(&r.CustomerLifetimeValue, m.CustomerLifetimeValue)
		setMetric(&r.ChurnRate, m.ChurnRate)
		setMetric(&r.RetentionRate, m.RetentionRate)
		setMetric(&r.NetPromoterScore, m.NetPromoterScore)
		setMetric(&r.ConversionRate, m.ConversionRate)
		setMetric(&r.MarketShare, m.MarketShare)
	}

	rows := make([]contracts.AdvancedKPIRow, 0, len(rowsByDate))
	for _, r := range rowsByDate {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	// 3. 조인 후 전방 채움
	forwardFill(rows)

	// 4. 파생 지표
	for i := range rows {
		r := &rows[i]
		r.CLVToCACRatio = ratioOf(r.CustomerLifetimeValue, r.CustomerAcquisitionCost)
		if r.CustomerCount != nil && r.MarketShare != nil {
			r.MarketPenetration = contracts.Float(*r.CustomerCount * *r.MarketShare)
		}
		if r.RetentionRate != nil && r.NetPromoterScore != nil && r.ConversionRate != nil {
			r.CustomerHealthScore = contracts.Float(
				*r.RetentionRate*healthRetentionWeight +
					*r.NetPromoterScore/100*healthNPSWeight +
					*r.ConversionRate*healthConversionWeight)
		}
		if r.RetentionRate != nil && r.ChurnRate != nil {
			r.RevenueQualityScore = contracts.Float(
				*r.RetentionRate*qualityRetentionWeight +
					(1-*r.ChurnRate)*qualityChurnWeight)
		}
	}

	e.log.Debug().
		Int("revenue_points", len(points)).
		Int("kpi_points", len(metrics)).
		Int("rows", len(rows)).
		Msg("advanced KPIs calculated")

	return rows
}

// setMetric copies a present value; nil leaves the cell blank
func setMetric(dst **float64, v *float64) {
	if v != nil {
		*dst = contracts.Float(*v)
	}
}

func forwardFill(rows []contracts.AdvancedKPIRow) {
	columns := []func(*contracts.AdvancedKPIRow) **float64{
		func(r *contracts.AdvancedKPIRow) **float64 { return &r.Revenue },
		func(r *contracts.AdvancedKPIRow) **float64 { return &r.CustomerCount },
		func(r *contracts.AdvancedKPIRow) **float64 { return &r.MarketingSpend },
		func(r *contracts.AdvancedKPIRow) **float64 { return &r.CustomerAcquisitionCost },
		func(r *contracts.AdvancedKPIRow) **float64 { return &r.CustomerLifetimeValue },
		func(r *contracts.AdvancedKPIRow) **float64 { return &r.ChurnRate },
		func(r *contracts.AdvancedKPIRow) **float64 { return &r.RetentionRate },
		func(r *contracts.AdvancedKPIRow) **float64 { return &r.NetPromoterScore },
		func(r *contracts.AdvancedKPIRow) **float64 { return &r.ConversionRate },
		func(r *contracts.AdvancedKPIRow) **float64 { return &r.MarketShare },
	}

	for _, col := range columns {
		var last *float64
		for i := range rows {
			v := col(&rows[i])
			if *v != nil {
				last = *v
				continue
			}
			if last != nil {
				*v = contracts.Float(*last)
			}
		}
	}
}
