package features

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/revcast/internal/contracts"
)

// Feature column names
const (
	ColDaysSinceStart = "days_since_start"
	ColMonth          = "month"
	ColQuarter        = "quarter"
	ColSinMonth       = "sin_month"
	ColCosMonth       = "cos_month"
	ColCustomerCount  = "customer_count"
	ColMarketingSpend = "marketing_spend"
	ColSalesTeamSize  = "sales_team_size"
	ColRevenueLag1    = "revenue_lag1"
	ColRevenueLag3    = "revenue_lag3"
	ColRevenueLag12   = "revenue_lag12"
)

var baseColumns = []string{
	ColDaysSinceStart, ColMonth, ColQuarter, ColSinMonth, ColCosMonth,
	ColCustomerCount, ColMarketingSpend, ColSalesTeamSize,
	ColRevenueLag1, ColRevenueLag3,
}

// Builder derives calendar, seasonal and lag features
type Builder struct {
	log zerolog.Logger
}

// NewBuilder 새 피처 빌더 생성
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{
		log: log.With().Str("component", "features.builder").Logger(),
	}
}

// Build produces one FeatureRow per input point, ordered by (business_unit, date).
//
// Lags are shifted within each unit. Gaps left by the shift are then filled
// forward and backward over the whole ordered table, so a unit's leading lag
// values can come from the previous unit. revenue_lag12 is a model column only
// if any row of the dataset has a value for it.
func (b *Builder) Build(points []contracts.RevenuePoint) contracts.FeatureSet {
	if len(points) == 0 {
		return contracts.FeatureSet{Columns: append([]string(nil), baseColumns...)}
	}

	series := contracts.GroupByUnit(points)
	start := minDate(points)

	rows := make([]contracts.FeatureRow, 0, len(points))
	for _, s := range series {
		revenues := s.Revenues()
		for i, p := range s.Points {
			month := int(p.Date.Month())
			angle := 2 * math.Pi * float64(month) / 12

			rows = append(rows, contracts.FeatureRow{
				RevenuePoint:   p,
				Month:          month,
				Quarter:        (month-1)/3 + 1,
				Year:           p.Date.Year(),
				DaysSinceStart: int(math.Round(p.Date.Sub(start).Hours() / 24)),
				SinMonth:       math.Sin(angle),
				CosMonth:       math.Cos(angle),
				RevenueLag1:    lag(revenues, i, 1),
				RevenueLag3:    lag(revenues, i, 3),
				RevenueLag12:   lag(revenues, i, 12),
			})
		}
	}

	// 전체 테이블 기준 ffill → bfill
	fillColumn(rows, func(r *contracts.FeatureRow) **float64 { return &r.RevenueLag1 })
	fillColumn(rows, func(r *contracts.FeatureRow) **float64 { return &r.RevenueLag3 })
	hasLag12 := fillColumn(rows, func(r *contracts.FeatureRow) **float64 { return &r.RevenueLag12 })

	columns := append([]string(nil), baseColumns...)
	if hasLag12 {
		columns = append(columns, ColRevenueLag12)
	} else {
		b.log.Info().Msg("no unit has more than 12 periods, revenue_lag12 omitted")
	}

	b.log.Debug().
		Int("rows", len(rows)).
		Int("units", len(series)).
		Strs("columns", columns).
		Msg("features built")

	return contracts.FeatureSet{
		Rows:     rows,
		Columns:  columns,
		HasLag12: hasLag12,
	}
}

// SplitByUnit regroups feature rows into per-unit slices keyed by business unit.
// Order inside each slice follows the input order.
func SplitByUnit(rows []contracts.FeatureRow) ([]string, map[string][]contracts.FeatureRow) {
	var units []string
	byUnit := make(map[string][]contracts.FeatureRow)
	for _, r := range rows {
		if _, ok := byUnit[r.BusinessUnit]; !ok {
			units = append(units, r.BusinessUnit)
		}
		byUnit[r.BusinessUnit] = append(byUnit[r.BusinessUnit], r)
	}
	return units, byUnit
}

func lag(values []float64, i, k int) *float64 {
	if i-k < 0 {
		return nil
	}
	return contracts.Float(values[i-k])
}

// fillColumn forward fills then backward fills one optional column.
// Returns false when the column has no value at all.
func fillColumn(rows []contracts.FeatureRow, field func(*contracts.FeatureRow) **float64) bool {
	var last *float64
	for i := range rows {
		v := field(&rows[i])
		if *v != nil {
			last = *v
			continue
		}
		if last != nil {
			*v = contracts.Float(*last)
		}
	}

	if last == nil {
		return false
	}

	var next *float64
	for i := len(rows) - 1; i >= 0; i-- {
		v := field(&rows[i])
		if *v != nil {
			next = *v
			continue
		}
		*v = contracts.Float(*next)
	}
	return true
}

func minDate(points []contracts.RevenuePoint) time.Time {
	earliest := points[0].Date
	for _, p := range points[1:] {
		if p.Date.Before(earliest) {
			earliest = p.Date
		}
	}
	return earliest
}
