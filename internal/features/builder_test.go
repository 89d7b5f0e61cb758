package features

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/revcast/internal/contracts"
)

func monthlyPoints(unit string, start time.Time, revenues ...float64) []contracts.RevenuePoint {
	out := make([]contracts.RevenuePoint, len(revenues))
	for i, r := range revenues {
		out[i] = contracts.RevenuePoint{
			Date:         contracts.AddMonths(start, i),
			BusinessUnit: unit,
			Revenue:      r,
		}
	}
	return out
}

func seq(n int, base float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = base + float64(i)
	}
	return out
}

func TestBuild_CalendarFeatures(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	set := NewBuilder(zerolog.Nop()).Build(monthlyPoints("Sales", start, seq(6, 100)...))

	require.Len(t, set.Rows, 6)

	apr := set.Rows[3]
	assert.Equal(t, 4, apr.Month)
	assert.Equal(t, 2, apr.Quarter)
	assert.Equal(t, 2023, apr.Year)
	assert.Equal(t, 31+28+31, apr.DaysSinceStart)
	assert.InDelta(t, math.Sin(2*math.Pi*4/12), apr.SinMonth, 1e-12)
	assert.InDelta(t, math.Cos(2*math.Pi*4/12), apr.CosMonth, 1e-12)

	assert.Equal(t, 0, set.Rows[0].DaysSinceStart)
}

func TestBuild_LagsAndFill(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	set := NewBuilder(zerolog.Nop()).Build(monthlyPoints("Sales", start, 10, 20, 30, 40, 50))

	lag1 := make([]float64, len(set.Rows))
	lag3 := make([]float64, len(set.Rows))
	for i, r := range set.Rows {
		require.NotNil(t, r.RevenueLag1)
		require.NotNil(t, r.RevenueLag3)
		lag1[i] = *r.RevenueLag1
		lag3[i] = *r.RevenueLag3
	}

	// leading gap back-filled from the first shifted value
	assert.Equal(t, []float64{10, 10, 20, 30, 40}, lag1)
	assert.Equal(t, []float64{10, 10, 10, 10, 20}, lag3)
}

func TestBuild_FillCrossesUnits(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	points := append(
		monthlyPoints("A", start, 1, 2, 3),
		monthlyPoints("B", start, 100, 200, 300)...,
	)

	set := NewBuilder(zerolog.Nop()).Build(points)
	require.Len(t, set.Rows, 6)

	// B's first lag1 is forward filled from A's last lag1
	b0 := set.Rows[3]
	assert.Equal(t, "B", b0.BusinessUnit)
	assert.Equal(t, 2.0, *b0.RevenueLag1)
}

func TestBuild_Lag12Decision(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("omitted when no unit has 13 periods", func(t *testing.T) {
		set := NewBuilder(zerolog.Nop()).Build(monthlyPoints("A", start, seq(12, 1)...))
		assert.False(t, set.HasLag12)
		assert.NotContains(t, set.Columns, ColRevenueLag12)
		assert.Nil(t, set.Rows[0].RevenueLag12)
	})

	t.Run("included for every unit when one unit qualifies", func(t *testing.T) {
		points := append(
			monthlyPoints("Long", start, seq(13, 1)...),
			monthlyPoints("Short", start, seq(3, 1)...)...,
		)
		set := NewBuilder(zerolog.Nop()).Build(points)

		assert.True(t, set.HasLag12)
		assert.Contains(t, set.Columns, ColRevenueLag12)
		for _, r := range set.Rows {
			assert.NotNil(t, r.RevenueLag12, r.BusinessUnit)
		}
	})
}

func TestBuild_OrdersByUnitThenDate(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	points := monthlyPoints("Z", start, 1, 2, 3)
	points = append(points, monthlyPoints("A", start, 4, 5)...)
	points[0], points[2] = points[2], points[0]

	set := NewBuilder(zerolog.Nop()).Build(points)

	units, byUnit := SplitByUnit(set.Rows)
	assert.Equal(t, []string{"A", "Z"}, units)
	for _, rows := range byUnit {
		for i := 1; i < len(rows); i++ {
			assert.True(t, rows[i-1].Date.Before(rows[i].Date))
		}
	}
}

func TestBuild_Empty(t *testing.T) {
	set := NewBuilder(zerolog.Nop()).Build(nil)
	assert.Empty(t, set.Rows)
	assert.Equal(t, baseColumns, set.Columns)
}
