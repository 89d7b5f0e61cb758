package kpi

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/revcast/internal/contracts"
)

// safeDiv returns 0 when the divisor is 0
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// pctChange (v[i]-v[i-p])/v[i-p]; nil for the first p entries
func pctChange(values []float64, periods int) []*float64 {
	out := make([]*float64, len(values))
	for i := periods; i < len(values); i++ {
		prev := values[i-periods]
		out[i] = contracts.Float(safeDiv(values[i]-prev, prev))
	}
	return out
}

// rollingMean trailing mean over a full window; nil until the window fills
func rollingMean(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	for i := window - 1; i < len(values); i++ {
		out[i] = contracts.Float(stat.Mean(values[i-window+1:i+1], nil))
	}
	return out
}

// rollingSum trailing sum over a full window; nil until the window fills
func rollingSum(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	for i := window - 1; i < len(values); i++ {
		out[i] = contracts.Float(floats.Sum(values[i-window+1 : i+1]))
	}
	return out
}

func ratioOf(num, den *float64) *float64 {
	if num == nil || den == nil {
		return nil
	}
	return contracts.Float(safeDiv(*num, *den))
}

func intsToFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
