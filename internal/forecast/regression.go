package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrInsufficientHistory unit has fewer observations than the minimum
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrDegenerateFit fitting produced non-finite parameters or a zero seasonal base
	ErrDegenerateFit = errors.New("degenerate fit")
)

// =============================================================================
// Ordinary least squares on a time index
// =============================================================================

// line is y = intercept + slope*x
type line struct {
	intercept float64
	slope     float64
}

func (l line) at(x float64) float64 {
	return l.intercept + l.slope*x
}

// fitIndex regresses y on the index x = 0..len(y)-1
func fitIndex(y []float64) (line, error) {
	if len(y) < 2 {
		return line{}, fmt.Errorf("%w: need at least 2 points, got %d", ErrDegenerateFit, len(y))
	}

	x := indexRange(0, len(y))
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	if !finite(alpha) || !finite(beta) {
		return line{}, fmt.Errorf("%w: intercept=%v slope=%v", ErrDegenerateFit, alpha, beta)
	}
	return line{intercept: alpha, slope: beta}, nil
}

// predictRange evaluates l at x = from..to-1
func (l line) predictRange(from, to int) []float64 {
	out := make([]float64, 0, to-from)
	for x := from; x < to; x++ {
		out = append(out, l.at(float64(x)))
	}
	return out
}

func indexRange(from, to int) []float64 {
	x := make([]float64, 0, to-from)
	for i := from; i < to; i++ {
		x = append(x, float64(i))
	}
	return x
}

// =============================================================================
// Accuracy metrics
// =============================================================================

// meanAbsoluteError MAE
func meanAbsoluteError(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var sum float64
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

// meanSquaredError MSE
func meanSquaredError(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	diff := make([]float64, len(actual))
	floats.SubTo(diff, actual, predicted)
	return floats.Dot(diff, diff) / float64(len(actual))
}

// rSquared coefficient of determination.
// 상수 실제값(분산 0)은 완전 적합이면 1, 아니면 0.
func rSquared(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	r2 := stat.RSquaredFrom(predicted, actual, nil)
	if finite(r2) {
		return r2
	}
	if meanSquaredError(actual, predicted) == 0 {
		return 1
	}
	return 0
}

// residuals actual - fitted
func residuals(actual, fitted []float64) []float64 {
	out := make([]float64, len(actual))
	floats.SubTo(out, actual, fitted)
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func sqrt(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}
