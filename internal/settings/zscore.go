package settings

import (
	"fmt"
	"math"
	"sort"
)

// ZScore maps a nominal two-sided coverage level to its normal quantile.
// 새 구간은 이 표에 항목을 추가해서 지원한다.
type ZScore struct {
	Coverage float64
	Label    string
	Z        float64
}

var zTable = []ZScore{
	{Coverage: 0.80, Label: "80%", Z: 1.28},
	{Coverage: 0.90, Label: "90%", Z: 1.645},
	{Coverage: 0.95, Label: "95%", Z: 1.96},
	{Coverage: 0.99, Label: "99%", Z: 2.576},
}

const coverageTolerance = 1e-9

// LookupZ returns the table entry for a coverage level
func LookupZ(coverage float64) (ZScore, error) {
	for _, z := range zTable {
		if math.Abs(z.Coverage-coverage) < coverageTolerance {
			return z, nil
		}
	}
	return ZScore{}, fmt.Errorf("no z-score for coverage %.4f", coverage)
}

// SupportedCoverages lists the table in ascending order
func SupportedCoverages() []float64 {
	out := make([]float64, len(zTable))
	for i, z := range zTable {
		out[i] = z.Coverage
	}
	sort.Float64s(out)
	return out
}
