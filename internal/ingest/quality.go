package ingest

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/revcast/internal/contracts"
)

// QualityConfig holds quality gate thresholds
type QualityConfig struct {
	MinHistory int     // 예측 가능 최소 관측 개월 수
	MinScore   float64 // 0.80 미만이면 경고
}

// Coverage keys
const (
	CoverageMonths    = "months"    // 관측 개월 / 기대 개월
	CoverageCustomers = "customers" // customer_count > 0
	CoverageMarketing = "marketing" // marketing_spend > 0
	CoverageMargin    = "margin"    // profit_margin != 0
)

// UnitCoverage describes one business unit's history
type UnitCoverage struct {
	BusinessUnit string    `json:"business_unit"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Months       int       `json:"months"`   // 관측된 고유 월
	Expected     int       `json:"expected"` // start~end 월 수
	Gaps         int       `json:"gaps"`
	Duplicates   int       `json:"duplicates"`
	Eligible     bool      `json:"eligible"` // Months >= MinHistory
}

// QualityReport is the result of a quality check
type QualityReport struct {
	Units         []UnitCoverage     `json:"units"`
	Coverage      map[string]float64 `json:"coverage"`
	Score         float64            `json:"score"`
	EligibleUnits int                `json:"eligible_units"`
	Passed        bool               `json:"passed"`
	Warnings      []string           `json:"warnings,omitempty"`
}

// QualityGate validates history coverage before modelling
type QualityGate struct {
	config QualityConfig
	log    zerolog.Logger
}

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(config QualityConfig, log zerolog.Logger) *QualityGate {
	if config.MinScore == 0 {
		config.MinScore = 0.80
	}
	return &QualityGate{
		config: config,
		log:    log.With().Str("component", "ingest.quality").Logger(),
	}
}

// Check validates coverage of the cleaned revenue history
// ⭐ SSOT: P0 입력 품질 검증
func (g *QualityGate) Check(points []contracts.RevenuePoint) QualityReport {
	report := QualityReport{
		Units:    []UnitCoverage{},
		Coverage: make(map[string]float64),
	}
	if len(points) == 0 {
		report.Warnings = append(report.Warnings, "no revenue history")
		return report
	}

	// 1. 사업부별 커버리지
	observed, expected := 0, 0
	for _, s := range contracts.GroupByUnit(points) {
		uc := g.unitCoverage(s)
		observed += uc.Months
		expected += uc.Expected

		if uc.Eligible {
			report.EligibleUnits++
		} else {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s: %d months of history, %d required for forecasting", uc.BusinessUnit, uc.Months, g.config.MinHistory))
		}
		if uc.Gaps > 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %d missing months", uc.BusinessUnit, uc.Gaps))
		}
		if uc.Duplicates > 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %d duplicate months", uc.BusinessUnit, uc.Duplicates))
		}
		report.Units = append(report.Units, uc)
	}

	// 2. 필드 커버리지
	var customers, marketing, margin int
	for _, p := range points {
		if p.CustomerCount > 0 {
			customers++
		}
		if p.MarketingSpend > 0 {
			marketing++
		}
		if p.ProfitMargin != 0 {
			margin++
		}
	}
	n := float64(len(points))
	report.Coverage[CoverageMonths] = float64(observed) / float64(expected)
	report.Coverage[CoverageCustomers] = float64(customers) / n
	report.Coverage[CoverageMarketing] = float64(marketing) / n
	report.Coverage[CoverageMargin] = float64(margin) / n

	// 3. 품질 점수
	report.Score = g.calculateScore(report.Coverage)
	report.Passed = report.Score >= g.config.MinScore

	if !report.Passed {
		g.log.Warn().
			Float64("score", report.Score).
			Float64("min_score", g.config.MinScore).
			Int("warnings", len(report.Warnings)).
			Msg("History quality below threshold")
	}
	return report
}

func (g *QualityGate) unitCoverage(s contracts.Series) UnitCoverage {
	first := s.Points[0]
	last, _ := s.Last()

	uc := UnitCoverage{
		BusinessUnit: s.BusinessUnit,
		Start:        contracts.MonthStart(first.Date),
		End:          contracts.MonthStart(last.Date),
	}
	uc.Expected = monthIndex(uc.End) - monthIndex(uc.Start) + 1

	seen := make(map[int]bool, len(s.Points))
	for _, p := range s.Points {
		idx := monthIndex(p.Date)
		if seen[idx] {
			uc.Duplicates++
			continue
		}
		seen[idx] = true
	}
	uc.Months = len(seen)
	uc.Gaps = uc.Expected - uc.Months
	uc.Eligible = uc.Months >= g.config.MinHistory
	return uc
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

// calculateScore calculates overall quality score using weighted average
func (g *QualityGate) calculateScore(coverage map[string]float64) float64 {
	// 가중치 (합계 = 1.0)
	weights := map[string]float64{
		CoverageMonths:    0.40, // 연속 월 이력 필수
		CoverageCustomers: 0.20,
		CoverageMarketing: 0.20,
		CoverageMargin:    0.20,
	}

	score := 0.0
	for key, weight := range weights {
		if cov, exists := coverage[key]; exists {
			score += cov * weight
		}
	}

	return score
}
