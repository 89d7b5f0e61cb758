package ingest

import (
	"math"
	"math/rand"
	"time"

	"github.com/wonny/revcast/internal/contracts"
)

// SampleConfig controls synthetic history generation
type SampleConfig struct {
	Seed   int64
	Start  time.Time // 첫 달 (월말로 정규화)
	Months int
	Units  []string
}

// DefaultSampleConfig three years of five business units
func DefaultSampleConfig() SampleConfig {
	return SampleConfig{
		Seed:   42,
		Start:  time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC),
		Months: 36,
		Units:  []string{"Sales", "Marketing", "Enterprise", "SMB", "International"},
	}
}

// Sample generated revenue and KPI history
type Sample struct {
	Revenue []contracts.RevenuePoint
	KPIs    []contracts.KPIMetricsPoint
}

// GenerateSample builds reproducible month-end history.
// Revenue = trend × (1 + seasonal + noise) where the trend compounds an
// annual growth rate and the seasonal term is a 12-month sine wave.
func GenerateSample(cfg SampleConfig) Sample {
	rng := rand.New(rand.NewSource(cfg.Seed))

	dates := make([]time.Time, cfg.Months)
	for i := range dates {
		dates[i] = monthEnd(contracts.AddMonths(contracts.MonthStart(cfg.Start), i))
	}

	var s Sample
	for _, unit := range cfg.Units {
		base := uniform(rng, 100000, 500000)
		growth := uniform(rng, 0.05, 0.20)
		seasonality := uniform(rng, 0.1, 0.3)

		for i, date := range dates {
			trend := base * math.Pow(1+growth, float64(i)/12)
			seasonal := seasonality * math.Sin(2*math.Pi*float64(i)/12)
			noise := rng.NormFloat64() * 0.1

			revenue := math.Max(0, trend*(1+seasonal+noise))
			customers := int(revenue / uniform(rng, 1000, 5000))

			s.Revenue = append(s.Revenue, contracts.RevenuePoint{
				Date:           date,
				BusinessUnit:   unit,
				Revenue:        round(revenue, 2),
				CustomerCount:  customers,
				ProfitMargin:   round(uniform(rng, 0.15, 0.35), 3),
				MarketingSpend: round(revenue*uniform(rng, 0.05, 0.15), 2),
				SalesTeamSize:  5 + rng.Intn(21),
			})
		}
	}

	for _, date := range dates {
		s.KPIs = append(s.KPIs, contracts.KPIMetricsPoint{
			Date:                    date,
			CustomerAcquisitionCost: contracts.Float(round(uniform(rng, 150, 800), 2)),
			CustomerLifetimeValue:   contracts.Float(round(uniform(rng, 2000, 8000), 2)),
			ChurnRate:               contracts.Float(round(uniform(rng, 0.02, 0.08), 3)),
			RetentionRate:           contracts.Float(round(uniform(rng, 0.88, 0.96), 3)),
			NetPromoterScore:        contracts.Float(float64(30 + rng.Intn(41))),
			ConversionRate:          contracts.Float(round(uniform(rng, 0.12, 0.28), 3)),
			MarketShare:             contracts.Float(round(uniform(rng, 0.05, 0.15), 3)),
		})
	}

	return s
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// monthEnd 해당 월의 마지막 날
func monthEnd(monthStart time.Time) time.Time {
	return contracts.AddMonths(monthStart, 1).AddDate(0, 0, -1)
}
