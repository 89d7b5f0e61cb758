package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/revcast/internal/contracts"
)

// RevenueRecord is one raw revenue row before validation.
// nil means the cell was empty or unparseable.
type RevenueRecord struct {
	Date           *time.Time
	BusinessUnit   string
	Revenue        *float64
	CustomerCount  int
	MarketingSpend float64
	ProfitMargin   float64
	SalesTeamSize  int
}

// dateLayouts accepted for the date column
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// parseFloat returns nil for empty, NaN or malformed cells
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func floatOrZero(s string) float64 {
	if v := parseFloat(s); v != nil {
		return *v
	}
	return 0
}

// intOrZero accepts "12" and "12.0"
func intOrZero(s string) int {
	return int(floatOrZero(s))
}

// Clean drops records with a missing date, a missing business unit,
// or a missing or negative revenue. When (business_unit, date) repeats,
// the last record in input order is kept.
// Returns the valid points and the number of dropped records.
func Clean(records []RevenueRecord, log zerolog.Logger) ([]contracts.RevenuePoint, int) {
	points := make([]contracts.RevenuePoint, 0, len(records))

	for _, r := range records {
		if r.Revenue == nil || *r.Revenue < 0 {
			continue
		}
		if r.Date == nil {
			continue
		}
		if strings.TrimSpace(r.BusinessUnit) == "" {
			continue
		}

		points = append(points, contracts.RevenuePoint{
			Date:           *r.Date,
			BusinessUnit:   strings.TrimSpace(r.BusinessUnit),
			Revenue:        *r.Revenue,
			CustomerCount:  r.CustomerCount,
			MarketingSpend: r.MarketingSpend,
			ProfitMargin:   r.ProfitMargin,
			SalesTeamSize:  r.SalesTeamSize,
		})
	}

	invalid := len(records) - len(points)
	if invalid > 0 {
		log.Warn().
			Int("dropped", invalid).
			Int("kept", len(points)).
			Msg("removed invalid revenue records")
	}

	points, duplicates := dedupe(points)
	if duplicates > 0 {
		log.Warn().
			Int("duplicates", duplicates).
			Msg("removed duplicate (business_unit, date) records, kept last")
	}

	contracts.SortPoints(points)
	return points, invalid + duplicates
}

type pointKey struct {
	unit string
	date int64
}

// dedupe keeps the last point per (business_unit, date), in input order of survivors
func dedupe(points []contracts.RevenuePoint) ([]contracts.RevenuePoint, int) {
	last := make(map[pointKey]int, len(points))
	for i, p := range points {
		last[pointKey{p.BusinessUnit, p.Date.Unix()}] = i
	}
	if len(last) == len(points) {
		return points, 0
	}

	out := make([]contracts.RevenuePoint, 0, len(last))
	for i, p := range points {
		if last[pointKey{p.BusinessUnit, p.Date.Unix()}] == i {
			out = append(out, p)
		}
	}
	return out, len(points) - len(out)
}
