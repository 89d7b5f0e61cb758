package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wonny/revcast/internal/contracts"
)

// Raw input file names
const (
	RevenueFile = "revenue_data.csv"
	KPIFile     = "kpi_data.csv"
)

// Column names shared by the raw files and the postgres tables
const (
	colDate           = "date"
	colBusinessUnit   = "business_unit"
	colRevenue        = "revenue"
	colCustomerCount  = "customer_count"
	colAvgDealSize    = "avg_deal_size"
	colProfitMargin   = "profit_margin"
	colMarketingSpend = "marketing_spend"
	colSalesTeamSize  = "sales_team_size"

	colCAC        = "customer_acquisition_cost"
	colCLV        = "customer_lifetime_value"
	colChurn      = "churn_rate"
	colRetention  = "retention_rate"
	colNPS        = "net_promoter_score"
	colConversion = "conversion_rate"
	colShare      = "market_share"
)

var revenueColumns = []string{
	colDate, colBusinessUnit, colRevenue, colCustomerCount, colAvgDealSize,
	colProfitMargin, colMarketingSpend, colSalesTeamSize,
}

var kpiColumns = []string{
	colDate, colCAC, colCLV, colChurn, colRetention, colNPS, colConversion, colShare,
}

// CSVSource loads history from the raw CSV directory
// ⭐ SSOT: raw CSV 파싱은 여기서만
type CSVSource struct {
	dir string
	log zerolog.Logger
}

// NewCSVSource 새 CSV 입력 소스 생성
func NewCSVSource(dir string, log zerolog.Logger) *CSVSource {
	return &CSVSource{
		dir: dir,
		log: log.With().Str("component", "ingest.csv").Logger(),
	}
}

// LoadRevenue reads revenue_data.csv and applies Clean.
// A missing file is reported as contracts.ErrMissingInput.
func (s *CSVSource) LoadRevenue(ctx context.Context) ([]contracts.RevenuePoint, error) {
	path := filepath.Join(s.dir, RevenueFile)

	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(colDate, colBusinessUnit, colRevenue); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	records := make([]RevenueRecord, 0, len(t.rows))
	for _, row := range t.rows {
		records = append(records, RevenueRecord{
			Date:           parseDate(t.get(row, colDate)),
			BusinessUnit:   t.get(row, colBusinessUnit),
			Revenue:        parseFloat(t.get(row, colRevenue)),
			CustomerCount:  intOrZero(t.get(row, colCustomerCount)),
			MarketingSpend: floatOrZero(t.get(row, colMarketingSpend)),
			ProfitMargin:   floatOrZero(t.get(row, colProfitMargin)),
			SalesTeamSize:  intOrZero(t.get(row, colSalesTeamSize)),
		})
	}

	s.log.Info().Str("path", path).Int("records", len(records)).Msg("loaded revenue data")

	points, _ := Clean(records, s.log)
	return points, nil
}

// LoadKPIMetrics reads kpi_data.csv ordered by date.
// Rows with a missing date are dropped; blank metric cells stay nil.
func (s *CSVSource) LoadKPIMetrics(ctx context.Context) ([]contracts.KPIMetricsPoint, error) {
	path := filepath.Join(s.dir, KPIFile)

	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(kpiColumns...); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	metrics := make([]contracts.KPIMetricsPoint, 0, len(t.rows))
	incomplete := 0
	for _, row := range t.rows {
		date := parseDate(t.get(row, colDate))
		if date == nil {
			continue
		}

		m := contracts.KPIMetricsPoint{
			Date:                    *date,
			CustomerAcquisitionCost: parseFloat(t.get(row, colCAC)),
			CustomerLifetimeValue:   parseFloat(t.get(row, colCLV)),
			ChurnRate:               parseFloat(t.get(row, colChurn)),
			RetentionRate:           parseFloat(t.get(row, colRetention)),
			NetPromoterScore:        parseFloat(t.get(row, colNPS)),
			ConversionRate:          parseFloat(t.get(row, colConversion)),
			MarketShare:             parseFloat(t.get(row, colShare)),
		}
		if !m.Complete() {
			incomplete++
		}
		metrics = append(metrics, m)
	}

	if dropped := len(t.rows) - len(metrics); dropped > 0 {
		s.log.Warn().Int("dropped", dropped).Msg("removed KPI records without date")
	}
	if incomplete > 0 {
		s.log.Warn().Int("records", incomplete).Msg("KPI records with blank metrics, filled forward downstream")
	}
	s.log.Info().Str("path", path).Int("records", len(metrics)).Msg("loaded KPI data")

	sort.SliceStable(metrics, func(i, j int) bool { return metrics[i].Date.Before(metrics[j].Date) })
	return metrics, nil
}

// =============================================================================
// Table reading
// =============================================================================

type table struct {
	index map[string]int
	rows  [][]string
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, contracts.ErrMissingInput)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s is empty: %w", path, contracts.ErrMissingInput)
		}
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}

	t := &table{index: make(map[string]int, len(header))}
	for i, h := range header {
		t.index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		t.rows = append(t.rows, row)
	}

	return t, nil
}

func (t *table) require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := t.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// get returns "" for absent columns or short rows
func (t *table) get(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// =============================================================================
// Writing
// =============================================================================

// WriteRevenueCSV writes points in the raw revenue_data.csv layout
func WriteRevenueCSV(path string, points []contracts.RevenuePoint) error {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		var dealSize float64
		if p.CustomerCount > 0 {
			dealSize = p.Revenue / float64(p.CustomerCount)
		}
		rows = append(rows, []string{
			p.Date.Format("2006-01-02"),
			p.BusinessUnit,
			formatFloat(p.Revenue),
			strconv.Itoa(p.CustomerCount),
			formatFloat(dealSize),
			formatFloat(p.ProfitMargin),
			formatFloat(p.MarketingSpend),
			strconv.Itoa(p.SalesTeamSize),
		})
	}
	return writeTable(path, revenueColumns, rows)
}

// WriteKPICSV writes metrics in the raw kpi_data.csv layout
func WriteKPICSV(path string, metrics []contracts.KPIMetricsPoint) error {
	rows := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, []string{
			m.Date.Format("2006-01-02"),
			formatOptFloat(m.CustomerAcquisitionCost),
			formatOptFloat(m.CustomerLifetimeValue),
			formatOptFloat(m.ChurnRate),
			formatOptFloat(m.RetentionRate),
			formatOptFloat(m.NetPromoterScore),
			formatOptFloat(m.ConversionRate),
			formatOptFloat(m.MarketShare),
		})
	}
	return writeTable(path, kpiColumns, rows)
}

func writeTable(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatOptFloat nil → 빈 셀
func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
