package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/revcast/internal/settings"
)

// Output file names
const (
	FileForecasts         = "revenue_forecasts.csv"
	FileIntervals         = "forecast_intervals.csv"
	FileForecastModels    = "forecast_models.csv"
	FileForecastFailures  = "forecast_failures.csv"
	FileMonthlyKPIs       = "monthly_kpis.csv"
	FileUnitKPIs          = "unit_kpis.csv"
	FileAdvancedKPIs      = "advanced_kpis.csv"
	FileAlerts            = "performance_alerts.csv"
	FileProcessedRevenue  = "processed_revenue.csv"
	FileAggregatedRevenue = "aggregated_revenue.csv"
	FileForecastSummary   = "forecast_summary.txt"
	FileKPISummary        = "kpi_summary.txt"
	FileDataSummary       = "data_summary.txt"
	FileDashboard         = "dashboard.json"
	FileRun               = "run.json"
)

// Table is a named CSV table
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Writer writes run outputs into a single directory
// ⭐ SSOT: 결과 파일 생성은 여기서만
type Writer struct {
	dir  string
	meta settings.Report
	log  zerolog.Logger
}

// NewWriter 새 결과 작성기 생성
func NewWriter(dir string, meta settings.Report, log zerolog.Logger) *Writer {
	return &Writer{
		dir:  dir,
		meta: meta,
		log:  log.With().Str("component", "report.writer").Logger(),
	}
}

// Dir returns the output directory
func (w *Writer) Dir() string {
	return w.dir
}

func (w *Writer) create(name string) (*os.File, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

// WriteTable writes t as <dir>/<t.Name>
func (w *Writer) WriteTable(t Table) error {
	f, err := w.create(t.Name)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write %s header: %w", t.Name, err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write %s: %w", t.Name, err)
	}

	w.log.Debug().Str("file", t.Name).Int("rows", len(t.Rows)).Msg("table written")
	return nil
}

// WriteJSON writes v as indented JSON
func (w *Writer) WriteJSON(name string, v any) error {
	f, err := w.create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return nil
}

// WriteText writes a plain text document
func (w *Writer) WriteText(name, body string) error {
	f, err := w.create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(body); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// =============================================================================
// Inventory
// =============================================================================

// FileInfo one file in a data directory
type FileInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Inventory lists regular files in dir ordered by name.
// A missing directory yields an empty list.
func Inventory(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
