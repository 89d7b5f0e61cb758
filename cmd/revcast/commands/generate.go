package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/revcast/internal/ingest"
)

// generateCmd writes synthetic input CSVs
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "샘플 입력 데이터 생성",
	Long: `재현 가능한 합성 매출/KPI 이력을 DATA_DIR/raw 에 기록합니다.

생성 파일:
  revenue_data.csv  - 사업부별 월 매출
  kpi_data.csv      - 고객/마켓 KPI

Example:
  go run ./cmd/revcast generate
  go run ./cmd/revcast generate --seed 7 --months 48`,
	RunE: runGenerate,
}

var (
	genSeed   int64
	genMonths int
	genStart  string
)

func init() {
	rootCmd.AddCommand(generateCmd)

	defaults := ingest.DefaultSampleConfig()
	generateCmd.Flags().Int64Var(&genSeed, "seed", defaults.Seed, "random seed")
	generateCmd.Flags().IntVar(&genMonths, "months", defaults.Months, "months of history")
	generateCmd.Flags().StringVar(&genStart, "start", defaults.Start.Format("2006-01"), "first month (YYYY-MM)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if genMonths <= 0 {
		return fmt.Errorf("--months must be > 0")
	}
	start, err := time.Parse("2006-01", genStart)
	if err != nil {
		return fmt.Errorf("invalid --start %q: %w", genStart, err)
	}

	sc := ingest.DefaultSampleConfig()
	sc.Seed = genSeed
	sc.Months = genMonths
	sc.Start = start

	sample := ingest.GenerateSample(sc)

	dir := cfg.Data.RawDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	revenuePath := filepath.Join(dir, ingest.RevenueFile)
	if err := ingest.WriteRevenueCSV(revenuePath, sample.Revenue); err != nil {
		return fmt.Errorf("write revenue: %w", err)
	}
	kpiPath := filepath.Join(dir, ingest.KPIFile)
	if err := ingest.WriteKPICSV(kpiPath, sample.KPIs); err != nil {
		return fmt.Errorf("write kpi metrics: %w", err)
	}

	PrintSuccess("Sample data generated")
	PrintKeyValue("Revenue", fmt.Sprintf("%s (%d rows)", revenuePath, len(sample.Revenue)), 8)
	PrintKeyValue("KPI", fmt.Sprintf("%s (%d rows)", kpiPath, len(sample.KPIs)), 8)
	PrintKeyValue("Units", fmt.Sprintf("%v", sc.Units), 8)
	return nil
}
