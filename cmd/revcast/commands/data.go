package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/revcast/internal/ingest"
	"github.com/wonny/revcast/internal/kpi"
	"github.com/wonny/revcast/internal/report"
	"github.com/wonny/revcast/pkg/database"
	"github.com/wonny/revcast/pkg/logger"
)

// dataCmd groups input data commands
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "입력 데이터 관리",
	Long: `입력 이력 데이터를 점검하거나 PostgreSQL 로 적재합니다.

Subcommands:
  check  - 입력 로드 후 데이터 요약 출력
  sync   - DATA_DIR/raw CSV → PostgreSQL (DATABASE_URL 필요)

Example:
  go run ./cmd/revcast data check
  go run ./cmd/revcast data sync`,
}

var (
	dataCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "입력 데이터 요약",
		RunE:  runDataCheck,
	}

	dataSyncCmd = &cobra.Command{
		Use:   "sync",
		Short: "CSV 이력을 PostgreSQL 로 적재",
		RunE:  runDataSync,
	}
)

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataCheckCmd)
	dataCmd.AddCommand(dataSyncCmd)
}

func runDataCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	src, err := ingest.Open(a.cfg, a.db, a.log.Zerolog())
	if err != nil {
		return err
	}

	points, err := src.LoadRevenue(ctx)
	if err != nil {
		return fmt.Errorf("load revenue: %w", err)
	}
	metrics, err := src.LoadKPIMetrics(ctx)
	if err != nil {
		PrintWarning(fmt.Sprintf("KPI metrics unavailable: %v", err))
	}

	engine := kpi.NewEngine(a.settings.KPI, a.log.Zerolog())
	summary := kpi.Summarize(engine.UnitHistory(points), len(metrics))

	w := report.NewWriter(a.cfg.Data.OutputDir, a.settings.Report, a.log.Zerolog())
	fmt.Print(w.DataSummaryText(summary))
	return nil
}

func runDataSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. Load config (SOURCE 와 무관하게 DB 필요)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for data sync")
	}

	// 2. Initialize logger
	log, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Close()

	// 3. Connect to database
	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	// 4. Load CSV
	csv := ingest.NewCSVSource(cfg.Data.RawDir(), log.Zerolog())
	points, err := csv.LoadRevenue(ctx)
	if err != nil {
		return fmt.Errorf("load revenue: %w", err)
	}
	metrics, err := csv.LoadKPIMetrics(ctx)
	if err != nil {
		return fmt.Errorf("load kpi metrics: %w", err)
	}

	// 5. Upsert
	repo := ingest.NewRepository(db.Pool, log.Zerolog())
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if err := repo.SaveRevenue(ctx, points); err != nil {
		return err
	}
	if err := repo.SaveKPIMetrics(ctx, metrics); err != nil {
		return err
	}

	PrintSuccess("Data synced to PostgreSQL")
	PrintKeyValue("Revenue", fmt.Sprintf("%d rows", len(points)), 8)
	PrintKeyValue("KPI", fmt.Sprintf("%d rows", len(metrics)), 8)
	return nil
}
