package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/revcast/internal/pipeline"
)

// kpiCmd runs the KPI and alert stages only
var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "KPI/알림만 실행 (run --mode kpi)",
	Long: `월별/사업부별/고급 KPI와 알림, 대시보드를 생성합니다.

생성 파일:
  monthly_kpis.csv, unit_kpis.csv, advanced_kpis.csv
  performance_alerts.csv, dashboard.json, kpi_summary.txt

Example:
  go run ./cmd/revcast kpi`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeRun(cmd.Context(), pipeline.ModeKPI, !kpiNoWrite)
	},
}

var kpiNoWrite bool

func init() {
	rootCmd.AddCommand(kpiCmd)
	kpiCmd.Flags().BoolVar(&kpiNoWrite, "no-write", false, "결과 파일을 기록하지 않음")
}
