package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/revcast/internal/pipeline"
)

// forecastCmd runs the forecast stages only
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "매출 예측만 실행 (run --mode forecast)",
	Long: `사업부별 12개월 매출 예측을 생성합니다.

생성 파일:
  revenue_forecasts.csv           - 앙상블 예측
  forecast_intervals.csv          - 80%/95% 신뢰구간
  forecast_models.csv             - 모델별 적합 지표
  forecast_failures.csv           - 제외된 사업부
  forecast_summary.txt

Example:
  go run ./cmd/revcast forecast`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeRun(cmd.Context(), pipeline.ModeForecast, !forecastNoWrite)
	},
}

var forecastNoWrite bool

func init() {
	rootCmd.AddCommand(forecastCmd)
	forecastCmd.Flags().BoolVar(&forecastNoWrite, "no-write", false, "결과 파일을 기록하지 않음")
}
