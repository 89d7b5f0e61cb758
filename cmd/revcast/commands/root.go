package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	settingsFile string
	outputDir    string
	source       string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "revcast",
	Short: "revcast - 사업부별 매출 예측 및 KPI 파이프라인",
	Long: `revcast Unified CLI

월별 사업부 매출 이력으로 12개월 예측(추세 + 계절 앙상블)과
KPI/알림 대시보드를 생성합니다.

Pipeline:
  P0 load → P1 features → P2 forecast → P3 kpi → P4 alert → P5 report

Usage:
  go run ./cmd/revcast [command]

Examples:
  go run ./cmd/revcast generate
  go run ./cmd/revcast run
  go run ./cmd/revcast forecast
  go run ./cmd/revcast api
  go run ./cmd/revcast scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags (비어 있으면 환경변수 값 사용)
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "model/KPI settings YAML (default: SETTINGS_FILE)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output", "", "output directory (default: OUTPUT_DIR)")
	rootCmd.PersistentFlags().StringVar(&source, "source", "", "history source: csv|postgres (default: SOURCE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
