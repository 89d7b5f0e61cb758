package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/internal/pipeline"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "파이프라인 실행",
	Long: `매출 예측 및 KPI 파이프라인을 1회 실행합니다.

Modes:
  full      - P0 → P5 전체 (기본)
  forecast  - 예측만 (P0, P1, P2, P5)
  kpi       - KPI/알림만 (P0, P3, P4, P5)

결과 테이블은 OUTPUT_DIR (기본 data/processed) 에 기록됩니다.

Example:
  go run ./cmd/revcast run
  go run ./cmd/revcast run --mode kpi
  go run ./cmd/revcast run --no-write`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, ok := pipeline.ParseMode(runMode)
		if !ok {
			return fmt.Errorf("invalid mode %q (valid: full, forecast, kpi)", runMode)
		}
		return executeRun(cmd.Context(), mode, !runNoWrite)
	},
}

var (
	runMode    string
	runNoWrite bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runMode, "mode", string(pipeline.ModeFull), "run mode: full|forecast|kpi")
	runCmd.Flags().BoolVar(&runNoWrite, "no-write", false, "결과 파일을 기록하지 않음")
}

// executeRun wires the application and runs the pipeline once
func executeRun(parent context.Context, mode pipeline.Mode, writeOutputs bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	PrintRunHeader(a.settings.Report.Title, mode, a.cfg.Data.Source, a.orch.SettingsHash())

	result, err := a.orch.Run(ctx, pipeline.RunConfig{
		Mode:         mode,
		WriteOutputs: writeOutputs,
	})
	if result != nil {
		printStages(result.Stages)
	}
	if err != nil {
		PrintError(err.Error())
		return err
	}

	printRunResult(result, writeOutputs)
	return nil
}

func printStages(stages []contracts.StageResult) {
	PrintSeparator()
	widths := []int{4, 18, 7, 9, 8, 8}
	PrintTableHeader([]string{"ID", "STAGE", "STATUS", "DURATION", "IN", "OUT"}, widths)
	for _, s := range stages {
		status := "ok"
		if !s.Success {
			status = "failed"
		}
		PrintTableRow([]string{
			s.Stage.ShortName(),
			s.Stage.Description(),
			status,
			fmt.Sprintf("%dms", s.DurationMS),
			fmt.Sprintf("%d", s.InputCount),
			fmt.Sprintf("%d", s.OutputCount),
		}, widths)
	}
}

func printRunResult(result *pipeline.RunResult, wrote bool) {
	PrintDoubleSeparator()
	PrintKeyValue("Run ID", result.RunID, 14)
	PrintKeyValue("Duration", fmt.Sprintf("%.2fs", result.Duration().Seconds()), 14)
	PrintKeyValue("History", fmt.Sprintf("%d rows, %d units", result.Data.RevenueRecords, result.Data.BusinessUnits), 14)

	if result.Mode != pipeline.ModeKPI {
		PrintKeyValue("Forecasts", fmt.Sprintf("%d rows", len(result.Forecasts)), 14)
		if len(result.Failures) > 0 {
			PrintWarning(fmt.Sprintf("%d unit/model fits skipped", len(result.Failures)))
			for _, f := range result.Failures {
				fmt.Printf("   • %s [%s]: %s\n", f.BusinessUnit, f.Model, f.Reason)
			}
		}
	}

	if result.Mode != pipeline.ModeForecast {
		PrintKeyValue("Alerts", fmt.Sprintf("%d", len(result.Alerts)), 14)
		for _, a := range result.Alerts {
			fmt.Printf("   [%s] %s - %s: %s\n", a.Severity, a.Type, a.BusinessUnit, a.Message)
		}
	}

	if wrote {
		PrintKeyValue("Output", result.OutputDir, 14)
	}
	PrintSuccess("Pipeline run completed")
}
