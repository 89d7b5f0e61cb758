package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wonny/revcast/internal/pipeline"
	"github.com/wonny/revcast/internal/report"
)

// statusCmd shows the last run record and output files
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "마지막 실행 상태 조회",
	Long: `OUTPUT_DIR 의 run.json 과 결과 파일 목록을 표시합니다.

Example:
  go run ./cmd/revcast status
  go run ./cmd/revcast status --output /tmp/revcast`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := cfg.Data.OutputDir

	record, err := readRunRecord(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		PrintInfo(fmt.Sprintf("No run record in %s (run `revcast run` first)", dir))
	case err != nil:
		return err
	default:
		printRecord(record)
	}

	files, err := report.Inventory(dir)
	if err != nil {
		return fmt.Errorf("list outputs: %w", err)
	}
	if len(files) == 0 {
		return nil
	}

	fmt.Println()
	widths := []int{30, 10, 19}
	PrintTableHeader([]string{"FILE", "BYTES", "MODIFIED"}, widths)
	for _, f := range files {
		PrintTableRow([]string{
			f.Name,
			fmt.Sprintf("%d", f.Size),
			f.ModTime.Format("2006-01-02 15:04:05"),
		}, widths)
	}
	return nil
}

func readRunRecord(dir string) (*pipeline.RunResult, error) {
	data, err := os.ReadFile(filepath.Join(dir, report.FileRun))
	if err != nil {
		return nil, err
	}

	var record pipeline.RunResult
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse %s: %w", report.FileRun, err)
	}
	return &record, nil
}

func printRecord(r *pipeline.RunResult) {
	PrintDoubleSeparator()
	PrintKeyValue("Run ID", r.RunID, 14)
	PrintKeyValue("Mode", string(r.Mode), 14)
	PrintKeyValue("Finished", r.FinishedAt.Local().Format("2006-01-02 15:04:05"), 14)
	PrintKeyValue("Duration", fmt.Sprintf("%.2fs", r.Duration().Seconds()), 14)
	PrintKeyValue("Settings", shortHash(r.SettingsHash), 14)
	PrintKeyValue("Stages", fmt.Sprintf("%d", len(r.Stages)), 14)

	if r.Success {
		PrintSuccess("Last run succeeded")
	} else {
		PrintError("Last run failed: " + r.Error)
	}
}
