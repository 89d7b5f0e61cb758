package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/revcast/internal/settings"
)

// settingsCmd prints and validates the effective model parameters
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "모델/KPI 파라미터 확인",
	Long: `SETTINGS_FILE (또는 --settings) 를 기본값 위에 적용해 검증하고
실행 기록에 남는 settings hash 를 출력합니다.

Example:
  go run ./cmd/revcast settings --settings configs/settings.yaml`,
	RunE: runSettings,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := settings.Load(cfg.Data.SettingsFile)
	if err != nil {
		PrintError(err.Error())
		return err
	}
	hash, err := settings.Hash(s)
	if err != nil {
		return fmt.Errorf("hash settings: %w", err)
	}

	file := cfg.Data.SettingsFile
	if file == "" {
		file = "(defaults)"
	}

	PrintDoubleSeparator()
	PrintKeyValue("File", file, 14)
	PrintKeyValue("Hash", shortHash(hash), 14)
	PrintSeparator()
	PrintKeyValue("Horizon", fmt.Sprintf("%d months", s.Forecast.HorizonMonths), 14)
	PrintKeyValue("Min history", fmt.Sprintf("%d periods", s.Forecast.MinHistoricalPeriods), 14)
	PrintKeyValue("Train split", fmt.Sprintf("%.0f%%", s.Forecast.TrainFraction*100), 14)
	PrintKeyValue("Coverage", fmt.Sprintf("%v", s.Forecast.ConfidenceLevels), 14)
	PrintKeyValue("Error proxy", s.Forecast.ErrorProxy, 14)
	PrintSeparator()
	PrintKeyValue("Growth target", fmt.Sprintf("%.1f%%", s.KPI.RevenueGrowthTarget*100), 14)
	PrintKeyValue("Margin target", fmt.Sprintf("%.1f%%", s.KPI.ProfitMarginTarget*100), 14)
	PrintKeyValue("Retention", fmt.Sprintf("%.1f%%", s.KPI.CustomerRetentionTarget*100), 14)
	PrintKeyValue("Max churn", fmt.Sprintf("%.1f%%", s.Alerts.MaxChurnRate*100), 14)
	PrintKeyValue("Min CLV/CAC", fmt.Sprintf("%.1f", s.Alerts.MinCLVToCACRatio), 14)
	PrintSuccess("Settings valid")
	return nil
}
