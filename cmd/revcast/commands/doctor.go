package commands

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/revcast/internal/ingest"
	"github.com/wonny/revcast/internal/settings"
	"github.com/wonny/revcast/pkg/config"
	"github.com/wonny/revcast/pkg/database"
	"github.com/wonny/revcast/pkg/redis"
)

// doctorCmd checks the environment a run depends on
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "실행 환경 점검",
	Long: `파이프라인 실행에 필요한 환경을 점검합니다.

이 명령어는:
- config / settings 로드 및 검증
- 입력 CSV 존재 확인
- PostgreSQL 연결 및 풀 상태 (DATABASE_URL 설정 시)
- Redis 연결 (REDIS_ENABLED=true 시)

Example:
  go run ./cmd/revcast doctor`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("=== revcast Environment Check ===")

	// 1. Config
	cfg, err := loadConfig()
	if err != nil {
		PrintError(err.Error())
		return err
	}
	PrintSuccess(fmt.Sprintf("Config loaded (ENV: %s, SOURCE: %s)", cfg.Env, cfg.Data.Source))

	// 2. Settings
	if _, err := settings.Load(cfg.Data.SettingsFile); err != nil {
		PrintError(err.Error())
		return err
	}
	PrintSuccess("Settings valid")

	failed := 0

	// 3. Input files
	for _, name := range []string{ingest.RevenueFile, ingest.KPIFile} {
		path := filepath.Join(cfg.Data.RawDir(), name)
		if _, err := os.Stat(path); err != nil {
			PrintWarning(fmt.Sprintf("%s not found (run `revcast generate`)", path))
			if cfg.Data.Source == config.SourceCSV {
				failed++
			}
			continue
		}
		PrintSuccess("Found " + path)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	// 4. Database
	if cfg.Database.URL != "" {
		fmt.Printf("Connecting to %s\n", redactURL(cfg.Database.URL))
		if err := checkDatabase(ctx, cfg); err != nil {
			PrintError(err.Error())
			failed++
		}
	} else {
		PrintInfo("DATABASE_URL not set, skipping PostgreSQL")
	}

	// 5. Redis
	if cfg.Redis.Enabled {
		client, err := redis.New(ctx, cfg)
		if err != nil {
			PrintError(err.Error())
			failed++
		} else {
			_ = client.Close()
			PrintSuccess(fmt.Sprintf("Redis reachable at %s:%s", cfg.Redis.Host, cfg.Redis.Port))
		}
	} else {
		PrintInfo("REDIS_ENABLED=false, runs are kept in memory")
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	fmt.Println()
	PrintSuccess("All checks passed")
	return nil
}

func checkDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := database.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	PrintSuccess("PostgreSQL healthy")
	PrintKeyValue("Response Time", status.ResponseTime.String(), 14)
	PrintKeyValue("Max Conns", fmt.Sprintf("%d", status.MaxConns), 14)
	PrintKeyValue("Idle Conns", fmt.Sprintf("%d", status.IdleConns), 14)
	return nil
}

// redactURL hides the password of a connection URL for display
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
