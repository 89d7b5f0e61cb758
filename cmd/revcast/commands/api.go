package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/wonny/revcast/internal/api"
	"github.com/wonny/revcast/internal/api/handlers"
	"github.com/wonny/revcast/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- 최근 실행 결과 조회 엔드포인트 제공
- 파이프라인 실행 트리거 제공 (레이트 리밋)
- /metrics (Prometheus) 노출

Endpoints:
  GET  /health                  - Health check
  GET  /metrics                 - Prometheus metrics
  GET  /api/data/summary        - 입력 데이터 요약
  GET  /api/data/files          - 결과 파일 목록
  GET  /api/forecasts           - 앙상블 예측 (?business_unit=)
  GET  /api/forecasts/intervals - 신뢰구간
  GET  /api/forecasts/models    - 모델 적합 결과
  GET  /api/kpis/monthly        - 월별 KPI
  GET  /api/kpis/units          - 사업부 KPI (?business_unit=)
  GET  /api/kpis/advanced       - 고급 KPI
  GET  /api/alerts              - 알림 (?severity=High|Medium)
  GET  /api/dashboard           - 대시보드
  GET  /api/runs/latest         - 최근 실행 기록
  GET  /api/runs/{id}           - 실행 기록
  POST /api/pipeline/run        - 파이프라인 실행

Example:
  go run ./cmd/revcast api
  go run ./cmd/revcast api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "월간 파이프라인 스케줄러를 함께 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== revcast API Server ===")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Wire application
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	// 2. Rate limiters (로컬 토큰 버킷 + Redis 분산 슬라이딩 윈도우)
	runLimiter := api.NewRunLimiter(a.cfg.API.RateLimit, a.cfg.API.RateBurst)
	distributed := redis.NewRateLimiter(a.redis, "revcast")
	limit := redis.PipelineRunLimit(a.cfg.API.RateLimit, a.cfg.API.RateBurst)

	// 3. Handlers
	h := api.Handlers{
		Data:     handlers.NewDataHandler(a.store, a.cfg.Data.OutputDir, a.log),
		Forecast: handlers.NewForecastHandler(a.store, a.log),
		KPI:      handlers.NewKPIHandler(a.store, a.log),
		Pipeline: handlers.NewPipelineHandler(a.orch, a.store, distributed, limit, a.log),
	}
	if a.cfg.MetricsEnabled {
		h.Metrics = promhttp.Handler()
	}

	// 4. Optional in-process scheduler
	if apiWithScheduler {
		sched, err := newScheduler(a)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// 5. Serve until signal
	server := api.New(a.cfg, a.log, api.NewRouter(h, runLimiter, a.log))
	fmt.Printf("Listening on %s (Ctrl+C to stop)\n", server.Addr())

	if err := server.Run(ctx); err != nil {
		return err
	}

	fmt.Println("Server stopped")
	return nil
}
