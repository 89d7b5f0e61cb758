package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/revcast/internal/ingest"
	"github.com/wonny/revcast/internal/pipeline"
	"github.com/wonny/revcast/internal/scheduler"
	"github.com/wonny/revcast/internal/scheduler/jobs"
	"github.com/wonny/revcast/pkg/config"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/revcast scheduler start
  go run ./cmd/revcast scheduler list
  go run ./cmd/revcast scheduler run revenue_pipeline`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- revenue_pipeline: PIPELINE_SCHEDULE (기본 매월 1일 06:00)
- data_sync: SOURCE=postgres 일 때, 파이프라인 30분 전 CSV → DB 적재

실패 시 PIPELINE_MAX_RETRIES 회, PIPELINE_RETRY_DELAY 간격으로 재시도합니다.
스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== revcast Scheduler ===")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	PrintSuccess("Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", jobName)
	result, err := sched.RunJobSync(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	PrintKeyValue("Attempts", fmt.Sprintf("%d", result.Attempts), 10)
	PrintKeyValue("Duration", result.Duration.String(), 10)
	if !result.Success {
		PrintError(result.Error)
		return fmt.Errorf("job %s failed", jobName)
	}
	PrintSuccess("Job completed")
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("   • %-18s %s\n", jobName, stats[jobName].Schedule)
	}
}

// newScheduler registers the pipeline job (and data sync for postgres sources)
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(scheduler.Options{
		MaxRetries: a.cfg.Pipeline.MaxRetries,
		RetryDelay: a.cfg.Pipeline.RetryDelay,
	}, a.log)

	if err := sched.AddJob(jobs.NewPipelineJob(a.orch, a.cfg.Pipeline.Schedule, pipeline.ModeFull, a.log)); err != nil {
		return nil, err
	}

	if a.cfg.Data.Source == config.SourcePostgres && a.db != nil {
		repo := ingest.NewRepository(a.db.Pool, a.log.Zerolog())
		if err := repo.EnsureSchema(context.Background()); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		csv := ingest.NewCSVSource(a.cfg.Data.RawDir(), a.log.Zerolog())
		if err := sched.AddJob(jobs.NewDataSyncJob(csv, repo, dataSyncSchedule, a.log)); err != nil {
			return nil, err
		}
	}

	return sched, nil
}

// dataSyncSchedule 매월 1일 05:30 (기본 파이프라인 30분 전)
const dataSyncSchedule = "0 30 5 1 * *"
