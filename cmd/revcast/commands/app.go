package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wonny/revcast/internal/alert"
	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/internal/ingest"
	"github.com/wonny/revcast/internal/pipeline"
	"github.com/wonny/revcast/internal/report"
	"github.com/wonny/revcast/internal/settings"
	"github.com/wonny/revcast/pkg/config"
	"github.com/wonny/revcast/pkg/database"
	"github.com/wonny/revcast/pkg/httputil"
	"github.com/wonny/revcast/pkg/logger"
	"github.com/wonny/revcast/pkg/redis"
	"github.com/wonny/revcast/pkg/tracing"
)

// memoryStoreSize runs kept in-process when Redis is disabled
const memoryStoreSize = 32

// app bundles the wired dependencies shared by commands
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	settings *settings.Settings
	db       *database.DB // SOURCE=postgres 일 때만
	redis    *redis.Client
	store    pipeline.Store
	orch     *pipeline.Orchestrator
	shutdown tracing.ShutdownFunc
}

// loadConfig loads config and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if settingsFile != "" {
		cfg.Data.SettingsFile = settingsFile
	}
	if outputDir != "" {
		cfg.Data.OutputDir = outputDir
	}
	if source != "" {
		cfg.Data.Source = source
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newApp wires config → logger → tracing → database → redis → source → orchestrator
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// 2. Initialize logger
	log, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{cfg: cfg, log: log}

	// 3. Tracing (endpoint 없으면 no-op)
	a.shutdown, err = tracing.Init(ctx, cfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// 4. Settings
	a.settings, err = settings.Load(cfg.Data.SettingsFile)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("load settings: %w", err)
	}

	// 5. Database (postgres source only)
	if cfg.Data.Source == config.SourcePostgres {
		a.db, err = database.New(ctx, cfg)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		log.Info("Connected to database")
	}

	// 6. Redis (disabled client is a no-op)
	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 7. Run store
	if a.redis.Enabled() {
		a.store = pipeline.NewRedisStore(redis.NewCache(a.redis, "revcast"), cfg.Redis.TTL)
	} else {
		a.store = pipeline.NewMemoryStore(memoryStoreSize, cfg.Redis.TTL)
	}

	// 8. History source
	src, err := ingest.Open(cfg, a.db, log.Zerolog())
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open history source: %w", err)
	}

	// 9. Orchestrator
	opts := pipeline.Options{
		Writer: report.NewWriter(cfg.Data.OutputDir, a.settings.Report, log.Zerolog()),
		Store:  a.store,
	}
	if cfg.MetricsEnabled {
		opts.Metrics = pipeline.NewMetrics(prometheus.DefaultRegisterer)
	}
	if cfg.Notify.WebhookURL != "" {
		client := httputil.New(cfg.Notify.Timeout, log).WithRetry(cfg.Notify.MaxRetries, time.Second)
		opts.Notifier = alert.NewWebhookNotifier(client, cfg.Notify.WebhookURL, contracts.Severity(cfg.Notify.MinSeverity))
	}

	a.orch, err = pipeline.NewOrchestrator(src, a.settings, opts, log)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create orchestrator: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"source":        cfg.Data.Source,
		"output_dir":    cfg.Data.OutputDir,
		"settings_hash": a.orch.SettingsHash(),
		"redis":         a.redis.Enabled(),
	}).Debug("Application wired")

	return a, nil
}

// close releases resources in reverse order
func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.shutdown != nil {
		if err := a.shutdown(context.Background()); err != nil {
			a.log.WithError(err).Warn("Tracer shutdown failed")
		}
	}
	_ = a.log.Close()
}
