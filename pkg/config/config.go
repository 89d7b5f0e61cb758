package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Data locations
	Data DataConfig

	// Database (SOURCE=postgres 일 때만 필요)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Pipeline
	Pipeline PipelineConfig

	// API throttling
	API APIConfig

	// Alert webhook
	Notify NotifyConfig

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string

	// Monitoring
	MetricsEnabled bool
	Tracing        TracingConfig
}

// DataConfig holds input/output locations
type DataConfig struct {
	Source       string // csv, postgres
	DataDir      string // raw CSV 위치
	OutputDir    string // 결과 테이블 위치
	SettingsFile string // 모델/KPI 파라미터 YAML (비어 있으면 기본값)
}

// RawDir returns the raw input directory
func (d DataConfig) RawDir() string {
	return filepath.Join(d.DataDir, "raw")
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	TTL      time.Duration // 최근 실행 결과 캐시 TTL
}

// PipelineConfig holds scheduling configuration
type PipelineConfig struct {
	Schedule   string // cron (with seconds)
	MaxRetries int
	RetryDelay time.Duration
}

// APIConfig holds API rate limiting for the run trigger
type APIConfig struct {
	RateLimit float64 // requests per second
	RateBurst int
}

// NotifyConfig holds the alert webhook (URL 비어 있으면 비활성)
type NotifyConfig struct {
	WebhookURL  string
	MinSeverity string // High, Medium
	Timeout     time.Duration
	MaxRetries  int
}

// TracingConfig holds OpenTelemetry exporter settings (Endpoint 비어 있으면 비활성)
type TracingConfig struct {
	Endpoint    string
	ServiceName string
	SampleRate  float64
}

// Source kinds
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Data: DataConfig{
			Source:       getEnv("SOURCE", SourceCSV),
			DataDir:      getEnv("DATA_DIR", "data"),
			OutputDir:    getEnv("OUTPUT_DIR", "data/processed"),
			SettingsFile: getEnv("SETTINGS_FILE", ""),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			TTL:      getEnvAsDuration("REDIS_REPORT_TTL", "24h"),
		},

		Pipeline: PipelineConfig{
			Schedule:   getEnv("PIPELINE_SCHEDULE", "0 0 6 1 * *"), // 매월 1일 06:00
			MaxRetries: getEnvAsInt("PIPELINE_MAX_RETRIES", 2),
			RetryDelay: getEnvAsDuration("PIPELINE_RETRY_DELAY", "1m"),
		},

		API: APIConfig{
			RateLimit: getEnvAsFloat("API_RATE_LIMIT", 0.2),
			RateBurst: getEnvAsInt("API_RATE_BURST", 1),
		},

		Notify: NotifyConfig{
			WebhookURL:  getEnv("ALERT_WEBHOOK_URL", ""),
			MinSeverity: getEnv("ALERT_WEBHOOK_MIN_SEVERITY", "Medium"),
			Timeout:     getEnvAsDuration("ALERT_WEBHOOK_TIMEOUT", "10s"),
			MaxRetries:  getEnvAsInt("ALERT_WEBHOOK_MAX_RETRIES", 3),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile:   getEnv("LOG_FILE", ""),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		Tracing: TracingConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "revcast"),
			SampleRate:  getEnvAsFloat("OTEL_SAMPLE_RATE", 1.0),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Data.Source {
	case SourceCSV:
	case SourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when SOURCE=postgres")
		}
	default:
		return fmt.Errorf("SOURCE must be one of: csv, postgres")
	}

	if c.API.RateLimit <= 0 || c.API.RateBurst <= 0 {
		return fmt.Errorf("API_RATE_LIMIT and API_RATE_BURST must be > 0")
	}

	if c.Notify.MinSeverity != "High" && c.Notify.MinSeverity != "Medium" {
		return fmt.Errorf("ALERT_WEBHOOK_MIN_SEVERITY must be one of: High, Medium")
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0 and 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
