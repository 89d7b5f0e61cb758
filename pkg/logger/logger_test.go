package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/revcast/pkg/config"
)

func captured(buf *bytes.Buffer) *Logger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	return &Logger{zlog: zerolog.New(buf).With().Timestamp().Logger()}
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel zerolog.Level
	}{
		{"info level", "info", zerolog.InfoLevel},
		{"warn level", "warn", zerolog.WarnLevel},
		{"error level", "error", zerolog.ErrorLevel},
		{"unknown falls back to info", "verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"})
			require.NoError(t, err)
			require.NotNil(t, log)
			assert.Equal(t, tt.wantLevel, zerolog.GlobalLevel())
		})
	}
}

func TestNew_TeesToFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "json",
		LogFile:   filepath.Join(dir, "logs", "system_log_{date}.log"),
	}

	log, err := New(cfg)
	require.NoError(t, err)
	log.Info("pipeline started")
	require.NoError(t, log.Close())

	path := ExpandLogFile(cfg.LogFile, time.Now())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pipeline started")
}

func TestExpandLogFile(t *testing.T) {
	now := time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "logs/system_log_20240307.log", ExpandLogFile("logs/system_log_{date}.log", now))
	assert.Equal(t, "plain.log", ExpandLogFile("plain.log", now))
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := captured(&buf)

	tests := []struct {
		name      string
		emit      func()
		wantMsg   string
		wantLevel string
	}{
		{"debug", func() { log.Debug("debug message") }, "debug message", "debug"},
		{"info", func() { log.Info("info message") }, "info message", "info"},
		{"warn", func() { log.Warn("warn message") }, "warn message", "warn"},
		{"error", func() { log.Error("error message") }, "error message", "error"},
		{"infof", func() { log.Infof("units: %d", 5) }, "units: 5", "info"},
		{"warnf", func() { log.Warnf("skipped %s", "SMB") }, "skipped SMB", "warn"},
		{"errorf", func() { log.Errorf("stage %s failed", "kpi") }, "stage kpi failed", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.emit()

			entry := decode(t, &buf)
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMsg, entry["message"])
		})
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := captured(&buf)

	log.WithFields(map[string]interface{}{
		"business_unit": "Enterprise",
		"horizon":       12,
	}).WithField("model", "linear_trend").Info("model fitted")

	entry := decode(t, &buf)
	assert.Equal(t, "Enterprise", entry["business_unit"])
	assert.Equal(t, float64(12), entry["horizon"])
	assert.Equal(t, "linear_trend", entry["model"])
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := captured(&buf)

	log.WithError(errors.New("insufficient history")).Error("unit skipped")

	entry := decode(t, &buf)
	assert.Equal(t, "insufficient history", entry["error"])
	assert.Equal(t, "unit skipped", entry["message"])
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	log := captured(&buf)

	zl := log.Component("forecast.trend")
	zl.Info().Msg("hello")

	entry := decode(t, &buf)
	assert.Equal(t, "forecast.trend", entry["component"])
}
