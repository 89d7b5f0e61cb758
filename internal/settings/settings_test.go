package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 12, s.Forecast.HorizonMonths)
	assert.Equal(t, 24, s.Forecast.MinHistoricalPeriods)
	assert.Equal(t, []float64{0.80, 0.95}, s.Forecast.ConfidenceLevels)
}

func TestLoad_RepositoryFileMatchesDefaults(t *testing.T) {
	path := "../../config/settings/default.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("settings file not found")
	}

	s, err := Load(path)
	require.NoError(t, err)

	h1, err := Hash(s)
	require.NoError(t, err)
	h2, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, h2, h1)
	assert.Len(t, h1, 64)
}

func TestLoad_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("forecast:\n  horizon_months: 6\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Forecast.HorizonMonths)
	// untouched keys keep their defaults
	assert.Equal(t, 0.8, s.Forecast.TrainFraction)
	assert.Equal(t, 0.20, s.KPI.ProfitMarginTarget)
}

func TestLoad_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("forecast:\n  horizon_month: 6\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
		field  string
	}{
		{"zero horizon", func(s *Settings) { s.Forecast.HorizonMonths = 0 }, "forecast.horizon_months"},
		{"train fraction one", func(s *Settings) { s.Forecast.TrainFraction = 1 }, "forecast.train_fraction"},
		{"unsupported coverage", func(s *Settings) { s.Forecast.ConfidenceLevels = []float64{0.85} }, "forecast.confidence_levels"},
		{"duplicate coverage", func(s *Settings) { s.Forecast.ConfidenceLevels = []float64{0.95, 0.95} }, "forecast.confidence_levels"},
		{"bad error proxy", func(s *Settings) { s.Forecast.ErrorProxy = "arima" }, "forecast.error_proxy"},
		{"positive mom threshold", func(s *Settings) { s.Alerts.MoMDropThreshold = 0.1 }, "alerts.mom_drop_threshold"},
		{"margin target above one", func(s *Settings) { s.KPI.ProfitMarginTarget = 1.5 }, "kpi.profit_margin_target"},
		{"missing date format", func(s *Settings) { s.Report.DateFormat = "" }, "report.date_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)

			err := Validate(s)
			require.Error(t, err)

			var verr ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestLookupZ(t *testing.T) {
	z, err := LookupZ(0.80)
	require.NoError(t, err)
	assert.Equal(t, 1.28, z.Z)
	assert.Equal(t, "80%", z.Label)

	z, err = LookupZ(0.95)
	require.NoError(t, err)
	assert.Equal(t, 1.96, z.Z)

	_, err = LookupZ(0.5)
	assert.Error(t, err)
}

func TestHash_ChangesWithSettings(t *testing.T) {
	a := Default()
	b := Default()
	b.Alerts.MaxChurnRate = 0.06

	ha, _ := Hash(a)
	hb, _ := Hash(b)
	assert.NotEqual(t, ha, hb)
}
