package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/pkg/config"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestCSVSource_LoadRevenue(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, RevenueFile, `date,business_unit,revenue,customer_count,avg_deal_size,profit_margin,marketing_spend,sales_team_size
2023-02-28,Sales,2000.5,20,100.0,0.2,150,5
2023-01-31,Sales,1000,10,100.0,0.25,100,4.0
2023-01-31,SMB,,10,0,0.25,100,4
2023-01-31,SMB,-5,10,0,0.25,100,4
,SMB,300,10,0,0.25,100,4
2023-01-31,,300,10,0,0.25,100,4
2023-01-31,SMB,nan,10,0,0.25,100,4
2023-01-31,SMB,0,0,0,0.1,0,1
`)

	points, err := NewCSVSource(dir, zerolog.Nop()).LoadRevenue(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 3)

	// ordered by (business_unit, date)
	assert.Equal(t, "SMB", points[0].BusinessUnit)
	assert.Equal(t, 0.0, points[0].Revenue)

	assert.Equal(t, "Sales", points[1].BusinessUnit)
	assert.Equal(t, time.Date(2023, time.January, 31, 0, 0, 0, 0, time.UTC), points[1].Date)
	assert.Equal(t, 4, points[1].SalesTeamSize)
	assert.Equal(t, 2000.5, points[2].Revenue)
	assert.Equal(t, 20, points[2].CustomerCount)
	assert.Equal(t, 150.0, points[2].MarketingSpend)
}

func TestCSVSource_MissingFile(t *testing.T) {
	src := NewCSVSource(t.TempDir(), zerolog.Nop())

	_, err := src.LoadRevenue(context.Background())
	assert.True(t, errors.Is(err, contracts.ErrMissingInput))

	_, err = src.LoadKPIMetrics(context.Background())
	assert.True(t, errors.Is(err, contracts.ErrMissingInput))
}

func TestCSVSource_MissingColumns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, RevenueFile, "date,business_unit\n2023-01-31,Sales\n")

	_, err := NewCSVSource(dir, zerolog.Nop()).LoadRevenue(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revenue")
}

func TestCSVSource_LoadKPIMetrics(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, KPIFile, `date,customer_acquisition_cost,customer_lifetime_value,churn_rate,retention_rate,net_promoter_score,conversion_rate,market_share
2023-02-28,200,4000,0.05,0.9,50,0.2,0.1
2023-01-31,210,4100,0.04,0.91,52,0.21,0.11
2023-03-31,210,,0.06,0.91,,0.21,0.11
,210,4100,0.04,0.91,52,0.21,0.11
`)

	metrics, err := NewCSVSource(dir, zerolog.Nop()).LoadKPIMetrics(context.Background())
	require.NoError(t, err)
	require.Len(t, metrics, 3)
	assert.Equal(t, time.January, metrics[0].Date.Month())
	require.NotNil(t, metrics[0].CustomerLifetimeValue)
	assert.Equal(t, 4100.0, *metrics[0].CustomerLifetimeValue)
	require.NotNil(t, metrics[1].ChurnRate)
	assert.Equal(t, 0.05, *metrics[1].ChurnRate)
	assert.True(t, metrics[1].Complete())

	// blank cells stay nil, the rest of the month is kept
	mar := metrics[2]
	assert.False(t, mar.Complete())
	assert.Nil(t, mar.CustomerLifetimeValue)
	assert.Nil(t, mar.NetPromoterScore)
	require.NotNil(t, mar.ChurnRate)
	assert.Equal(t, 0.06, *mar.ChurnRate)
	require.NotNil(t, mar.MarketShare)
	assert.Equal(t, 0.11, *mar.MarketShare)
}

func TestWriteKPICSV_BlankCells(t *testing.T) {
	dir := t.TempDir()
	in := []contracts.KPIMetricsPoint{{
		Date:      time.Date(2023, time.January, 31, 0, 0, 0, 0, time.UTC),
		ChurnRate: contracts.Float(0.05),
	}}
	require.NoError(t, WriteKPICSV(filepath.Join(dir, KPIFile), in))

	out, err := NewCSVSource(dir, zerolog.Nop()).LoadKPIMetrics(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in[0], out[0])
}

func TestClean(t *testing.T) {
	d := time.Date(2023, time.March, 31, 0, 0, 0, 0, time.UTC)
	v := 10.0
	neg := -1.0

	records := []RevenueRecord{
		{Date: &d, BusinessUnit: " Sales ", Revenue: &v},
		{Date: &d, BusinessUnit: "Sales", Revenue: &neg},
		{Date: nil, BusinessUnit: "Sales", Revenue: &v},
		{Date: &d, BusinessUnit: "", Revenue: &v},
		{Date: &d, BusinessUnit: "Sales", Revenue: nil},
	}

	points, dropped := Clean(records, zerolog.Nop())
	assert.Equal(t, 4, dropped)
	require.Len(t, points, 1)
	assert.Equal(t, "Sales", points[0].BusinessUnit)
}

func TestClean_DuplicateUnitDate(t *testing.T) {
	jan := time.Date(2023, time.January, 31, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2023, time.February, 28, 0, 0, 0, 0, time.UTC)
	first, second, other := 100.0, 250.0, 300.0

	records := []RevenueRecord{
		{Date: &jan, BusinessUnit: "Sales", Revenue: &first},
		{Date: &feb, BusinessUnit: "Sales", Revenue: &other},
		{Date: &jan, BusinessUnit: "Sales ", Revenue: &second},
		{Date: &jan, BusinessUnit: "SMB", Revenue: &first},
	}

	points, dropped := Clean(records, zerolog.Nop())
	assert.Equal(t, 1, dropped)
	require.Len(t, points, 3)

	assert.Equal(t, "SMB", points[0].BusinessUnit)
	assert.Equal(t, "Sales", points[1].BusinessUnit)
	assert.Equal(t, jan, points[1].Date)
	assert.Equal(t, 250.0, points[1].Revenue)
	assert.Equal(t, feb, points[2].Date)
}

func TestGenerateSample(t *testing.T) {
	cfg := DefaultSampleConfig()
	a := GenerateSample(cfg)
	b := GenerateSample(cfg)

	assert.Equal(t, a, b)
	assert.Len(t, a.Revenue, 36*5)
	assert.Len(t, a.KPIs, 36)

	for _, p := range a.Revenue {
		assert.GreaterOrEqual(t, p.Revenue, 0.0)
		assert.GreaterOrEqual(t, p.SalesTeamSize, 5)
		assert.LessOrEqual(t, p.SalesTeamSize, 25)
		assert.Equal(t, 1, p.Date.AddDate(0, 0, 1).Day(), "month end: %s", p.Date)
	}
	assert.Equal(t, time.Date(2021, time.January, 31, 0, 0, 0, 0, time.UTC), a.KPIs[0].Date)
	assert.Equal(t, time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), a.KPIs[35].Date)

	for _, m := range a.KPIs {
		require.True(t, m.Complete())
		assert.GreaterOrEqual(t, *m.NetPromoterScore, 30.0)
		assert.LessOrEqual(t, *m.NetPromoterScore, 70.0)
		assert.InDelta(t, 0.05, *m.ChurnRate, 0.03+1e-9)
	}

	other := cfg
	other.Seed = 7
	assert.NotEqual(t, a.Revenue[0].Revenue, GenerateSample(other).Revenue[0].Revenue)
}

func TestWriteAndLoadSample(t *testing.T) {
	dir := t.TempDir()
	s := GenerateSample(DefaultSampleConfig())

	require.NoError(t, WriteRevenueCSV(filepath.Join(dir, RevenueFile), s.Revenue))
	require.NoError(t, WriteKPICSV(filepath.Join(dir, KPIFile), s.KPIs))

	src := NewCSVSource(dir, zerolog.Nop())
	points, err := src.LoadRevenue(context.Background())
	require.NoError(t, err)
	assert.Len(t, points, len(s.Revenue))

	metrics, err := src.LoadKPIMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, s.KPIs, metrics)
}

func TestOpen(t *testing.T) {
	cfg := &config.Config{Data: config.DataConfig{Source: config.SourceCSV, DataDir: "data"}}
	src, err := Open(cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &CSVSource{}, src)

	cfg.Data.Source = config.SourcePostgres
	_, err = Open(cfg, nil, zerolog.Nop())
	assert.Error(t, err)
}
