package ingest

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/wonny/revcast/internal/contracts"
)

// Tables
const (
	revenueTable = "analytics.revenue_history"
	kpiTable     = "analytics.kpi_history"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const schemaDDL = `
CREATE SCHEMA IF NOT EXISTS analytics;

CREATE TABLE IF NOT EXISTS analytics.revenue_history (
	date            DATE           NOT NULL,
	business_unit   TEXT           NOT NULL,
	revenue         NUMERIC(18,2)  NOT NULL CHECK (revenue >= 0),
	customer_count  INTEGER        NOT NULL DEFAULT 0,
	marketing_spend NUMERIC(18,2)  NOT NULL DEFAULT 0,
	profit_margin   DOUBLE PRECISION NOT NULL DEFAULT 0,
	sales_team_size INTEGER        NOT NULL DEFAULT 0,
	updated_at      TIMESTAMPTZ    NOT NULL DEFAULT NOW(),
	PRIMARY KEY (business_unit, date)
);

CREATE TABLE IF NOT EXISTS analytics.kpi_history (
	date                      DATE             PRIMARY KEY,
	customer_acquisition_cost DOUBLE PRECISION,
	customer_lifetime_value   DOUBLE PRECISION,
	churn_rate                DOUBLE PRECISION,
	retention_rate            DOUBLE PRECISION,
	net_promoter_score        DOUBLE PRECISION,
	conversion_rate           DOUBLE PRECISION,
	market_share              DOUBLE PRECISION,
	updated_at                TIMESTAMPTZ      NOT NULL DEFAULT NOW()
);

ALTER TABLE analytics.kpi_history
	ALTER COLUMN customer_acquisition_cost DROP NOT NULL,
	ALTER COLUMN customer_lifetime_value DROP NOT NULL,
	ALTER COLUMN churn_rate DROP NOT NULL,
	ALTER COLUMN retention_rate DROP NOT NULL,
	ALTER COLUMN net_promoter_score DROP NOT NULL,
	ALTER COLUMN conversion_rate DROP NOT NULL,
	ALTER COLUMN market_share DROP NOT NULL;`

// Repository stores revenue and KPI history in PostgreSQL
// ⭐ SSOT: 이력 테이블 접근은 여기서만
type Repository struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewRepository 새 이력 저장소 생성
func NewRepository(pool *pgxpool.Pool, log zerolog.Logger) *Repository {
	return &Repository{
		pool: pool,
		log:  log.With().Str("component", "ingest.repository").Logger(),
	}
}

// EnsureSchema creates the history tables if absent
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveRevenue upserts revenue points keyed by (business_unit, date)
func (r *Repository) SaveRevenue(ctx context.Context, points []contracts.RevenuePoint) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO analytics.revenue_history
			(date, business_unit, revenue, customer_count, marketing_spend, profit_margin, sales_team_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (business_unit, date) DO UPDATE SET
			revenue = EXCLUDED.revenue,
			customer_count = EXCLUDED.customer_count,
			marketing_spend = EXCLUDED.marketing_spend,
			profit_margin = EXCLUDED.profit_margin,
			sales_team_size = EXCLUDED.sales_team_size,
			updated_at = NOW()`

	for _, p := range points {
		batch.Queue(query, p.Date, p.BusinessUnit, p.Revenue,
			p.CustomerCount, p.MarketingSpend, p.ProfitMargin, p.SalesTeamSize)
	}

	if err := r.sendBatch(ctx, batch, len(points)); err != nil {
		return fmt.Errorf("save revenue: %w", err)
	}

	r.log.Info().Int("records", len(points)).Msg("revenue history saved")
	return nil
}

// SaveKPIMetrics upserts KPI points keyed by date
func (r *Repository) SaveKPIMetrics(ctx context.Context, metrics []contracts.KPIMetricsPoint) error {
	if len(metrics) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO analytics.kpi_history
			(date, customer_acquisition_cost, customer_lifetime_value, churn_rate,
			 retention_rate, net_promoter_score, conversion_rate, market_share)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (date) DO UPDATE SET
			customer_acquisition_cost = EXCLUDED.customer_acquisition_cost,
			customer_lifetime_value = EXCLUDED.customer_lifetime_value,
			churn_rate = EXCLUDED.churn_rate,
			retention_rate = EXCLUDED.retention_rate,
			net_promoter_score = EXCLUDED.net_promoter_score,
			conversion_rate = EXCLUDED.conversion_rate,
			market_share = EXCLUDED.market_share,
			updated_at = NOW()`

	for _, m := range metrics {
		batch.Queue(query, m.Date, m.CustomerAcquisitionCost, m.CustomerLifetimeValue,
			m.ChurnRate, m.RetentionRate, m.NetPromoterScore, m.ConversionRate, m.MarketShare)
	}

	if err := r.sendBatch(ctx, batch, len(metrics)); err != nil {
		return fmt.Errorf("save kpi metrics: %w", err)
	}

	r.log.Info().Int("records", len(metrics)).Msg("kpi history saved")
	return nil
}

func (r *Repository) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadRevenue returns all revenue history ordered by (business_unit, date)
func (r *Repository) LoadRevenue(ctx context.Context) ([]contracts.RevenuePoint, error) {
	query, args, err := psql.
		Select(colDate, colBusinessUnit, colRevenue, colCustomerCount,
			colMarketingSpend, colProfitMargin, colSalesTeamSize).
		From(revenueTable).
		Where(squirrel.GtOrEq{colRevenue: 0}).
		OrderBy(colBusinessUnit, colDate).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build revenue query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query revenue: %w", err)
	}
	defer rows.Close()

	var points []contracts.RevenuePoint
	for rows.Next() {
		var p contracts.RevenuePoint
		if err := rows.Scan(&p.Date, &p.BusinessUnit, &p.Revenue, &p.CustomerCount,
			&p.MarketingSpend, &p.ProfitMargin, &p.SalesTeamSize); err != nil {
			return nil, fmt.Errorf("scan revenue: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.log.Info().Int("records", len(points)).Msg("loaded revenue history")
	return points, nil
}

// LoadKPIMetrics returns all KPI history ordered by date
func (r *Repository) LoadKPIMetrics(ctx context.Context) ([]contracts.KPIMetricsPoint, error) {
	query, args, err := psql.
		Select(kpiColumns...).
		From(kpiTable).
		OrderBy(colDate).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build kpi query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query kpi metrics: %w", err)
	}
	defer rows.Close()

	var metrics []contracts.KPIMetricsPoint
	for rows.Next() {
		var m contracts.KPIMetricsPoint
		if err := rows.Scan(&m.Date, &m.CustomerAcquisitionCost, &m.CustomerLifetimeValue,
			&m.ChurnRate, &m.RetentionRate, &m.NetPromoterScore, &m.ConversionRate, &m.MarketShare); err != nil {
			return nil, fmt.Errorf("scan kpi metrics: %w", err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.log.Info().Int("records", len(metrics)).Msg("loaded kpi history")
	return metrics, nil
}
