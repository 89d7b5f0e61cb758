package contracts

import "context"

// RevenueSource supplies the historical revenue series
// ⭐ SSOT: 매출 이력 입력 인터페이스 (CSV, Postgres)
type RevenueSource interface {
	LoadRevenue(ctx context.Context) ([]RevenuePoint, error)
}

// KPISource supplies the historical customer/market KPI series
// ⭐ SSOT: KPI 이력 입력 인터페이스 (CSV, Postgres)
type KPISource interface {
	LoadKPIMetrics(ctx context.Context) ([]KPIMetricsPoint, error)
}

// HistorySource combines both inputs
type HistorySource interface {
	RevenueSource
	KPISource
}
