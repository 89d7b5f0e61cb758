package alert

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/internal/settings"
)

// Engine evaluates KPI tables against fixed thresholds
// ⭐ SSOT: 알림 규칙은 여기서만 정의
type Engine struct {
	kpi    settings.KPI
	alerts settings.Alerts
	log    zerolog.Logger
}

// NewEngine 새 알림 엔진 생성
func NewEngine(s *settings.Settings, log zerolog.Logger) *Engine {
	return &Engine{
		kpi:    s.KPI,
		alerts: s.Alerts,
		log:    log.With().Str("component", "alert.engine").Logger(),
	}
}

// Evaluate emits alerts for every unit snapshot and for the most recent
// advanced KPI row. Unit alerts come first, in unit order.
// No deduplication: identical input always yields identical alerts.
func (e *Engine) Evaluate(units []contracts.UnitKPIRow, advanced []contracts.AdvancedKPIRow) []contracts.Alert {
	alerts := make([]contracts.Alert, 0)

	for _, u := range units {
		alerts = append(alerts, e.unitAlerts(u)...)
	}

	if len(advanced) > 0 {
		alerts = append(alerts, e.companyAlerts(advanced[len(advanced)-1])...)
	}

	e.log.Info().
		Int("units", len(units)).
		Int("alerts", len(alerts)).
		Msg("performance alerts identified")

	return alerts
}

func (e *Engine) unitAlerts(u contracts.UnitKPIRow) []contracts.Alert {
	var out []contracts.Alert

	if u.YoYGrowth < 0 {
		out = append(out, contracts.Alert{
			Type:         contracts.AlertRevenueDecline,
			BusinessUnit: u.BusinessUnit,
			Message:      fmt.Sprintf("YoY revenue decline of %s", percent(u.YoYGrowth)),
			Severity:     contracts.SeverityHigh,
			Value:        u.YoYGrowth,
			Threshold:    0,
		})
	}

	if u.MoMGrowth < e.alerts.MoMDropThreshold {
		out = append(out, contracts.Alert{
			Type:         contracts.AlertMonthlyRevenueDrop,
			BusinessUnit: u.BusinessUnit,
			Message:      fmt.Sprintf("MoM revenue decline of %s", percent(u.MoMGrowth)),
			Severity:     contracts.SeverityMedium,
			Value:        u.MoMGrowth,
			Threshold:    e.alerts.MoMDropThreshold,
		})
	}

	if u.ProfitMargin < e.kpi.ProfitMarginTarget {
		out = append(out, contracts.Alert{
			Type:         contracts.AlertLowProfitMargin,
			BusinessUnit: u.BusinessUnit,
			Message: fmt.Sprintf("Profit margin %s below target %s",
				percent(u.ProfitMargin), percent(e.kpi.ProfitMarginTarget)),
			Severity:  contracts.SeverityMedium,
			Value:     u.ProfitMargin,
			Threshold: e.kpi.ProfitMarginTarget,
		})
	}

	return out
}

// companyAlerts checks the latest advanced row; nil columns are skipped
func (e *Engine) companyAlerts(latest contracts.AdvancedKPIRow) []contracts.Alert {
	var out []contracts.Alert

	if v := latest.RetentionRate; v != nil && *v < e.kpi.CustomerRetentionTarget {
		out = append(out, contracts.Alert{
			Type:         contracts.AlertLowRetentionRate,
			BusinessUnit: contracts.AllUnits,
			Message: fmt.Sprintf("Retention rate %s below target %s",
				percent(*v), percent(e.kpi.CustomerRetentionTarget)),
			Severity:  contracts.SeverityHigh,
			Value:     *v,
			Threshold: e.kpi.CustomerRetentionTarget,
		})
	}

	if v := latest.ChurnRate; v != nil && *v > e.alerts.MaxChurnRate {
		out = append(out, contracts.Alert{
			Type:         contracts.AlertHighChurnRate,
			BusinessUnit: contracts.AllUnits,
			Message:      fmt.Sprintf("Churn rate %s exceeds %s", percent(*v), percent(e.alerts.MaxChurnRate)),
			Severity:     contracts.SeverityHigh,
			Value:        *v,
			Threshold:    e.alerts.MaxChurnRate,
		})
	}

	if v := latest.CLVToCACRatio; v != nil && *v < e.alerts.MinCLVToCACRatio {
		out = append(out, contracts.Alert{
			Type:         contracts.AlertLowCLVCACRatio,
			BusinessUnit: contracts.AllUnits,
			Message: fmt.Sprintf("CLV/CAC ratio %.1f below recommended %.0f:1",
				*v, e.alerts.MinCLVToCACRatio),
			Severity:  contracts.SeverityMedium,
			Value:     *v,
			Threshold: e.alerts.MinCLVToCACRatio,
		})
	}

	return out
}

// percent 0.053 → "5.3%"
func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// CountBySeverity 심각도별 알림 수
func CountBySeverity(alerts []contracts.Alert) map[contracts.Severity]int {
	counts := make(map[contracts.Severity]int)
	for _, a := range alerts {
		counts[a.Severity]++
	}
	return counts
}
