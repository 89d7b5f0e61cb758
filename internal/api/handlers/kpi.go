package handlers

import (
	"net/http"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/internal/pipeline"
	"github.com/wonny/revcast/pkg/logger"
)

// KPIHandler handles KPI, alert and dashboard endpoints
type KPIHandler struct {
	runs   *runReader
	logger *logger.Logger
}

// NewKPIHandler creates a new KPI handler
func NewKPIHandler(store pipeline.Store, log *logger.Logger) *KPIHandler {
	return &KPIHandler{
		runs:   newRunReader(store, log),
		logger: log,
	}
}

// GetMonthly returns company-level monthly KPIs
// GET /api/kpis/monthly
func (h *KPIHandler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.latest(w, r)
	if !ok {
		return
	}

	rows := run.Monthly
	if rows == nil {
		rows = []contracts.MonthlyKPIRow{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": run.RunID,
		"count":  len(rows),
		"kpis":   rows,
	})
}

// GetUnits returns latest-period KPIs per business unit
// GET /api/kpis/units?business_unit=Sales
func (h *KPIHandler) GetUnits(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.latest(w, r)
	if !ok {
		return
	}

	unit := r.URL.Query().Get("business_unit")
	rows := make([]contracts.UnitKPIRow, 0, len(run.Units))
	for _, row := range run.Units {
		if unit == "" || row.BusinessUnit == unit {
			rows = append(rows, row)
		}
	}

	if unit != "" && len(rows) == 0 {
		respondError(w, http.StatusNotFound, "business unit not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": run.RunID,
		"count":  len(rows),
		"kpis":   rows,
	})
}

// GetAdvanced returns the advanced KPI series
// GET /api/kpis/advanced
func (h *KPIHandler) GetAdvanced(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.latest(w, r)
	if !ok {
		return
	}

	rows := run.Advanced
	if rows == nil {
		rows = []contracts.AdvancedKPIRow{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": run.RunID,
		"count":  len(rows),
		"kpis":   rows,
	})
}

// GetAlerts returns alerts of the latest run
// GET /api/alerts?severity=High
func (h *KPIHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	severity := contracts.Severity(r.URL.Query().Get("severity"))
	if severity != "" && severity != contracts.SeverityHigh && severity != contracts.SeverityMedium {
		respondError(w, http.StatusBadRequest, "Invalid severity (valid: High, Medium)")
		return
	}

	run, ok := h.runs.latest(w, r)
	if !ok {
		return
	}

	alerts := make([]contracts.Alert, 0, len(run.Alerts))
	for _, a := range run.Alerts {
		if severity == "" || a.Severity == severity {
			alerts = append(alerts, a)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": run.RunID,
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// GetDashboard returns the dashboard document
// GET /api/dashboard
func (h *KPIHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.latest(w, r)
	if !ok {
		return
	}

	if run.Dashboard == nil {
		respondError(w, http.StatusNotFound, "latest run has no dashboard")
		return
	}
	respondJSON(w, http.StatusOK, run.Dashboard)
}
