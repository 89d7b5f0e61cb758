package handlers

import (
	"net/http"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/internal/pipeline"
	"github.com/wonny/revcast/pkg/logger"
)

// ForecastHandler handles forecast API endpoints
// ⭐ SSOT: Forecast API 핸들러는 이 구조체에서만
type ForecastHandler struct {
	runs   *runReader
	logger *logger.Logger
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(store pipeline.Store, log *logger.Logger) *ForecastHandler {
	return &ForecastHandler{
		runs:   newRunReader(store, log),
		logger: log,
	}
}

// ForecastResponse wraps forecast rows with their run
type ForecastResponse struct {
	RunID     string                          `json:"run_id"`
	Count     int                             `json:"count"`
	Forecasts []contracts.EnsembleForecastRow `json:"forecasts"`
}

// GetForecasts returns ensemble forecasts of the latest run
// GET /api/forecasts?business_unit=Sales
func (h *ForecastHandler) GetForecasts(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.latest(w, r)
	if !ok {
		return
	}

	unit := r.URL.Query().Get("business_unit")
	rows := make([]contracts.EnsembleForecastRow, 0, len(run.Forecasts))
	for _, row := range run.Forecasts {
		if unit == "" || row.BusinessUnit == unit {
			rows = append(rows, row)
		}
	}

	respondJSON(w, http.StatusOK, ForecastResponse{
		RunID:     run.RunID,
		Count:     len(rows),
		Forecasts: rows,
	})
}

// GetIntervals returns confidence intervals of the latest run
// GET /api/forecasts/intervals?business_unit=Sales
func (h *ForecastHandler) GetIntervals(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.latest(w, r)
	if !ok {
		return
	}

	unit := r.URL.Query().Get("business_unit")
	rows := make([]contracts.IntervalForecastRow, 0, len(run.Intervals))
	for _, row := range run.Intervals {
		if unit == "" || row.BusinessUnit == unit {
			rows = append(rows, row)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":    run.RunID,
		"count":     len(rows),
		"intervals": rows,
	})
}

// GetModels returns per-unit fit results and failures of the latest run
// GET /api/forecasts/models
func (h *ForecastHandler) GetModels(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.latest(w, r)
	if !ok {
		return
	}

	models := run.Models
	if models == nil {
		models = []contracts.ModelResult{}
	}
	failures := run.Failures
	if failures == nil {
		failures = []contracts.UnitFailure{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":        run.RunID,
		"models":        models,
		"failures":      failures,
		"dropped_units": run.DroppedUnits,
		"summary":       run.ForecastSummary,
	})
}
