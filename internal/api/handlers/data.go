package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/revcast/internal/pipeline"
	"github.com/wonny/revcast/internal/report"
	"github.com/wonny/revcast/pkg/logger"
)

// DataHandler handles input summary and output file endpoints
type DataHandler struct {
	runs      *runReader
	outputDir string
	logger    *logger.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(store pipeline.Store, outputDir string, log *logger.Logger) *DataHandler {
	return &DataHandler{
		runs:      newRunReader(store, log),
		outputDir: outputDir,
		logger:    log,
	}
}

// GetSummary returns the input data summary of the latest run
// GET /api/data/summary
func (h *DataHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.latest(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  run.RunID,
		"summary": run.Data,
		"quality": run.Quality,
	})
}

// GetFiles lists the files in the output directory
// GET /api/data/files
func (h *DataHandler) GetFiles(w http.ResponseWriter, r *http.Request) {
	files, err := report.Inventory(h.outputDir)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list output files")
		respondError(w, http.StatusInternalServerError, "failed to list output files")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dir":   h.outputDir,
		"count": len(files),
		"files": files,
	})
}

// =============================================================================
// Shared run lookup
// =============================================================================

// runReader resolves stored runs for read endpoints
type runReader struct {
	store  pipeline.Store
	logger *logger.Logger
}

func newRunReader(store pipeline.Store, log *logger.Logger) *runReader {
	return &runReader{store: store, logger: log}
}

// latest writes the error response itself and reports false when no run is available
func (rr *runReader) latest(w http.ResponseWriter, r *http.Request) (*pipeline.RunResult, bool) {
	if rr.store == nil {
		respondError(w, http.StatusServiceUnavailable, "run store not configured")
		return nil, false
	}

	run, err := rr.store.Latest(r.Context())
	return rr.resolve(w, run, err)
}

func (rr *runReader) get(w http.ResponseWriter, r *http.Request, runID string) (*pipeline.RunResult, bool) {
	if rr.store == nil {
		respondError(w, http.StatusServiceUnavailable, "run store not configured")
		return nil, false
	}

	run, err := rr.store.Get(r.Context(), runID)
	return rr.resolve(w, run, err)
}

func (rr *runReader) resolve(w http.ResponseWriter, run *pipeline.RunResult, err error) (*pipeline.RunResult, bool) {
	if errors.Is(err, pipeline.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "no pipeline run found")
		return nil, false
	}
	if err != nil {
		rr.logger.WithError(err).Error("Failed to read run store")
		respondError(w, http.StatusInternalServerError, "failed to read run store")
		return nil, false
	}
	return run, true
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
