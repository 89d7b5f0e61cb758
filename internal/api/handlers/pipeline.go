package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/internal/pipeline"
	"github.com/wonny/revcast/pkg/logger"
	"github.com/wonny/revcast/pkg/redis"
)

// Runner executes pipeline runs
type Runner interface {
	Run(ctx context.Context, config pipeline.RunConfig) (*pipeline.RunResult, error)
}

// PipelineHandler handles pipeline trigger and run record endpoints
// ⭐ SSOT: 파이프라인 API 핸들러는 여기서만
type PipelineHandler struct {
	runner  Runner
	runs    *runReader
	limiter *redis.RateLimiter // nil 이면 분산 리밋 생략
	limit   redis.RateLimitConfig
	logger  *logger.Logger
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(runner Runner, store pipeline.Store, limiter *redis.RateLimiter, limit redis.RateLimitConfig, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		runner:  runner,
		runs:    newRunReader(store, log),
		limiter: limiter,
		limit:   limit,
		logger:  log,
	}
}

// RunRequest is the body of a run trigger
type RunRequest struct {
	Mode         string `json:"mode"`          // full, forecast, kpi
	WriteOutputs *bool  `json:"write_outputs"` // 기본 true
}

// RunResponse reports a triggered run
type RunResponse struct {
	Status string              `json:"status"`
	Error  string              `json:"error,omitempty"`
	Run    *pipeline.RunResult `json:"run,omitempty"`
}

// Run triggers a pipeline run and waits for it
// POST /api/pipeline/run
func (h *PipelineHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	mode := pipeline.ModeFull
	if req.Mode != "" {
		m, ok := pipeline.ParseMode(req.Mode)
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid mode (valid: full, forecast, kpi)")
			return
		}
		mode = m
	}
	writeOutputs := true
	if req.WriteOutputs != nil {
		writeOutputs = *req.WriteOutputs
	}

	// 분산 레이트 리밋 (여러 API 인스턴스 공유)
	if h.limiter != nil && h.limiter.Enabled() {
		allowed, _, err := h.limiter.Allow(ctx, h.limit)
		if err != nil {
			h.logger.WithError(err).Warn("Distributed rate limit check failed")
		} else if !allowed {
			respondError(w, http.StatusTooManyRequests, "pipeline run rate limit exceeded")
			return
		}
	}

	result, err := h.runner.Run(ctx, pipeline.RunConfig{
		Mode:         mode,
		WriteOutputs: writeOutputs,
	})

	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		respondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.logger.WithError(err).WithField("mode", string(mode)).Error("Pipeline run via API failed")

		status := http.StatusInternalServerError
		if errors.Is(err, contracts.ErrMissingInput) {
			status = http.StatusUnprocessableEntity
		}
		resp := RunResponse{Status: "failed", Error: err.Error()}
		if result != nil {
			resp.Run = result.Record()
		}
		respondJSON(w, status, resp)
		return
	}

	respondJSON(w, http.StatusOK, RunResponse{
		Status: "success",
		Run:    result.Record(),
	})
}

// GetLatestRun returns the latest run record
// GET /api/runs/latest
func (h *PipelineHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.latest(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, run.Record())
}

// GetRun returns a run record by ID
// GET /api/runs/{id}
func (h *PipelineHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]
	if runID == "" {
		respondError(w, http.StatusBadRequest, "run id is required")
		return
	}

	run, ok := h.runs.get(w, r, runID)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, run.Record())
}
