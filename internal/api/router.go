package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/wonny/revcast/internal/api/handlers"
	"github.com/wonny/revcast/pkg/logger"
)

// Handlers groups the endpoint handlers of the router
type Handlers struct {
	Data     *handlers.DataHandler
	Forecast *handlers.ForecastHandler
	KPI      *handlers.KPIHandler
	Pipeline *handlers.PipelineHandler
	Metrics  http.Handler // nil 이면 /metrics 미노출
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, runLimiter *rate.Limiter, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Data endpoints
	api.HandleFunc("/data/summary", h.Data.GetSummary).Methods("GET")
	api.HandleFunc("/data/files", h.Data.GetFiles).Methods("GET")

	// Forecast endpoints
	api.HandleFunc("/forecasts", h.Forecast.GetForecasts).Methods("GET")
	api.HandleFunc("/forecasts/intervals", h.Forecast.GetIntervals).Methods("GET")
	api.HandleFunc("/forecasts/models", h.Forecast.GetModels).Methods("GET")

	// KPI endpoints
	api.HandleFunc("/kpis/monthly", h.KPI.GetMonthly).Methods("GET")
	api.HandleFunc("/kpis/units", h.KPI.GetUnits).Methods("GET")
	api.HandleFunc("/kpis/advanced", h.KPI.GetAdvanced).Methods("GET")
	api.HandleFunc("/alerts", h.KPI.GetAlerts).Methods("GET")
	api.HandleFunc("/dashboard", h.KPI.GetDashboard).Methods("GET")

	// Run records
	api.HandleFunc("/runs/latest", h.Pipeline.GetLatestRun).Methods("GET")
	api.HandleFunc("/runs/{id}", h.Pipeline.GetRun).Methods("GET")

	// Run trigger (프로세스 로컬 토큰 버킷)
	api.Handle("/pipeline/run", rateLimitMiddleware(runLimiter)(http.HandlerFunc(h.Pipeline.Run))).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "revcast-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware rejects requests beyond the limiter's budget (nil = unlimited)
func rateLimitMiddleware(limiter *rate.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "rate limit exceeded",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewRunLimiter builds the process-local limiter for the run trigger
func NewRunLimiter(perSecond float64, burst int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
