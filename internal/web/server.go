package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/elys-network/lpstrategy/internal/logger"
	"github.com/elys-network/lpstrategy/internal/state"
	"github.com/elys-network/lpstrategy/internal/strategy"
	"github.com/elys-network/lpstrategy/internal/types"
)

func webLog() *zerolog.Logger {
	l := logger.GetForComponent("web_server")
	return &l
}

// StatusProvider reports the live strategy view.
type StatusProvider interface {
	Status(ctx context.Context) (strategy.Status, error)
	Parameters() types.StrategyParameters
}

// ReportReader reads persisted harvest reports.
type ReportReader interface {
	RecentReports(ctx context.Context, limit int) ([]types.HarvestReport, error)
	ReportByID(ctx context.Context, id int64) (types.HarvestReport, error)
	Summary(ctx context.Context) (types.ReportSummary, error)
}

// HealthChecker reports storage health. A nil checker means no database is configured.
type HealthChecker func() error

// WebServer serves the read-only strategy dashboard API
type WebServer struct {
	router   *mux.Router
	port     string
	strategy StatusProvider
	reports  ReportReader
	dbHealth HealthChecker
	started  time.Time
}

// NewWebServer creates a new web server instance. reports and dbHealth may be nil
// when the strategy runs without a database.
func NewWebServer(port string, s StatusProvider, reports ReportReader, dbHealth HealthChecker) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router:   mux.NewRouter(),
		port:     port,
		strategy: s,
		reports:  reports,
		dbHealth: dbHealth,
		started:  time.Now(),
	}

	server.setupRoutes()
	return server
}

// Handler returns the configured router.
func (ws *WebServer) Handler() http.Handler { return ws.router }

func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")
	ws.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/strategy", ws.handleGetStrategy).Methods("GET")
	api.HandleFunc("/parameters", ws.handleGetParameters).Methods("GET")
	api.HandleFunc("/reports", ws.handleGetReports).Methods("GET")
	api.HandleFunc("/reports/latest", ws.handleGetLatestReport).Methods("GET")
	api.HandleFunc("/reports/summary", ws.handleGetReportSummary).Methods("GET")
	api.HandleFunc("/reports/{id:[0-9]+}", ws.handleGetReport).Methods("GET")

	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start serves until ctx is cancelled.
func (ws *WebServer) Start(ctx context.Context) error {
	webLog().Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			webLog().Error().Err(err).Msg("Web server shutdown failed")
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleHealth returns server and strategy health
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	hasErrors := false

	dbStatus := "not_configured"
	if ws.dbHealth != nil {
		dbStatus = "healthy"
		if err := ws.dbHealth(); err != nil {
			webLog().Warn().Err(err).Msg("Database health check failed")
			dbStatus = "unhealthy"
			hasErrors = true
		}
	}

	strategyInfo := map[string]interface{}{"reachable": true}
	if st, err := ws.strategy.Status(r.Context()); err != nil {
		webLog().Warn().Err(err).Msg("Strategy status check failed")
		strategyInfo["reachable"] = false
		hasErrors = true
	} else {
		strategyInfo["emergency_exit"] = st.EmergencyExit
		strategyInfo["harvest_due"] = st.HarvestDue
		strategyInfo["last_report"] = st.Debt.LastReport
	}

	overallStatus := "OK"
	statusCode := http.StatusOK
	if hasErrors {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
			"uptime_seconds":   int64(time.Since(ws.started).Seconds()),
		},
		"component": map[string]interface{}{
			"name":    "lp-yield-strategy",
			"version": "1.0.0",
		},
		"database": dbStatus,
		"strategy": strategyInfo,
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetStrategy returns position, debt and trigger state
func (ws *WebServer) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	st, err := ws.strategy.Status(r.Context())
	if err != nil {
		webLog().Error().Err(err).Msg("Failed to get strategy status")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve strategy status")
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, st)
}

func (ws *WebServer) handleGetParameters(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"parameters": ws.strategy.Parameters(),
		"timestamp":  time.Now().UTC(),
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetReports returns the most recent harvest reports
func (ws *WebServer) handleGetReports(w http.ResponseWriter, r *http.Request) {
	if !ws.requireReports(w) {
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	reports, err := ws.reports.RecentReports(r.Context(), limit)
	if err != nil {
		webLog().Error().Err(err).Msg("Failed to get recent reports")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve reports")
		return
	}

	response := map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
		"limit":   limit,
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

func (ws *WebServer) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if !ws.requireReports(w) {
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	report, err := ws.reports.ReportByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, state.ErrReportNotFound) {
			ws.writeErrorResponse(w, http.StatusNotFound, "Report not found")
			return
		}
		webLog().Error().Err(err).Int64("reportId", id).Msg("Failed to get report")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve report")
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, report)
}

func (ws *WebServer) handleGetLatestReport(w http.ResponseWriter, r *http.Request) {
	if !ws.requireReports(w) {
		return
	}

	reports, err := ws.reports.RecentReports(r.Context(), 1)
	if err != nil {
		webLog().Error().Err(err).Msg("Failed to get latest report")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve reports")
		return
	}
	if len(reports) == 0 {
		ws.writeErrorResponse(w, http.StatusNotFound, "No reports found")
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, reports[0])
}

func (ws *WebServer) handleGetReportSummary(w http.ResponseWriter, r *http.Request) {
	if !ws.requireReports(w) {
		return
	}

	summary, err := ws.reports.Summary(r.Context())
	if err != nil {
		webLog().Error().Err(err).Msg("Failed to get report summary")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve report summary")
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, summary)
}

func (ws *WebServer) requireReports(w http.ResponseWriter) bool {
	if ws.reports == nil {
		ws.writeErrorResponse(w, http.StatusServiceUnavailable, "Report storage not configured")
		return false
	}
	return true
}

func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLog().Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		webLog().Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// responseWriterWrapper captures the status code for logging
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
