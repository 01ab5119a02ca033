// File: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/confstats/regboard/internal/config"
	"github.com/confstats/regboard/internal/metrics"
	"github.com/confstats/regboard/internal/models"
	"github.com/confstats/regboard/internal/scheduler"
	"github.com/confstats/regboard/internal/storage"
	"github.com/confstats/regboard/pkg/utils"
)

// AppVersion is injected by the main package for the health payload.
var AppVersion = "dev"

// HTTPServer represents the HTTP server
type HTTPServer struct {
	config         *config.Config
	server         *http.Server
	router         *mux.Router
	storage        storage.Storage
	refresher      *scheduler.RefreshService
	metricsManager *metrics.Manager
	logger         *logrus.Logger
	startTime      time.Time
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(
	cfg *config.Config,
	store storage.Storage,
	refresher *scheduler.RefreshService,
	metricsManager *metrics.Manager,
) (*HTTPServer, error) {

	s := &HTTPServer{
		config:         cfg,
		storage:        store,
		refresher:      refresher,
		metricsManager: metricsManager,
		logger:         utils.GetLogger(),
		startTime:      time.Now(),
	}

	s.setupRouter()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s, nil
}

// setupRouter sets up the HTTP routes
func (s *HTTPServer) setupRouter() {
	s.router = mux.NewRouter()

	// Middleware
	s.router.Use(s.loggingMiddleware)
	if s.metricsManager != nil {
		s.router.Use(s.metricsMiddleware)
	}

	// API routes
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Health check endpoints
	if s.config.Server.EnableHealth {
		api.HandleFunc("/health", s.healthHandler).Methods("GET")
		api.HandleFunc("/health/detailed", s.detailedHealthHandler).Methods("GET")
	}

	// Metrics endpoint
	if s.config.Server.EnableMetrics {
		s.router.Handle("/metrics", promhttp.Handler())
		api.HandleFunc("/stats", s.statsHandler).Methods("GET")
	}

	// Snapshot endpoints
	api.HandleFunc("/snapshots", s.listSnapshotsHandler).Methods("GET")
	api.HandleFunc("/snapshots/latest", s.latestSnapshotHandler).Methods("GET")

	// Day-wise aggregate endpoints
	api.HandleFunc("/daywise", s.listDayAggregatesHandler).Methods("GET")

	// Ingest run endpoints
	api.HandleFunc("/ingest-runs", s.listIngestRunsHandler).Methods("GET")

	// Chart endpoints
	api.HandleFunc("/chart", s.chartHandler).Methods("GET")
	api.HandleFunc("/refresh", s.refreshHandler).Methods("POST")
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.logger.WithFields(logrus.Fields{
		"address":         s.server.Addr,
		"metrics_enabled": s.config.Server.EnableMetrics,
	}).Info("Starting HTTP server")

	// Seed component metrics so they appear on first scrape
	if s.metricsManager != nil {
		s.metricsManager.UpdateSystemMetrics()
		if s.storage != nil {
			health := s.storage.GetHealth()
			s.metricsManager.GetPrometheusMetrics().UpdateComponentHealth("storage", health.Healthy)
		}
		go s.systemMetricsUpdater()
	}

	errChan := make(chan error, 1)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server error")
			errChan <- err
		}
	}()

	// Give the listener a moment to fail fast on startup errors
	select {
	case err := <-errChan:
		return utils.NewAppError(utils.ErrCodeInternal, "Failed to start HTTP server", err.Error())
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Stop stops the HTTP server gracefully
func (s *HTTPServer) Stop() error {
	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// systemMetricsUpdater periodically refreshes system and component metrics
func (s *HTTPServer) systemMetricsUpdater() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.metricsManager.UpdateSystemMetrics()
		if s.storage != nil {
			health := s.storage.GetHealth()
			s.metricsManager.GetPrometheusMetrics().UpdateComponentHealth("storage", health.Healthy)
		}
		if s.refresher != nil {
			s.metricsManager.GetPrometheusMetrics().UpdateComponentHealth("scheduler", s.refresher.IsHealthy())
		}
	}
}

// Handlers

// healthHandler returns basic health status
func (s *HTTPServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   AppVersion,
	}

	if s.storage != nil && !s.storage.GetHealth().Healthy {
		health["status"] = "unhealthy"
		s.writeJSON(w, http.StatusServiceUnavailable, health)
		return
	}

	s.writeJSON(w, http.StatusOK, health)
}

// detailedHealthHandler returns per-component health status
func (s *HTTPServer) detailedHealthHandler(w http.ResponseWriter, r *http.Request) {
	components := map[string]interface{}{}
	allHealthy := true

	if s.storage != nil {
		health := s.storage.GetHealth()
		components["storage"] = health
		allHealthy = allHealthy && health.Healthy
	}

	if s.refresher != nil {
		healthy := s.refresher.IsHealthy()
		components["scheduler"] = map[string]interface{}{"healthy": healthy}
		allHealthy = allHealthy && healthy
	}

	status := "healthy"
	code := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, map[string]interface{}{
		"status":     status,
		"timestamp":  time.Now(),
		"version":    AppVersion,
		"uptime":     time.Since(s.startTime).String(),
		"components": components,
	})
}

// listSnapshotsHandler returns snapshots matching the query filter
func (s *HTTPServer) listSnapshotsHandler(w http.ResponseWriter, r *http.Request) {
	filter := models.SnapshotFilter{Limit: 100}

	if season := r.URL.Query().Get("season"); season != "" {
		filter.Season = &season
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	snapshots, err := s.storage.GetSnapshots(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	count, err := s.storage.GetSnapshotCount(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": snapshots,
		"count":     len(snapshots),
		"total":     count,
	})
}

// latestSnapshotHandler returns the most recent snapshot of a season
func (s *HTTPServer) latestSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	season := r.URL.Query().Get("season")
	if season == "" {
		season = s.config.Input.Current.Label
	}

	snapshot, err := s.storage.GetLatestSnapshot(r.Context(), season)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snapshot == nil {
		s.writeError(w, http.StatusNotFound, "no snapshots for season "+season)
		return
	}

	s.writeJSON(w, http.StatusOK, snapshot)
}

// listDayAggregatesHandler returns a season's day-wise aggregates
func (s *HTTPServer) listDayAggregatesHandler(w http.ResponseWriter, r *http.Request) {
	season := r.URL.Query().Get("season")
	if season == "" {
		season = s.config.Input.Current.Label
	}

	aggregates, err := s.storage.GetDayAggregates(r.Context(), season)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"season":  season,
		"daywise": aggregates,
		"count":   len(aggregates),
	})
}

// listIngestRunsHandler returns recent ingest runs
func (s *HTTPServer) listIngestRunsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := s.storage.GetIngestRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// statsHandler returns application statistics
func (s *HTTPServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"version":   AppVersion,
		"uptime":    time.Since(s.startTime).String(),
		"timestamp": time.Now(),
	}

	if s.storage != nil {
		storageStats, err := s.storage.GetStorageStats()
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		stats["storage"] = storageStats
	}

	if s.refresher != nil {
		stats["scheduler"] = s.refresher.GetStats()
	}

	s.writeJSON(w, http.StatusOK, stats)
}

// chartHandler serves the rendered summary chart
func (s *HTTPServer) chartHandler(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(s.config.Chart.OutputPath)
	if err != nil {
		if os.IsNotExist(err) {
			s.writeError(w, http.StatusNotFound, "chart not rendered yet")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// refreshHandler triggers an immediate re-ingest and re-render
func (s *HTTPServer) refreshHandler(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		s.writeError(w, http.StatusServiceUnavailable, "refresh not available")
		return
	}

	if err := s.refresher.TriggerNow(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":    "refreshed",
		"timestamp": time.Now(),
	})
}

// Helpers

func (s *HTTPServer) writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, map[string]interface{}{
		"error":     message,
		"timestamp": time.Now(),
	})
}
