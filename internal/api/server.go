// Package api provides the HTTP control surface for Mira.
// It exposes the pipeline state, runtime statistics, and control verbs
// (pause, resume, LOD, visibility) used by the CLI and by companion UIs.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mira-agent/mira/internal/infra/sqlite"
	"github.com/mira-agent/mira/internal/pipeline"
)

// Server is the Mira HTTP API server.
type Server struct {
	engine         *pipeline.Engine
	store          *sqlite.DB // nil when persistence is disabled
	version        string
	metricsEnabled bool
}

// NewServer creates a new API server around a running engine.
func NewServer(engine *pipeline.Engine, version string) *Server {
	return &Server{engine: engine, version: version}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetStore attaches the session store, enabling the history endpoints.
func (s *Server) SetStore(db *sqlite.DB) { s.store = db }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": s.version,
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/stats", s.handleStats)
		r.Post("/stats/reset", s.handleStatsReset)
		r.Post("/pause", s.handlePause)
		r.Post("/resume", s.handleResume)
		r.Get("/lod", s.handleGetLOD)
		r.Post("/lod", s.handleSetLOD)
		r.Post("/visibility", s.handleVisibility)
		r.Post("/work", s.handleScheduleWork)
		r.Delete("/work/{id}", s.handleCancelWork)
		r.Post("/occlusion", s.handleOcclusion)
		r.Delete("/occlusion/{id}", s.handleRemoveOcclusion)

		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Get("/sessions/{id}/samples", s.handleSessionSamples)
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
