// Package server assembles the docdex HTTP API: health and status
// endpoints plus the routes registered by the feature packages.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/docdex/internal/embeddings"
	"github.com/ziadkadry99/docdex/internal/jobs"
	"github.com/ziadkadry99/docdex/internal/resync"
	"github.com/ziadkadry99/docdex/internal/search"
	"github.com/ziadkadry99/docdex/internal/vectordb"
)

// Config holds server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string // CORS origins; ["*"] allows all
}

// Server is the docdex HTTP server.
type Server struct {
	cfg        Config
	jobs       *jobs.Store
	store      vectordb.VectorStore
	embedder   embeddings.Embedder
	router     chi.Router
	httpServer *http.Server
}

// New wires the server together. searchSvc and coordinator may be nil in
// tests that only exercise health endpoints.
func New(cfg Config, jobStore *jobs.Store, store vectordb.VectorStore, embedder embeddings.Embedder, searchSvc *search.Service, coordinator *resync.Coordinator) *Server {
	s := &Server{
		cfg:      cfg,
		jobs:     jobStore,
		store:    store,
		embedder: embedder,
	}

	s.router = s.buildRouter(searchSvc, coordinator)
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter(searchSvc *search.Service, coordinator *resync.Coordinator) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(s.cfg.AllowedOrigins) > 0 {
		corsOpts.AllowedOrigins = s.cfg.AllowedOrigins
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/api/status", s.handleStatus)

	if s.jobs != nil {
		jobs.RegisterRoutes(r, s.jobs)
	}
	if searchSvc != nil {
		search.RegisterRoutes(r, searchSvc)
	}
	if coordinator != nil {
		resync.RegisterRoutes(r, coordinator)
	}

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

type componentStatus struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

type statusResponse struct {
	Status   string          `json:"status"`
	Embedder componentStatus `json:"embedder"`
	Vectors  componentStatus `json:"vectors"`
	Jobs     componentStatus `json:"jobs"`
	Points   int             `json:"points"`
	Stats    *jobs.Stats     `json:"job_stats,omitempty"`
}

// handleStatus probes each dependency and reports a per-component
// breakdown. The response status is "degraded" if any probe fails.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := statusResponse{Status: "ok"}

	if hc, ok := s.embedder.(embeddings.HealthChecker); ok {
		if err := hc.Health(ctx); err != nil {
			resp.Embedder = componentStatus{OK: false, Detail: err.Error()}
			resp.Status = "degraded"
		} else {
			resp.Embedder = componentStatus{OK: true, Detail: s.embedder.Name()}
		}
	} else if s.embedder != nil {
		resp.Embedder = componentStatus{OK: true, Detail: s.embedder.Name()}
	} else {
		resp.Embedder = componentStatus{OK: false, Detail: "not configured"}
		resp.Status = "degraded"
	}

	if s.store != nil {
		resp.Vectors = componentStatus{OK: true}
		resp.Points = s.store.Count()
	} else {
		resp.Vectors = componentStatus{OK: false, Detail: "not configured"}
		resp.Status = "degraded"
	}

	if s.jobs != nil {
		if err := s.jobs.Ping(ctx); err != nil {
			resp.Jobs = componentStatus{OK: false, Detail: err.Error()}
			resp.Status = "degraded"
		} else {
			resp.Jobs = componentStatus{OK: true}
			if stats, err := s.jobs.GetStats(ctx); err == nil {
				resp.Stats = &stats
			}
		}
	} else {
		resp.Jobs = componentStatus{OK: false, Detail: "not configured"}
		resp.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("docdex server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
