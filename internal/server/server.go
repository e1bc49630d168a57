// Package server wires the HTTP surface: router, middleware, and the feature
// routes for documents, chat and history.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/moku180/legalaichatbot/internal/config"
	"github.com/moku180/legalaichatbot/internal/history"
	"github.com/moku180/legalaichatbot/internal/ingest"
	"github.com/moku180/legalaichatbot/internal/pipeline"
	"github.com/moku180/legalaichatbot/internal/tenant"
)

// Deps carries the feature components the server exposes over HTTP.
type Deps struct {
	Documents *ingest.Store
	Processor *ingest.Processor
	History   *history.Store
	Pipeline  *pipeline.Pipeline
}

// Server is the HTTP front of the service.
type Server struct {
	cfg        *config.Config
	router     chi.Router
	httpServer *http.Server
}

// New builds the router with all middleware and feature routes registered.
func New(cfg *config.Config, deps Deps) *Server {
	s := &Server{cfg: cfg}
	s.router = buildRouter(cfg, deps)
	return s
}

func buildRouter(cfg *config.Config, deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", tenant.HeaderOrganizationID, tenant.HeaderUserID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Everything under the tenant middleware requires an organization.
	r.Group(func(r chi.Router) {
		r.Use(tenant.Middleware)
		ingest.RegisterRoutes(r, deps.Documents, deps.Processor, cfg.UploadDir())
		pipeline.RegisterRoutes(r, deps.Pipeline)
		history.RegisterRoutes(r, deps.History)
	})

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

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

	log.Printf("legalai server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
