// Package server provides the HTTP API for takeoff.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/norsteel/takeoff/internal/catalog"
	"github.com/norsteel/takeoff/internal/config"
	"github.com/norsteel/takeoff/internal/export"
	"github.com/norsteel/takeoff/internal/pipeline"
	"github.com/norsteel/takeoff/internal/store"
)

// maxUploadBytes bounds document uploads; take-off PDFs run tens of MB.
const maxUploadBytes = 100 << 20

// Server is the HTTP server for the takeoff API.
type Server struct {
	pipeline *pipeline.Pipeline
	store    store.Store
	catalog  catalog.Store
	exporter *export.Exporter
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	p *pipeline.Pipeline,
	st store.Store,
	cat catalog.Store,
	exp *export.Exporter,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline: p,
		store:    st,
		catalog:  cat,
		exporter: exp,
		config:   cfg,
		logger:   logger,
	}
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/documents", s.handleIngestDocument)
	r.Get("/api/v1/documents", s.handleListDocuments)
	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Get("/api/v1/documents/{id}/items", s.handleGetItems)
	r.Get("/api/v1/documents/{id}/export", s.handleExportDocument)
	r.Post("/api/v1/match", s.handleMatch)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
