// Package server provides the HTTP API for vidsearch.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Srinathreddy007/vidsearch/internal/config"
	"github.com/Srinathreddy007/vidsearch/internal/media"
	"github.com/Srinathreddy007/vidsearch/internal/pipeline"
	"github.com/Srinathreddy007/vidsearch/internal/storage"
	"github.com/Srinathreddy007/vidsearch/internal/watcher"
)

// Server is the HTTP server for the vidsearch API.
type Server struct {
	pipeline *pipeline.Pipeline
	storage  storage.Storage
	prober   media.Extractor
	watch    *watcher.Watcher
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. watch may be nil
// when drop-directory ingestion is disabled.
func NewServer(
	p *pipeline.Pipeline,
	store storage.Storage,
	prober media.Extractor,
	watch *watcher.Watcher,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline: p,
		storage:  store,
		prober:   prober,
		watch:    watch,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/videos", s.handleUploadVideo)
	r.Get("/api/v1/videos", s.handleListVideos)
	r.Get("/api/v1/videos/{id}", s.handleGetVideo)
	r.Put("/api/v1/videos/{id}", s.handleUpdateVideo)
	r.Patch("/api/v1/videos/{id}", s.handleUpdateVideo)
	r.Delete("/api/v1/videos/{id}", s.handleDeleteVideo)
	r.Post("/api/v1/videos/{id}/transcribe", s.handleTranscribe)
	r.Get("/api/v1/videos/{id}/search", s.handleSearch)
	r.Get("/api/v1/videos/{id}/keyword-search", s.handleKeywordSearch)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
