// Package server provides the HTTP API for tfexplorer.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/tfexplorer/internal/camera"
	"github.com/hyperjump/tfexplorer/internal/config"
	"github.com/hyperjump/tfexplorer/internal/explorer"
	"github.com/hyperjump/tfexplorer/internal/storage"
	"github.com/hyperjump/tfexplorer/internal/viewport"
)

// Server is the HTTP server for the tfexplorer API.
type Server struct {
	engine    *explorer.Engine
	sanitizer *camera.Sanitizer
	viewports *viewport.Registry
	store     storage.Store
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies. store may be nil, in which
// case the history endpoints report 501.
func NewServer(
	engine *explorer.Engine,
	viewports *viewport.Registry,
	store storage.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:    engine,
		sanitizer: camera.NewSanitizer(cfg.Camera.MinDistance),
		viewports: viewports,
		store:     store,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Get("/words/{word}/neighbors", s.handleWordNeighbors)
		r.Post("/neighbors", s.handleVectorNeighbors)
		r.Post("/analogy", s.handleAnalogy)
		r.Get("/suggest", s.handleSuggest)
		r.Get("/projection", s.handleProjection)

		r.Post("/camera/sanitize", s.handleSanitize)
		r.Post("/viewports", s.handleCreateViewport)
		r.Get("/viewports/{id}", s.handleGetViewport)
		r.Post("/viewports/{id}/camera", s.handleObserveCamera)
		r.Post("/viewports/{id}/complete", s.handleCompleteCorrection)
		r.Delete("/viewports/{id}", s.handleDeleteViewport)

		r.Post("/tokenize", s.handleTokenize)
		r.Get("/tokenizer/categories", s.handleCategories)
		r.Get("/tokenizer/categories/{id}/examples", s.handleCategoryExamples)
		r.Get("/tokenizer/examples/{index}", s.handleExample)
		r.Get("/tokenizer/opener", s.handleOpener)
		r.Get("/onehot/steps/{n}", s.handleOneHotStep)

		r.Get("/attention/sentences", s.handleSentences)
		r.Get("/attention/sentences/{id}/weights", s.handleAttentionWeights)
		r.Get("/attention/sentences/{id}/tokens/{index}/neighbors", s.handleTokenNeighbors)
		r.Get("/attention/sentences/{id}/qkv", s.handleQKV)
		r.Get("/attention/sentences/{id}/projection", s.handleSentenceProjection)

		r.Get("/history", s.handleHistory)
		r.Get("/history/{id}", s.handleHistoryEntry)
		r.Delete("/history", s.handleClearHistory)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
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
