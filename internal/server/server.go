// Package server provides the HTTP API for petqa.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/petqa/internal/config"
	"github.com/hyperjump/petqa/internal/indexer"
	"github.com/hyperjump/petqa/internal/search"
	"github.com/hyperjump/petqa/internal/storage"
	"github.com/hyperjump/petqa/pkg/utils"
	"go.uber.org/zap"
)

// ErrReindexDisabled is returned by Rebuild when the server has no builder.
var ErrReindexDisabled = errors.New("reindex is not available")

// WatchService reports the directories being watched for changes.
type WatchService interface {
	Directories() []string
}

// Server is the HTTP server for the petqa API.
type Server struct {
	engine  *search.Engine
	builder *indexer.Builder
	store   storage.SnapshotStore
	config  *config.Config
	logger  *zap.Logger
	watch   WatchService
	server  *http.Server

	rebuildMu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithBuilder enables POST /api/v1/reindex and Rebuild.
func WithBuilder(b *indexer.Builder) Option {
	return func(s *Server) { s.builder = b }
}

// WithWatch exposes the watched directories in the status endpoint.
func WithWatch(w WatchService) Option {
	return func(s *Server) { s.watch = w }
}

// NewServer creates a server. store may be nil when the snapshot is not local.
func NewServer(engine *search.Engine, store storage.SnapshotStore, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		store:  store,
		config: cfg,
		logger: utils.OrNop(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the HTTP handler with every route and middleware installed.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/_data/search-index.json", s.handleSnapshot)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit(s.config.Server.RateLimit, s.logger))
		r.Get("/search", s.handleSearchGet)
		r.Post("/search", s.handleSearchPost)
		r.Get("/suggest", s.handleSuggest)
		r.Get("/popular", s.handlePopular)
		r.Get("/status", s.handleStatus)
		r.Post("/reindex", s.handleReindex)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Rebuild builds a fresh index from the corpus, persists it and swaps it into the engine.
// Concurrent calls run one after another.
func (s *Server) Rebuild(ctx context.Context) (*indexer.BuildReport, error) {
	if s.builder == nil {
		return nil, ErrReindexDisabled
	}
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()
	idx, report, err := s.builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	s.engine.Swap(idx)
	return report, nil
}

// requestLogger logs each request through zap at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
