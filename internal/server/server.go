// Package server provides the HTTP API for Astrali.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/astrali/internal/config"
	"github.com/hyperjump/astrali/internal/session"
	"github.com/hyperjump/astrali/internal/storage"
	"github.com/hyperjump/astrali/pkg/utils"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
)

// InboxService is the inbox watcher as seen by the API.
type InboxService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// ModelStatus reports whether a lazily loaded model is resident.
type ModelStatus interface {
	Model() string
	Loaded() bool
}

// Server is the HTTP server for the Astrali API.
type Server struct {
	sessions *session.Manager
	storage  storage.Storage
	config   *config.Config
	logger   *zap.Logger
	markdown goldmark.Markdown
	started  time.Time
	server   *http.Server

	inbox      InboxService
	configPath string
	configMu   sync.Mutex
	embedding  ModelStatus
}

// Option configures a Server.
type Option func(*Server)

// WithInbox enables the inbox directory endpoints. When configPath is set, directory
// changes are written back to the config file.
func WithInbox(inbox InboxService, configPath string) Option {
	return func(s *Server) {
		s.inbox = inbox
		s.configPath = configPath
	}
}

// WithEmbeddingStatus reports the embedding model in /api/v1/status.
func WithEmbeddingStatus(m ModelStatus) Option {
	return func(s *Server) { s.embedding = m }
}

// NewServer creates a server with the given dependencies. store may be nil.
func NewServer(sessions *session.Manager, store storage.Storage, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		storage:  store,
		config:   cfg,
		logger:   utils.OrNop(logger),
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
	}
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/documents", s.handleCreateDocument)
		r.Post("/documents/{id}/answer", s.handleAnswerDocument)
		r.Post("/market", s.handleCreateMarket)
		r.Post("/market/{id}/answer", s.handleAnswerMarket)

		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Get("/sessions/{id}/history", s.handleSessionHistory)
		r.Delete("/sessions/{id}", s.handleDeleteSession)

		r.Get("/inbox/directories", s.handleInboxList)
		r.Post("/inbox/directories", s.handleInboxAdd)
		r.Delete("/inbox/directories", s.handleInboxRemove)

		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
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
