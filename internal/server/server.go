// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/files"
	"github.com/jeranaias/olympus-tui/internal/logging"
	"github.com/jeranaias/olympus-tui/internal/storage"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8000"

	// MaxRequestBodySize bounds JSON request bodies.
	MaxRequestBodySize = 1 * 1024 * 1024

	// Version is the server version.
	Version = "1.0.0"

	defaultPageSize = 20
	maxPageSize     = 100
)

// FileStore serves stored uploads.
type FileStore interface {
	OpenFile(ctx context.Context, id string) (storage.StoredFile, *os.File, error)
}

// ============================================================================
// SERVER
// ============================================================================

// Server exposes a backend.Backend over the chat REST and WebSocket API.
type Server struct {
	addr     string
	router   chi.Router
	backend  backend.Backend
	uploader backend.Uploader
	files    FileStore
	events   func() backend.StreamSource
	policy   *files.Policy
	token    string
	origins  []string
	limiter  *RateLimiter
	log      logrus.FieldLogger
	started  time.Time

	mu     sync.Mutex
	server *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithUploader enables POST /api/v1/files/upload.
func WithUploader(u backend.Uploader) Option {
	return func(s *Server) { s.uploader = u }
}

// WithFileStore enables GET /api/v1/files/{id}.
func WithFileStore(fs FileStore) Option {
	return func(s *Server) { s.files = fs }
}

// WithEvents enables /ws/chat. subscribe is called once per connection.
func WithEvents(subscribe func() backend.StreamSource) Option {
	return func(s *Server) { s.events = subscribe }
}

// WithPolicy bounds upload request bodies to the policy's size limit.
func WithPolicy(p *files.Policy) Option {
	return func(s *Server) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithToken requires a bearer token on every request except /health.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithCORS allows browser clients from origins.
func WithCORS(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithRateLimiter replaces the default per-IP limiter. Nil disables limiting.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) { s.limiter = rl }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) { s.log = logging.OrDiscard(l) }
}

// NewServer creates a server for b listening on addr (DefaultAddr if empty).
func NewServer(addr string, b backend.Backend, opts ...Option) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	s := &Server{
		addr:    addr,
		backend: b,
		policy:  files.DefaultPolicy(),
		limiter: DefaultRateLimiter(),
		log:     logging.Discard(),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/conversations", s.handleListConversations)
		r.Post("/conversations", s.handleCreateConversation)
		r.Get("/conversations/{id}", s.handleGetConversation)
		r.Delete("/conversations/{id}", s.handleDeleteConversation)
		r.Post("/chat/send", s.handleSend)
		r.Post("/files/upload", s.handleUpload)
		r.Get("/files/{id}", s.handleGetFile)
	})
	r.Get("/ws/chat", s.handleStream)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})
	s.router = r
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mws := []func(http.Handler) http.Handler{
		RecoveryMiddleware(s.log),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.log),
	}
	if len(s.origins) > 0 {
		mws = append(mws, CORSMiddleware(s.origins))
	}
	if s.limiter != nil {
		mws = append(mws, RateLimitMiddleware(s.limiter, s.log))
	}
	mws = append(mws, AuthMiddleware(s.token, s.log))
	return Chain(mws...)(s.router)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve serves on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"addr": l.Addr().String(), "version": Version}).Info("server starting")
	err := srv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.log.Info("server shutting down")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the {detail, code} error body.
func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail, "code": code})
}

// writeBackendError maps a backend error onto a status code.
func (s *Server) writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, backend.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, files.ErrTypeNotAllowed):
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_file_type", err.Error())
	case errors.Is(err, files.ErrTooLarge), errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, "file_too_large", err.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
