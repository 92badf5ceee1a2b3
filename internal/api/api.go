// Package api implements the HTTP API server for bookrate.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sprite-ai/bookrate/internal/metrics"
	"github.com/sprite-ai/bookrate/internal/model"
	"github.com/sprite-ai/bookrate/internal/rating"
)

// Shelf is the book list the server reads and reloads.
type Shelf interface {
	Refresh(ctx context.Context) ([]model.Book, error)
	Books() []model.Book
}

// Submitter runs rating submissions.
type Submitter interface {
	Submit(ctx context.Context, id int, rating string) (rating.Outcome, error)
	Loading() bool
}

// Session reports who is signed in.
type Session interface {
	SignedIn() bool
	AccountID() string
}

// Server is the bookrate HTTP API server.
type Server struct {
	addr    string
	mux     *http.ServeMux
	server  *http.Server
	shelf   Shelf
	flow    Submitter
	session Session
	metrics *metrics.Recorder
	log     *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the access and error logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics exposes the recorder's registry on /metrics.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a new API server.
func New(addr string, shelf Shelf, flow Submitter, session Session, opts ...Option) *Server {
	s := &Server{
		addr:    addr,
		shelf:   shelf,
		flow:    flow,
		session: session,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/books", s.handleBooks)
	s.mux.HandleFunc("POST /api/books/refresh", s.handleRefresh)
	s.mux.HandleFunc("POST /api/ratings", s.handleRate)
	s.mux.HandleFunc("GET /api/session", s.handleSession)
	s.mux.HandleFunc("GET /api/ws", s.handleWebSocket)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.log.Info("bookrate API server listening", zap.String("addr", s.addr))
	return s.server.ListenAndServe()
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return requestID(s.accessLog(s.recovery(s.mux)))
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.log.Warn("json encode error", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
