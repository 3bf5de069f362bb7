// Package api is the fieldsync server: record push ingest, direct
// payment processing, and device status over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/thorbis/fieldsync/internal/serverdb"
)

// Server is the HTTP API server for fieldsync-server.
type Server struct {
	config Config
	http   *http.Server
	store  *serverdb.ServerDB
}

// NewServer creates a new Server with the given config and store.
func NewServer(cfg Config, store *serverdb.ServerDB) *Server {
	s := &Server{
		config: cfg.withDefaults(),
		store:  store,
	}

	s.http = &http.Server{
		Addr:         s.config.ListenAddr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Start begins listening for HTTP requests (non-blocking).
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http server", "err", err)
		}
	}()

	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// routes builds the HTTP handler with all routes and middleware.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/v1/payments", s.requireAuth(s.handlePayment))
	mux.HandleFunc("POST /api/v1/sync/push", s.requireAuth(s.handleSyncPush))
	mux.HandleFunc("GET /api/v1/sync/status", s.requireAuth(s.handleSyncStatus))

	return chain(mux, recoveryMiddleware, requestIDMiddleware, loggerMiddleware, loggingMiddleware, maxBytesMiddleware(s.config.MaxBodyBytes))
}

// handleHealth returns a health check response, pinging the server DB.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "detail": "db unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
