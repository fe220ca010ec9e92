// Package httpapi serves the OmniMind REST API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/custodia-labs/omnimind/internal/core/ports/driving"
	"github.com/custodia-labs/omnimind/internal/logger"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 10 << 20

// shutdownTimeout bounds the graceful drain on context cancellation.
const shutdownTimeout = 10 * time.Second

// ErrMissingService is returned when a required port is nil.
var ErrMissingService = errors.New("httpapi: document, search and health services are required")

// Ports aggregates the driving ports the API needs.
type Ports struct {
	Documents driving.DocumentService
	Search    driving.SearchService
	Health    driving.HealthService

	// MCP, when set, is mounted at /mcp.
	MCP http.Handler
}

// Validate ensures all ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Documents == nil || p.Search == nil || p.Health == nil {
		return ErrMissingService
	}
	return nil
}

// Server is the HTTP API.
type Server struct {
	ports   *Ports
	version string
	handler http.Handler
}

// NewServer creates the API and registers its routes.
func NewServer(ports *Ports, version string) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	s := &Server{ports: ports, version: version}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/documents", s.handleListDocuments)
	mux.HandleFunc("POST /api/documents", s.handleCreateDocument)
	mux.HandleFunc("GET /api/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	if ports.MCP != nil {
		mux.Handle("/mcp", ports.MCP)
	}

	s.handler = cors.AllowAll().Handler(logRequests(mux))
	return s, nil
}

// Handler returns the root handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	// Bind before serving so address errors surface even if ctx is done.
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled. The
// listener is closed on return.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", listener.Addr())
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush lets streaming handlers (the MCP transport) push events through.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}
