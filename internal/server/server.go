// package server runs the temporary localhost HTTP server for OAuth callbacks
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sidetrack/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers.
// Implementations serve specific endpoints and declare their own routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// LogRequests returns middleware logging each request with method, path and duration.
func LogRequests(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}

// CallbackServer is a short-lived localhost HTTP server that exists only for
// the duration of one OAuth authorization flow.
type CallbackServer struct {
	server *http.Server
	logger *log.Logger
}

// NewCallbackServer builds a server on the configured host/port serving the
// given handlers, each wrapped with the middleware stack.
func NewCallbackServer(config shared.ServerConfig, logger *log.Logger, handlers ...Handler) *CallbackServer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	host := config.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := config.Port
	if port == 0 {
		port = 8888
	}

	mux := http.NewServeMux()
	logged := LogRequests(logger)
	for _, handler := range handlers {
		for _, route := range handler.Routes() {
			mux.Handle(route, logged(handler))
		}
	}

	return &CallbackServer{
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Addr returns the listen address of the server.
func (s *CallbackServer) Addr() string {
	return s.server.Addr
}

// Start serves until Shutdown is called. A closed server is not an error.
func (s *CallbackServer) Start() error {
	s.logger.Debug("callback server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("callback server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
