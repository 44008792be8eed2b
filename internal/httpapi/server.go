// Package httpapi implements Fastside's HTTP surface: the redirect hot
// path, the status dashboard, the configuration cookie endpoints, and the
// JSON API used by the browser extension.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/fastside/fastside/internal/catalog"
	"github.com/fastside/fastside/internal/crawler"
	"github.com/fastside/fastside/internal/resolver"
)

// Server binds the shared catalog, crawler, and resolver to an HTTP
// listener, following the teacher's server.go shape (config + logger +
// mux, With* middleware chain) generalized away from its app/websocket
// assumptions.
type Server struct {
	catalog  *catalog.Store
	crawler  *crawler.Crawler
	resolver *resolver.Resolver
	logger   arbor.ILogger
	host     string
	port     int

	httpServer *http.Server
}

// New builds a Server ready to Start.
func New(store *catalog.Store, cr *crawler.Crawler, res *resolver.Resolver, logger arbor.ILogger, host string, port int) *Server {
	return &Server{
		catalog:  store,
		crawler:  cr,
		resolver: res,
		logger:   logger,
		host:     host,
		port:     port,
	}
}

// Start builds the route mux, wraps it with the middleware chain, and
// begins serving. It blocks until the listener stops or errors.
func (s *Server) Start() error {
	mux := s.routes()
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if s.logger != nil {
		s.logger.Info().Str("addr", addr).Msg("listening")
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests before returning.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
