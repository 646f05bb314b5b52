package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/metrics"
)

// Server provides HTTP endpoints
type Server struct {
	logger   zerolog.Logger
	backend  Backend
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	server   *http.Server
	addr     string
}

// NewServer creates a new Server instance. A nil gatherer serves the
// default registry.
func NewServer(logger zerolog.Logger, port int, backend Backend, m *metrics.Metrics, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		logger:   logger.With().Str("component", "query_server").Logger(),
		backend:  backend,
		metrics:  m,
		gatherer: gatherer,
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.setupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Addr returns the bound address once Start has returned.
func (s *Server) Addr() string { return s.addr }

// Start starts the HTTP server
func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("query server is nil")
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind to address %s: %w", s.server.Addr, err)
	}
	s.addr = ln.Addr().String()
	s.logger.Info().Str("addr", s.addr).Msg("Query server listening")

	go func() {
		err := s.server.Serve(ln)
		switch err {
		case nil:
			s.logger.Info().Msg("Query server stopped normally")
		case http.ErrServerClosed:
			s.logger.Info().Msg("Query server closed gracefully")
		default:
			s.logger.Error().Err(err).Msg("Query server error")
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
