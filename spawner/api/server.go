package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Server provides read-only HTTP endpoints over the spawn progress.
type Server struct {
	logger   zerolog.Logger
	server   *http.Server
	progress ProgressReader
	history  HistoryReader
	metrics  http.Handler
	chain    ChainReader
}

// NewServer creates a new Server instance. history and metrics may be nil.
func NewServer(logger zerolog.Logger, port int, progress ProgressReader, history HistoryReader, metrics http.Handler) *Server {
	s := &Server{
		logger:   logger.With().Str("component", "query_server").Logger(),
		progress: progress,
		history:  history,
		metrics:  metrics,
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.setupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// SetChainReader makes /health also require a reachable RPC endpoint.
func (s *Server) SetChainReader(chain ChainReader) {
	s.chain = chain
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("query server is nil")
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind to address %s: %w", s.server.Addr, err)
	}

	go func() {
		err := s.server.Serve(ln)
		switch err {
		case nil:
			s.logger.Info().Msg("query server stopped normally")
		case http.ErrServerClosed:
			s.logger.Info().Msg("query server closed gracefully")
		default:
			s.logger.Error().Err(err).Msg("query server error")
		}
	}()

	s.logger.Info().Str("addr", s.server.Addr).Msg("query server started")
	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
