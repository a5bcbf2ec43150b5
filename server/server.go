// Package server is the NutriTrack web front end: an HTML page with the
// prediction form, tree diagram, dataset and about text, plus a small JSON
// API over the same model.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/ezoic/nutritrack/config"
	"github.com/ezoic/nutritrack/pkg/errors"
	"github.com/ezoic/nutritrack/pkg/log"
)

// Server owns the HTTP listener.
type Server struct {
	server *http.Server
	cfg    config.ServerConfig
	logger log.Logger
}

// New wraps h with the standard middleware chain.
func New(cfg config.ServerConfig, h http.Handler) *Server {
	chain := Chain(
		RecoveryMiddleware,
		LoggerMiddleware,
		SecurityHeadersMiddleware,
		RequestSizeMiddleware(maxBodyBytes),
	)
	return &Server{
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           chain(h),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       120 * time.Second,
		},
		cfg:    cfg,
		logger: log.GetLoggerWithName("server"),
	}
}

// Handler returns the wrapped handler, for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.server.Addr }

// Serve accepts connections on l until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("Starting HTTP server", "addr", l.Addr().String())
	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server failed")
	}
	return nil
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", s.server.Addr)
	}
	return s.Serve(l)
}

// Shutdown stops accepting connections and waits for in-flight requests,
// at most the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}
	return nil
}
