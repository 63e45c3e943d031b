// Package server hosts the service routers, choosing one by request host
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/hostrouter"
)

const shutdownTimeout = 10 * time.Second

// Server is an HTTP server routing on the request host
type Server struct {
	*http.Server

	hostRouter hostrouter.Routes
	logger     *slog.Logger
}

// New creates a server listening on addr, ":8080" when empty
func New(addr string, logger *slog.Logger) *Server {
	if addr == "" {
		addr = ":8080"
	}
	if logger == nil {
		logger = slog.Default()
	}

	hr := hostrouter.New()

	s := &Server{
		Server: &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		hostRouter: hr,
		logger:     logger,
	}

	r := chi.NewRouter()
	r.Mount("/", hr)
	s.Server.Handler = r

	return s
}

// RegisterDomain serves router for requests to domain. The domain "*"
// matches any host without a router of its own.
func (s *Server) RegisterDomain(domain string, router chi.Router) {
	s.logger.Info("Registering domain", "domain", domain)
	s.hostRouter.Map(domain, router)
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", s.Addr)
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
