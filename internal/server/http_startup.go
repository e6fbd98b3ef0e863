package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"recruitagent/internal/observability"
	"recruitagent/internal/recruiter"
)

const (
	shutdownTimeout              = 30 * time.Second
	observabilityShutdownTimeout = 5 * time.Second
)

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if err := s.initialize(); err != nil {
		return err
	}
	defer s.shutdownObservability()
	defer s.closeComponents()

	httpServer := s.setupHTTPServer()
	if err := s.configureTLS(httpServer); err != nil {
		return err
	}

	s.displayServerInfo()

	return s.startWithGracefulShutdown(ctx, httpServer)
}

// initialize builds the observability manager and the recruiter when they
// were not injected, and registers the session gauge.
func (s *Server) initialize() error {
	if s.Observability == nil {
		om, err := observability.NewObservabilityManager(observability.ResolveConfig(s.AppConfig, s.Version))
		if err != nil {
			return fmt.Errorf("failed to initialize observability: %w", err)
		}
		s.Observability = om
	}

	metrics := s.Observability.GetMetrics()
	if err := metrics.RegisterSessionGauge(s.Sessions.Len); err != nil {
		s.Logger.LogError(err, "Failed to register session gauge")
	}

	if s.Recruiter == nil {
		rec, err := recruiter.NewFromConfig(s.AppConfig, metrics, s.Logger)
		if err != nil {
			s.shutdownObservability()
			return err
		}
		s.Recruiter = rec
	}
	return nil
}

// shutdownObservability flushes exporters
func (s *Server) shutdownObservability() {
	ctx, cancel := context.WithTimeout(context.Background(), observabilityShutdownTimeout)
	defer cancel()
	if err := s.Observability.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(ctx context.Context, server *http.Server) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			// Certificates are already in the TLS config
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.Logger.Info("Received shutdown signal, starting graceful shutdown")
		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// closeComponents stops background work owned by the server
func (s *Server) closeComponents() {
	if s.CertificateManager != nil {
		if err := s.CertificateManager.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop certificate manager")
		}
	}
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
	s.Sessions.Close()
	if s.Recruiter != nil {
		if err := s.Recruiter.Close(); err != nil {
			s.Logger.LogError(err, "Failed to close AI providers")
		}
	}
	s.Logger.Info("Server components stopped")
}
