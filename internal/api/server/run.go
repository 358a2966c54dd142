package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Server wraps an http.Server with the teacher's graceful-shutdown idiom:
// listen in a goroutine, block until the caller's context is cancelled,
// then shut down within a bounded timeout.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds a Server listening on addr, serving handler.
func New(addr string, handler http.Handler, readTimeout, writeTimeout, idleTimeout time.Duration, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		logger: logger,
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down within shutdownTimeout. It returns nil on a clean shutdown, or the
// first error encountered starting or stopping the server.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http server forced to shutdown", "error", err)
		return err
	}

	s.logger.Info("http server exited")
	return <-errCh
}
