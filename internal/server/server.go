// Package server runs the HTTP listener for the form endpoints.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// shutdownTimeout is the maximum time to wait for in-flight requests during
// graceful shutdown. A submission can hold two provider calls.
const shutdownTimeout = 30 * time.Second

// Config holds the configuration for the HTTP server.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":3001").
	ListenAddr string

	Handler http.Handler

	// TLSConfig enables HTTPS when set.
	TLSConfig *tls.Config
}

type Server struct {
	config Config
	http   *http.Server

	mu       sync.Mutex
	listener net.Listener
}

func New(cfg Config) *Server {
	return &Server{
		config: cfg,
		http: &http.Server{
			Handler:           cfg.Handler,
			TLSConfig:         cfg.TLSConfig,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
		},
	}
}

// ListenAndServe serves until ctx is cancelled, then stops accepting
// connections and waits up to 30 seconds for in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}
	if s.config.TLSConfig != nil {
		ln = tls.NewListener(ln, s.config.TLSConfig)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	slog.Info("HTTP server listening",
		"addr", ln.Addr().String(),
		"tls_enabled", s.config.TLSConfig != nil,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown timeout reached, forcing close", "error", err)
		return s.http.Close()
	}

	slog.Info("all requests completed")
	return nil
}

// Addr returns the listener address, or empty string if not listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
