// Package server owns the listening socket lifecycle of freshserv.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/netutil"

	"github.com/pelageech/freshserv/config"
)

// shutdownTimeout bounds how long an in-flight request may delay the
// exit after an interrupt.
const shutdownTimeout = 5 * time.Second

var (
	// ErrNilHandler is returned when the server is built without a handler.
	ErrNilHandler = errors.New("handler cannot be nil")
	// ErrNilLogger is returned when the server is built without a logger.
	ErrNilLogger = errors.New("logger cannot be nil")
)

// Server serves one connection to completion at a time until its
// context is interrupted.
type Server struct {
	cfg    config.Config
	srv    *http.Server
	logger *log.Logger
	banner io.Writer
}

// New builds a Server around the given handler chain. The server owns
// only the socket lifecycle; headers and logging live in the handlers.
// Banner output defaults to standard output when banner is nil.
func New(cfg config.Config, h http.Handler, logger *log.Logger, banner io.Writer) (*Server, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if banner == nil {
		banner = os.Stdout
	}

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: h,
	}
	// One request per connection, as the one-at-a-time model expects.
	srv.SetKeepAlivesEnabled(false)

	return &Server{
		cfg:    cfg,
		srv:    srv,
		logger: logger,
		banner: banner,
	}, nil
}

// Run binds the configured address and serves until ctx is done. A bind
// failure is returned as-is: the caller treats it as fatal, no retry.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully: the
// in-flight request completes, bounded by shutdownTimeout. The listener
// is released on every return path.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// One connection is handled to completion before the next is
	// accepted; a slow client holds the only slot.
	ln = netutil.LimitListener(ln, 1)
	defer func() {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Error("Failed to close listener", "err", err)
		}
	}()

	s.printBanner(ln.Addr())

	served := make(chan error, 1)
	go func() {
		served <- s.srv.Serve(ln)
	}()

	select {
	case err := <-served:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Graceful shutdown did not finish in time", "err", err)
		if err := s.srv.Close(); err != nil {
			s.logger.Error("Failed to close server", "err", err)
		}
	}
	<-served

	fmt.Fprintln(s.banner, "Server stopped")
	return nil
}

func (s *Server) printBanner(addr net.Addr) {
	fmt.Fprintf(s.banner, "Server running at http://%s/\n", addr)
	fmt.Fprintln(s.banner, "Cache-busting enabled - files will always be fresh")
	fmt.Fprintln(s.banner, "Press Ctrl+C to stop")
}
