// Package server wraps http.Server with the lifecycle the daemon needs:
// background start with error reporting and graceful shutdown.
package server

import (
	"context"
	"net/http"
	"time"
)

type Server struct {
	srv    *http.Server
	errors chan error
}

func New(handler http.Handler, port string) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         ":" + port,
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		errors: make(chan error, 1),
	}
}

// Start begins serving in a background goroutine. A listen failure is
// delivered on Errors.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.errors <- err
		}
	}()
}

// Errors reports a fatal serve error, if any.
func (s *Server) Errors() <-chan error {
	return s.errors
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
