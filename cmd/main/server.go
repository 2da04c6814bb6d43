package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rodriguezmDNA/sonnetGenText/pkg/sonnet"
)

const shutdownTimeout = 10 * time.Second

// Server exposes a Generator over HTTP.
type Server struct {
	logger   *slog.Logger
	quoteAPI *QuoteAPI
	mux      *http.ServeMux
}

// NewServer registers the API routes for gen.
func NewServer(gen *sonnet.Generator, logger *slog.Logger) *Server {
	server := &Server{
		logger:   logger,
		quoteAPI: NewQuoteAPI(gen, logger),
		mux:      http.NewServeMux(),
	}
	server.quoteAPI.RegisterRoutes(server.mux)
	return server
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) serve(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("Server stopped.")
	return nil
}
