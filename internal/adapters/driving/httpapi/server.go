package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/chai-cli/internal/core/ports/driving"
	"github.com/custodia-labs/chai-cli/internal/logger"
)

// DefaultAddr is the listen address used when none is given.
const DefaultAddr = ":8080"

// shutdownTimeout bounds the graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Server serves the HTTP API.
type Server struct {
	router *gin.Engine
	log    *logger.Logger
}

// NewServer builds a server around search.
func NewServer(search driving.SearchService, version string) *Server {
	log := logger.With("component", "httpapi")
	return &Server{
		router: SetupRouter(NewHandler(search, version), log),
		log:    log,
	}
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("shutdown failed", "error", err)
		}
	}()

	s.log.Info("listening", "addr", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
