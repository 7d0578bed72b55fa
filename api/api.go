// Package api exposes the sync trigger, conflict resolution and
// read-only listing endpoints over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/slabworks/catalog-sync/e"
	"github.com/slabworks/catalog-sync/sql"
	"github.com/slabworks/catalog-sync/sync"
)

const (
	// DefaultShutdownWait how long in-flight requests get to finish
	DefaultShutdownWait = 10 * time.Second

	ECode0B0101 = e.Code0B01 + "01"
	ECode0B0102 = e.Code0B01 + "02"
)

// Server serves the sync API
type Server struct {
	db       *sql.Connection
	runner   *sync.Runner
	resolver *sync.Resolver
	mux      *chi.Mux
	srv      *http.Server
}

// New returns a server with all routes registered
func New(addr string, db *sql.Connection, runner *sync.Runner,
	resolver *sync.Resolver) (s *Server) {
	s = &Server{
		db:       db,
		runner:   runner,
		resolver: resolver,
		mux:      chi.NewMux(),
	}

	s.mux.Use(middleware.Recoverer)
	s.mux.Use(CORS)
	s.mux.Use(GZIP)

	s.mux.Get("/healthz", s.handleHealth)
	s.mux.Route("/api/v1", func(r chi.Router) {
		r.Post("/sync/run", s.handleRun)
		r.Post("/sync/resolve", s.handleResolve)
		r.Get("/sync/queue", s.handleQueueList)
		r.Get("/inventory/items", s.handleItemList)
	})

	s.srv = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	return s
}

// Handler returns the route handler, for tests
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves until the context is canceled, then shuts
// down gracefully
func (s *Server) ListenAndServe(ctx context.Context) (err error) {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("api listening on %s", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return e.W(err, ECode0B0101)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		DefaultShutdownWait)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return e.W(err, ECode0B0102)
	}

	return nil
}
