// Package rest serves the live backfill status and warehouse summaries over HTTP.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/courtlake/internal/logger"
)

// Server represents the REST API server
type Server struct {
	addr   string
	server *http.Server
	log    *logger.Logger
}

// NewRouter builds the route table. It is exported for tests.
func NewRouter(h *Handler, log *logger.Logger) *mux.Router {
	log = logger.OrNop(log)
	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware(log))
	router.Use(LoggingMiddleware(log))

	// Health check
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/backfill/status", h.BackfillStatus).Methods("GET")
	api.HandleFunc("/backfill/runs", h.BackfillRuns).Methods("GET")
	api.HandleFunc("/backfill/latest", h.LatestRun).Methods("GET")
	api.HandleFunc("/seasons/{season:[0-9]+}/teams", h.TeamSeasonSummary).Methods("GET")
	api.HandleFunc("/games/{gameID}/players", h.PlayerGameSummary).Methods("GET")

	return router
}

// NewServer creates a new REST API server listening on addr, e.g. ":8089".
func NewServer(addr string, h *Handler, log *logger.Logger) *Server {
	log = logger.OrNop(log).Component("rest")
	return &Server{
		addr: addr,
		log:  log,
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(h, log),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves until Shutdown. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.log.Info("status server listening", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
