// Package api exposes the kiosk-facing and admin-facing HTTP surface.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/goodtune/tubetime/internal/session"
	"github.com/goodtune/tubetime/internal/storage"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Server is the API HTTP server.
type Server struct {
	svc      *session.Service
	store    storage.Store
	server   *http.Server
	router   *mux.Router
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates the API server and wires its routes.
func NewServer(addr string, svc *session.Service, store storage.Store, logger zerolog.Logger) *Server {
	router := mux.NewRouter()

	s := &Server{
		svc:    svc,
		store:  store,
		router: router,
		logger: logger.With().Str("component", "api").Logger(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(LoggingMiddleware(s.logger))

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/budget", s.handleBudget).Methods("GET")
	api.HandleFunc("/watch", s.handleWatch).Methods("POST")
	api.HandleFunc("/warnings", s.handleWarning).Methods("POST")
	api.HandleFunc("/selection", s.handleSelection).Methods("POST")
	api.HandleFunc("/grace", s.handleGrace).Methods("GET")
	api.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
	api.HandleFunc("/settings", s.handlePutSettings).Methods("PUT")
	api.HandleFunc("/catalog/items", s.handleListItems).Methods("GET")
	api.HandleFunc("/catalog/items/{id}", s.handleUpsertItem).Methods("PUT")
	api.HandleFunc("/catalog/items/{id}/ban", s.handleBanItem).Methods("POST")
}

// Handler returns the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the API server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting API server")
	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated API listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()
	return nil
}

// Stop gracefully shuts the API server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping API server")
	return s.server.Shutdown(ctx)
}
