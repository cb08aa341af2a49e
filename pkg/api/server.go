package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/mimir-aip/diamond-price/pkg/mlmodel"
	"github.com/mimir-aip/diamond-price/pkg/scheduler"
)

// Server provides HTTP API endpoints
type Server struct {
	service    *mlmodel.Service
	refresh    *scheduler.Service
	port       string
	router     *mux.Router
	httpServer *http.Server
}

// NewServer creates a new API server. refresh may be nil, in which case the
// refresh endpoints answer 404.
func NewServer(service *mlmodel.Service, refresh *scheduler.Service, port string) *Server {
	s := &Server{
		service: service,
		refresh: refresh,
		port:    port,
		router:  mux.NewRouter(),
	}

	s.registerRoutes()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// registerRoutes sets up the HTTP routes
func (s *Server) registerRoutes() {
	s.router.Use(requestIDMiddleware)
	s.router.Use(loggingMiddleware)
	s.router.Use(recoveryMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()

	// dataset exploration
	v1.HandleFunc("/overview", s.handleOverview).Methods(http.MethodGet)
	v1.HandleFunc("/analysis/correlation", s.handleCorrelation).Methods(http.MethodGet)
	v1.HandleFunc("/analysis/distributions", s.handleDistributions).Methods(http.MethodGet)
	v1.HandleFunc("/analysis/categories", s.handleCategories).Methods(http.MethodGet)
	v1.HandleFunc("/analysis/price-by-category", s.handlePriceByCategory).Methods(http.MethodGet)
	v1.HandleFunc("/schema", s.handleSchema).Methods(http.MethodGet)

	// prediction
	v1.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost)
	v1.HandleFunc("/similar", s.handleSimilar).Methods(http.MethodPost)
	v1.HandleFunc("/predictions", s.handleListPredictions).Methods(http.MethodGet)
	v1.HandleFunc("/predictions/{id}", s.handleGetPrediction).Methods(http.MethodGet)

	// model
	v1.HandleFunc("/model", s.handleModelInfo).Methods(http.MethodGet)
	v1.HandleFunc("/refresh", s.handleRefreshStatus).Methods(http.MethodGet)
	v1.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusNotFound, "Not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops. A graceful
// Shutdown makes it return nil.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("Starting API server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady reports ready once a model has been built
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.service.Ready() {
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  mlmodel.ErrNotReady.Error(),
		})
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}
