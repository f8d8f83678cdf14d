package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the API server
func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	// Health check endpoint
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// API v1 endpoints. Kept on the root router: method mismatches must answer 405.
	r.HandleFunc("/api/v1/spawn/current", s.handleCurrent).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/spawn/history", s.handleHistory).Methods(http.MethodGet)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	return r
}
