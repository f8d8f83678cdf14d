package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

const healthCheckTimeout = 5 * time.Second

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.chain != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if _, err := s.chain.GetLatestBlock(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("health check: rpc unavailable")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("RPC UNAVAILABLE"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleCurrent handles GET /api/v1/spawn/current
func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	rec, err := s.progress.Load(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load progress record")
		writeError(w, http.StatusInternalServerError, "failed to load progress record")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no spawn in progress")
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		Data:      newCurrentSpawn(rec),
		QueriedAt: time.Now().UTC(),
	})
}

// handleHistory handles GET /api/v1/spawn/history?limit=<n>
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	if s.history == nil {
		writeJSON(w, http.StatusOK, QueryResponse{Data: []Attempt{}, QueriedAt: time.Now().UTC()})
		return
	}

	rows, err := s.history.RecentAttempts(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load attempt history")
		writeError(w, http.StatusInternalServerError, "failed to load attempt history")
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		Data:      newAttempts(rows),
		QueriedAt: time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
