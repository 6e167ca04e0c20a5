package api

import (
	"net/http"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadiness reports pool health. The service is ready once the pool
// holds at least one live connection.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	stats := s.pool.Stats()
	body := map[string]any{
		"total":       stats.Total,
		"available":   stats.Available,
		"max":         stats.Max,
		"utilization": stats.Utilization,
	}
	if stats.Total == 0 {
		s.respond(w, r, http.StatusServiceUnavailable, body)
		return
	}
	s.respond(w, r, http.StatusOK, body)
}
