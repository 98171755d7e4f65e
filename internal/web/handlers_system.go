package web

import (
	"net/http"
	"time"
)

// handleHealth verifies the API is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "integration-backend",
		"timestamp": time.Now().UTC(),
	})
}
