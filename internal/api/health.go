package api

import "net/http"

// health is a simple liveness probe. Returns 200 OK with {"status":"ok"}.
func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}
