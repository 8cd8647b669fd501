package handler

import "net/http"

// getDashboard handles GET /trip/dashboard.
func (s *Server) getDashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dashboard.Dashboard())
}
