package handler

import (
	"net/http"
)

// ShareResponse carries the join code of the shared trip.
type ShareResponse struct {
	Code string `json:"code"`
}

// JoinRequest is the body of POST /trip/join.
type JoinRequest struct {
	Code string `json:"code" validate:"required"`
}

// createShare handles POST /trip/share: publish the current document under
// a fresh join code and start syncing.
func (s *Server) createShare(w http.ResponseWriter, r *http.Request) {
	code, err := s.session.CreateTrip(r.Context())
	if err != nil {
		s.fail(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusCreated, ShareResponse{Code: code})
}

// joinShare handles POST /trip/join. The local document is replaced by the
// remote one on success.
func (s *Server) joinShare(w http.ResponseWriter, r *http.Request) {
	var body JoinRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	code, err := s.session.JoinTrip(r.Context(), body.Code)
	if err != nil {
		s.fail(w, r, err, "no trip with that code")
		return
	}
	writeJSON(w, http.StatusOK, ShareResponse{Code: code})
}

// deleteShare handles DELETE /trip/share. The local document is kept.
func (s *Server) deleteShare(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Disconnect(r.Context()); err != nil {
		s.fail(w, r, err, "trip not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getStatus handles GET /trip/status.
func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Status())
}
