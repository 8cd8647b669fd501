package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// EventRerender is the server-sent event name emitted whenever the document
// or the sync status changed and clients should redraw.
const EventRerender = "rerender"

// streamEvents handles GET /trip/events as a server-sent event stream. One
// event is sent immediately, then one per coalesced rerender request, each
// carrying the current session status. The stream ends when the client goes
// away or the feed is closed.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", "streaming unsupported")
		return
	}

	// The server's WriteTimeout would cut the stream; lift it for this response.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	signals, cancel := s.events.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := s.writeEvent(w); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, open := <-signals:
			if !open {
				return
			}
			if err := s.writeEvent(w); err != nil {
				s.log.DebugContext(r.Context(), "event stream closed", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) writeEvent(w http.ResponseWriter) error {
	data, err := json.Marshal(s.session.Status())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", EventRerender, data)
	return err
}
