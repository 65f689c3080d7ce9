package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// handleTicketStatus streams a ticket's progress events as Server-Sent
// Events. The stream replays any events the run has already produced, then
// follows live until the terminal event, sending `: keepalive` comments
// while the pipeline is quiet. Unknown or evicted tickets get a 404.
func (s *Server) handleTicketStatus(w http.ResponseWriter, r *http.Request) {
	ticketID := r.PathValue("ticket_id")
	run := s.svc.Tickets.Lookup(ticketID)
	if run == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown ticket: " + ticketID})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := run.Channel.Subscribe()
	defer sub.Close()

	log := s.logger.With("ticket", ticketID)
	log.Debug("sse stream opened")

	for {
		select {
		case evt, open := <-sub.Events():
			if !open {
				log.Debug("sse stream finished")
				return
			}
			if evt.Keepalive {
				fmt.Fprint(w, ": keepalive\n\n")
				flusher.Flush()
				continue
			}
			data, err := json.Marshal(evt)
			if err != nil {
				log.Error("encode progress event", "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-r.Context().Done():
			log.Debug("sse client disconnected")
			return
		}
	}
}
