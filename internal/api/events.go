package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/snarg/transcript-viewer/internal/viewer"
)

const keepaliveInterval = 15 * time.Second

type EventsHandler struct {
	m *viewer.Manager
}

func NewEventsHandler(m *viewer.Manager) *EventsHandler {
	return &EventsHandler{m: m}
}

// StreamEvents opens an SSE connection carrying one session's timeline,
// bucket and load events.
func (h *EventsHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.m.Get(id)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	bus := h.m.Bus()

	// Subscribe before replaying so nothing published in between is lost.
	ch, cancel := bus.Subscribe(id)
	defer cancel()

	if lastEventID := r.Header.Get("Last-Event-ID"); lastEventID != "" {
		for _, e := range bus.ReplaySince(lastEventID, id) {
			writeEvent(w, e)
		}
	} else if res, ok := s.Last(); ok {
		// Fresh connections start from the word currently on screen.
		if data, err := json.Marshal(res); err == nil {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", viewer.EventTimeline, data)
		}
	}
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	log := hlog.FromRequest(r)
	log.Info().Str("session", id).Msg("SSE client connected")

	for {
		select {
		case <-r.Context().Done():
			log.Info().Str("session", id).Msg("SSE client disconnected")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, event)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, e viewer.Event) {
	fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Type, e.Data)
}

// Routes registers event routes on the given router.
func (h *EventsHandler) Routes(r chi.Router) {
	r.Get("/sessions/{id}/events", h.StreamEvents)
}
