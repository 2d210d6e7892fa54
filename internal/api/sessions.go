package api

import (
	"errors"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/snarg/transcript-viewer/internal/timeline"
	"github.com/snarg/transcript-viewer/internal/viewer"
)

type SessionsHandler struct {
	m *viewer.Manager
}

func NewSessionsHandler(m *viewer.Manager) *SessionsHandler {
	return &SessionsHandler{m: m}
}

type createSessionRequest struct {
	Profile string `json:"profile"`
}

type loadRequest struct {
	Index *int `json:"index"`
}

type bucketsRequest struct {
	Mode   string            `json:"mode"`
	Values *timeline.Buckets `json:"values,omitempty"`
}

// CreateSession starts a new viewer session. The body is optional.
func (h *SessionsHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := DecodeJSON(r, &req); err != nil {
			WriteErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}
	s, err := h.m.Create(r.Context(), req.Profile)
	if err != nil {
		WriteErrorDetail(w, http.StatusInternalServerError, "failed to create session", err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, s.State())
}

// GetSession returns the session's current state.
func (h *SessionsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.m.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, s.State())
}

// DeleteSession ends a session.
func (h *SessionsHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.m.Delete(chi.URLParam(r, "id")) {
		WriteError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoadTranscript loads catalog entry {index} into the session. A failed load
// leaves the previously loaded transcript in place.
func (h *SessionsHandler) LoadTranscript(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Index == nil {
		WriteError(w, http.StatusBadRequest, "index is required")
		return
	}
	st, err := h.m.Load(r.Context(), chi.URLParam(r, "id"), *req.Index)
	if err != nil {
		if errors.Is(err, viewer.ErrSessionNotFound) {
			writeSessionError(w, err)
			return
		}
		writeLibraryError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

// GetTranscript returns the loaded transcript with the active thresholds
// written into word_score_buckets.
func (h *SessionsHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	s, err := h.m.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	raw, err := s.TranscriptJSON()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// GetTimeline resolves playback time ?t= to the current word and its
// neighbours. 204 means no word is current and the display should not change.
func (h *SessionsHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	t, ok := QueryFloat(r, "t")
	if !ok || math.IsNaN(t) || math.IsInf(t, 0) {
		WriteError(w, http.StatusBadRequest, "t must be a finite number of seconds")
		return
	}
	res, matched, err := h.m.Tick(chi.URLParam(r, "id"), t)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	if !matched {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// SetBuckets switches between dynamic and static thresholds. For static mode
// values, when present, replace the static set.
func (h *SessionsHandler) SetBuckets(w http.ResponseWriter, r *http.Request) {
	var req bucketsRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	mode, err := viewer.ParseMode(req.Mode)
	if err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid mode", err.Error())
		return
	}
	if mode == viewer.ModeDynamic && req.Values != nil {
		WriteError(w, http.StatusBadRequest, "values are only accepted for static mode")
		return
	}
	st, err := h.m.ApplyBuckets(r.Context(), chi.URLParam(r, "id"), mode, req.Values)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, viewer.ErrSessionNotFound):
		WriteError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, viewer.ErrNoDynamicBuckets):
		WriteError(w, http.StatusConflict, "no dynamic buckets available")
	case errors.Is(err, viewer.ErrNoTranscript):
		WriteError(w, http.StatusConflict, "no transcript loaded")
	case errors.Is(err, timeline.ErrInvalidBuckets):
		WriteErrorDetail(w, http.StatusBadRequest, "invalid bucket values", err.Error())
	default:
		WriteErrorDetail(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

// Routes registers session routes on the given router.
func (h *SessionsHandler) Routes(r chi.Router) {
	r.Post("/sessions", h.CreateSession)
	r.Get("/sessions/{id}", h.GetSession)
	r.Delete("/sessions/{id}", h.DeleteSession)
	r.Post("/sessions/{id}/load", h.LoadTranscript)
	r.Get("/sessions/{id}/transcript", h.GetTranscript)
	r.Get("/sessions/{id}/timeline", h.GetTimeline)
	r.Put("/sessions/{id}/buckets", h.SetBuckets)
}
