package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/snarg/transcript-viewer/internal/library"
	"github.com/snarg/transcript-viewer/internal/storage"
	"github.com/snarg/transcript-viewer/internal/transcript"
)

type MediaHandler struct {
	lib *library.Library
}

func NewMediaHandler(lib *library.Library) *MediaHandler {
	return &MediaHandler{lib: lib}
}

// MediaEntry is one catalog row. Index is the position in name order and is
// what every other media and session call takes.
type MediaEntry struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Audio  string `json:"audio"`
	HasVTT bool   `json:"has_vtt"`
}

// ListMedia returns the catalog sorted by name.
func (h *MediaHandler) ListMedia(w http.ResponseWriter, r *http.Request) {
	files, err := h.lib.List(r.Context())
	if err != nil {
		WriteErrorDetail(w, http.StatusBadGateway, "failed to load media catalog", err.Error())
		return
	}
	entries := make([]MediaEntry, len(files))
	for i, f := range files {
		entries[i] = MediaEntry{Index: i, Name: f.Name, Audio: f.Audio, HasVTT: f.HasVTT()}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"media": entries,
		"total": len(entries),
	})
}

// GetAudio streams or redirects to the audio file of a catalog entry.
func (h *MediaHandler) GetAudio(w http.ResponseWriter, r *http.Request) {
	m, ok := h.media(w, r)
	if !ok {
		return
	}
	h.serveFile(w, r, m.Audio)
}

// GetVTT streams or redirects to the caption file of a catalog entry.
func (h *MediaHandler) GetVTT(w http.ResponseWriter, r *http.Request) {
	m, ok := h.media(w, r)
	if !ok {
		return
	}
	if !m.HasVTT() {
		WriteError(w, http.StatusNotFound, "no VTT available")
		return
	}
	h.serveFile(w, r, m.VTT)
}

// GetTranscript returns the raw transcript document of a catalog entry.
func (h *MediaHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	index, err := PathInt(r, "index")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid media index")
		return
	}
	loaded, err := h.lib.Transcript(r.Context(), index)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(loaded.Raw)
}

func (h *MediaHandler) media(w http.ResponseWriter, r *http.Request) (transcript.MediaFile, bool) {
	index, err := PathInt(r, "index")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid media index")
		return transcript.MediaFile{}, false
	}
	m, err := h.lib.Media(r.Context(), index)
	if err != nil {
		writeLibraryError(w, err)
		return transcript.MediaFile{}, false
	}
	return m, true
}

var contentTypes = map[string]string{
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".vtt":  "text/vtt; charset=utf-8",
}

// serveFile sends a stored file: straight from disk for the local backend,
// a redirect to a presigned URL for S3, or a proxied stream as a fallback.
func (h *MediaHandler) serveFile(w http.ResponseWriter, r *http.Request, key string) {
	store := h.lib.Store()
	ext := strings.ToLower(path.Ext(key))

	if local, ok := store.(*storage.LocalStore); ok {
		p := local.LocalPath(key)
		if p == "" {
			WriteError(w, http.StatusNotFound, "file not found")
			return
		}
		if ct, ok := contentTypes[ext]; ok {
			w.Header().Set("Content-Type", ct)
		}
		http.ServeFile(w, r, p)
		return
	}

	if !store.Exists(r.Context(), key) {
		WriteError(w, http.StatusNotFound, "file not found")
		return
	}
	if url, err := store.URL(r.Context(), key); err == nil && url != "" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	rc, err := store.Open(r.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("key", key).Msg("failed to open media file")
		WriteError(w, http.StatusBadGateway, "failed to open media file")
		return
	}
	defer rc.Close()

	if ct, ok := contentTypes[ext]; ok {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, path.Base(key)))
	io.Copy(w, rc)
}

// writeLibraryError maps catalog and transcript errors to HTTP statuses.
func writeLibraryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		WriteError(w, http.StatusNotFound, "media entry not found")
	case errors.Is(err, storage.ErrNotFound):
		WriteErrorDetail(w, http.StatusNotFound, "file not found", err.Error())
	case errors.Is(err, transcript.ErrMalformed):
		WriteErrorDetail(w, http.StatusUnprocessableEntity, "malformed document", err.Error())
	default:
		WriteErrorDetail(w, http.StatusBadGateway, "failed to load media", err.Error())
	}
}

// Routes registers media routes on the given router.
func (h *MediaHandler) Routes(r chi.Router) {
	r.Get("/media", h.ListMedia)
	r.Get("/media/{index}/audio", h.GetAudio)
	r.Get("/media/{index}/vtt", h.GetVTT)
	r.Get("/media/{index}/transcript", h.GetTranscript)
}
