package api

import (
	"net/http"
	"time"

	"github.com/snarg/transcript-viewer/internal/database"
	"github.com/snarg/transcript-viewer/internal/library"
	"github.com/snarg/transcript-viewer/internal/mqttclient"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
	Sessions      int               `json:"sessions"`
	Subscribers   int               `json:"subscribers"`
}

// SessionCounter reports live viewer sessions and SSE subscribers.
type SessionCounter interface {
	SessionCount() int
	SubscriberCount() int
}

// HealthHandler reports the state of every optional dependency. Only the
// media catalog is required; the rest degrade the status.
type HealthHandler struct {
	lib       *library.Library
	db        *database.DB
	mqtt      *mqttclient.Client
	watcher   *library.Watcher
	sessions  SessionCounter
	version   string
	startTime time.Time
}

func NewHealthHandler(lib *library.Library, db *database.DB, mqtt *mqttclient.Client, watcher *library.Watcher, sessions SessionCounter, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		lib:       lib,
		db:        db,
		mqtt:      mqtt,
		watcher:   watcher,
		sessions:  sessions,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	degrade := func() {
		if status == "healthy" {
			status = "degraded"
		}
	}

	// Catalog check
	if _, err := h.lib.List(r.Context()); err != nil {
		checks["catalog"] = "error"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["catalog"] = "ok"
	}
	checks["storage"] = h.lib.Store().Type()

	// Database check
	if h.db != nil {
		if err := h.db.HealthCheck(r.Context()); err != nil {
			checks["database"] = "error"
			degrade()
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not_configured"
	}

	// MQTT check
	if h.mqtt != nil {
		if h.mqtt.IsConnected() {
			checks["mqtt"] = "ok"
		} else {
			checks["mqtt"] = "disconnected"
			degrade()
		}
	} else {
		checks["mqtt"] = "not_configured"
	}

	// File watcher check
	if h.watcher != nil {
		checks["file_watcher"] = h.watcher.Status().Status
	} else if h.lib.Store().Type() == "local" {
		checks["file_watcher"] = "disabled"
	}

	resp := HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	}
	if h.sessions != nil {
		resp.Sessions = h.sessions.SessionCount()
		resp.Subscribers = h.sessions.SubscriberCount()
	}

	WriteJSON(w, httpStatus, resp)
}
