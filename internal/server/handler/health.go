package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/predibet/internal/service"
)

// ReadinessSource reports whether a snapshot has been loaded.
type ReadinessSource interface {
	Readiness() service.Readiness
}

// HealthHandler serves the liveness and readiness endpoints.
type HealthHandler struct {
	ready  ReadinessSource
	now    func() time.Time
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. ready may be nil, in which case
// the readiness endpoint always reports ready.
func NewHealthHandler(ready ReadinessSource, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{ready: ready, now: time.Now, logger: logger}
}

// HealthCheck responds with a simple JSON status indicating the server is alive.
// It never touches the upstream or the cache.
// GET /health, GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

type readinessResponse struct {
	Status          string `json:"status"`
	SnapshotID      string `json:"snapshot_id,omitempty"`
	Markets         int    `json:"markets"`
	CacheAgeSeconds int    `json:"cache_age_seconds"`
}

// Ready answers 200 once a snapshot is held and 503 while the cache is cold.
// GET /api/ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.ready == nil {
		writeJSON(w, http.StatusOK, readinessResponse{Status: "ready"})
		return
	}

	rd := h.ready.Readiness()
	if !rd.Ready {
		writeJSON(w, http.StatusServiceUnavailable, readinessResponse{Status: "warming"})
		return
	}
	writeJSON(w, http.StatusOK, readinessResponse{
		Status:          "ready",
		SnapshotID:      rd.SnapshotID,
		Markets:         rd.Markets,
		CacheAgeSeconds: ageSeconds(rd.CacheAge),
	})
}
