package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/predibet/internal/domain"
	"github.com/alanyoungcy/predibet/internal/service"
)

// StatsService summarizes the cached snapshot.
type StatsService interface {
	Stats(ctx context.Context) (service.Stats, error)
}

// StatsHandler serves GET /api/stats.
type StatsHandler struct {
	svc    StatsService
	logger *slog.Logger
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(svc StatsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{svc: svc, logger: logger}
}

type statsBody struct {
	domain.MarketStats
	SnapshotID      string              `json:"snapshot_id"`
	CapturedAt      string              `json:"captured_at"`
	CacheAgeSeconds int                 `json:"cache_age_seconds"`
	Fetch           domain.FetchSummary `json:"fetch"`
}

// GetStats returns market totals plus the fetch summary of the snapshot.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: stats failed",
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats": statsBody{
			MarketStats:     st.MarketStats,
			SnapshotID:      st.SnapshotID,
			CapturedAt:      st.CapturedAt.UTC().Format(time.RFC3339),
			CacheAgeSeconds: ageSeconds(st.CacheAge),
			Fetch:           st.Summary,
		},
	})
}
