package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/predibet/internal/domain"
	"github.com/alanyoungcy/predibet/internal/service"
)

// MarketService defines the methods that the market handler requires from the
// service layer. It is declared locally so the handler package does not depend
// on the concrete service implementation.
type MarketService interface {
	ListMarkets(ctx context.Context, opts domain.QueryOpts) (service.MarketList, error)
	TopMarkets(ctx context.Context, n int) (service.MarketList, error)
	GetMarket(ctx context.Context, id string) (domain.Market, error)
}

// MarketHandler serves market-related HTTP endpoints.
type MarketHandler struct {
	markets MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given service and logger.
func NewMarketHandler(markets MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		logger:  logger,
	}
}

// listMarketsResponse wraps the list endpoint output with cache metadata.
type listMarketsResponse struct {
	Success         bool            `json:"success"`
	Count           int             `json:"count"`
	TotalAvailable  int             `json:"total_available"`
	Cached          bool            `json:"cached"`
	CacheAgeSeconds int             `json:"cache_age_seconds"`
	Markets         []domain.Market `json:"markets"`
}

func newListResponse(list service.MarketList) listMarketsResponse {
	markets := list.Markets
	if markets == nil {
		markets = []domain.Market{}
	}
	return listMarketsResponse{
		Success:         true,
		Count:           len(markets),
		TotalAvailable:  list.TotalAvailable,
		Cached:          list.Cached,
		CacheAgeSeconds: ageSeconds(list.CacheAge),
		Markets:         markets,
	}
}

// ListMarkets returns live markets sorted by volume.
// GET /api/markets?limit=1000&min_volume=0&category=Sports&search=election
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	opts, err := parseQueryOpts(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, clientMessage(err))
		return
	}

	list, err := h.markets.ListMarkets(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list markets failed",
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(list))
}

// TopMarkets returns the N highest-volume markets.
// GET /api/markets/top/{n}
func (h *MarketHandler) TopMarkets(w http.ResponseWriter, r *http.Request) {
	badN := fmt.Sprintf("N must be between 1 and %d", domain.MaxQueryLimit)

	n, err := strconv.Atoi(pathParam(r, "n"))
	if err != nil {
		writeError(w, http.StatusBadRequest, badN)
		return
	}

	list, err := h.markets.TopMarkets(r.Context(), n)
	if errors.Is(err, domain.ErrInvalidQuery) {
		writeError(w, http.StatusBadRequest, badN)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: top markets failed",
			slog.Int("n", n),
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(list))
}

// GetMarket returns a single market by its ID or condition ID.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	m, err := h.markets.GetMarket(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "market not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get market failed",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"market":  m,
	})
}
