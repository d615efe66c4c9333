package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/predibet/internal/domain"
)

// CategoryService lists category counts for the cached snapshot.
type CategoryService interface {
	Categories(ctx context.Context) ([]domain.CategoryCount, error)
}

// CategoryHandler serves GET /api/categories.
type CategoryHandler struct {
	svc    CategoryService
	logger *slog.Logger
}

// NewCategoryHandler creates a CategoryHandler.
func NewCategoryHandler(svc CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{svc: svc, logger: logger}
}

// ListCategories returns every category with its market count, largest first.
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Categories(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list categories failed",
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, err.Error())
		return
	}
	if cats == nil {
		cats = []domain.CategoryCount{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"categories": cats,
	})
}
