package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quantfolio/portfolio-analytics-backend/internal/service"
)

// PositionHandler handles position snapshot HTTP requests
type PositionHandler struct {
	positionService *service.PositionService
}

// NewPositionHandler creates a new PositionHandler
func NewPositionHandler(positionService *service.PositionService) *PositionHandler {
	return &PositionHandler{
		positionService: positionService,
	}
}

// List handles GET /api/portfolios/{id}/positions
func (h *PositionHandler) List(w http.ResponseWriter, r *http.Request) {
	positions, err := h.positionService.Compute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, positions)
}
