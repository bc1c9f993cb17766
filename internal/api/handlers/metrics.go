package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quantfolio/portfolio-analytics-backend/internal/apperrors"
	"github.com/quantfolio/portfolio-analytics-backend/internal/model"
	"github.com/quantfolio/portfolio-analytics-backend/internal/service"
)

// MetricsHandler handles portfolio and single-ticker metric HTTP requests
type MetricsHandler struct {
	metricsService       *service.MetricsService
	tickerMetricsService *service.TickerMetricsService
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(
	metricsService *service.MetricsService,
	tickerMetricsService *service.TickerMetricsService,
) *MetricsHandler {
	return &MetricsHandler{
		metricsService:       metricsService,
		tickerMetricsService: tickerMetricsService,
	}
}

// PortfolioMetricsResponse wraps the engine output with the resolved window.
type PortfolioMetricsResponse struct {
	model.PortfolioMetrics
	Start string `json:"start"`
	End   string `json:"end"`
}

// Portfolio handles GET /api/portfolios/{id}/metrics?start&end&rf&mar.
// start is required; end defaults to today; rf and mar default to 0.
func (h *MetricsHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("start") == "" {
		respondError(w, fmt.Errorf("%w: start is required", apperrors.ErrInvalidInput))
		return
	}
	start, err := dateParam(r, "start", today())
	if err != nil {
		respondError(w, err)
		return
	}
	end, err := dateParam(r, "end", today())
	if err != nil {
		respondError(w, err)
		return
	}
	rf, err := floatParam(r, "rf", 0)
	if err != nil {
		respondError(w, err)
		return
	}
	mar, err := floatParam(r, "mar", 0)
	if err != nil {
		respondError(w, err)
		return
	}

	metrics, err := h.metricsService.PortfolioMetrics(r.Context(), chi.URLParam(r, "id"), start, end, rf, mar)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, PortfolioMetricsResponse{
		PortfolioMetrics: metrics,
		Start:            start.Format("2006-01-02"),
		End:              end.Format("2006-01-02"),
	})
}

// Basic handles GET /api/metrics/{ticker}/basic?start&end&rf
func (h *MetricsHandler) Basic(w http.ResponseWriter, r *http.Request) {
	start, end, err := metricsWindow(r)
	if err != nil {
		respondError(w, err)
		return
	}
	rf, err := floatParam(r, "rf", 0)
	if err != nil {
		respondError(w, err)
		return
	}

	metrics, err := h.tickerMetricsService.Basic(r.Context(), chi.URLParam(r, "ticker"), start, end, rf)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

// Advanced handles GET /api/metrics/{ticker}/advanced?start&end&rf&mar
func (h *MetricsHandler) Advanced(w http.ResponseWriter, r *http.Request) {
	start, end, err := metricsWindow(r)
	if err != nil {
		respondError(w, err)
		return
	}
	rf, err := floatParam(r, "rf", 0)
	if err != nil {
		respondError(w, err)
		return
	}
	mar, err := floatParam(r, "mar", 0)
	if err != nil {
		respondError(w, err)
		return
	}

	metrics, err := h.tickerMetricsService.Advanced(r.Context(), chi.URLParam(r, "ticker"), start, end, rf, mar)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

// metricsWindow resolves the start/end window for single-ticker endpoints:
// end defaults to today, start to one year before end.
func metricsWindow(r *http.Request) (start, end time.Time, err error) {
	end, err = dateParam(r, "end", today())
	if err != nil {
		return start, end, err
	}
	start, err = dateParam(r, "start", end.AddDate(-1, 0, 0))
	return start, end, err
}
