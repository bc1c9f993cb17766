package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quantfolio/portfolio-analytics-backend/internal/service"
)

// SignalHandler handles technical signal HTTP requests
type SignalHandler struct {
	tickerMetricsService *service.TickerMetricsService
}

// NewSignalHandler creates a new SignalHandler
func NewSignalHandler(tickerMetricsService *service.TickerMetricsService) *SignalHandler {
	return &SignalHandler{
		tickerMetricsService: tickerMetricsService,
	}
}

// Tech handles GET /api/signals/{ticker}/tech?start&end&window&fast&slow&rsi
func (h *SignalHandler) Tech(w http.ResponseWriter, r *http.Request) {
	start, end, err := metricsWindow(r)
	if err != nil {
		respondError(w, err)
		return
	}

	opts := service.DefaultSignalOptions()
	if opts.MomentumWindow, err = intParam(r, "window", opts.MomentumWindow); err != nil {
		respondError(w, err)
		return
	}
	if opts.FastWindow, err = intParam(r, "fast", opts.FastWindow); err != nil {
		respondError(w, err)
		return
	}
	if opts.SlowWindow, err = intParam(r, "slow", opts.SlowWindow); err != nil {
		respondError(w, err)
		return
	}
	if opts.RSIPeriod, err = intParam(r, "rsi", opts.RSIPeriod); err != nil {
		respondError(w, err)
		return
	}

	signals, err := h.tickerMetricsService.Signals(r.Context(), chi.URLParam(r, "ticker"), start, end, opts)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, signals)
}
