package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quantfolio/portfolio-analytics-backend/internal/service"
)

// PriceHandler handles price store HTTP requests
type PriceHandler struct {
	priceService *service.PriceService
}

// NewPriceHandler creates a new PriceHandler
func NewPriceHandler(priceService *service.PriceService) *PriceHandler {
	return &PriceHandler{
		priceService: priceService,
	}
}

// LastCloseResponse represents the last close response
type LastCloseResponse struct {
	Ticker string `json:"ticker"`
	Date   string `json:"date"`
	Close  string `json:"close"`
}

// Last handles GET /api/prices/{ticker}/last
func (h *PriceHandler) Last(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	point, err := h.priceService.LastClose(r.Context(), ticker)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, LastCloseResponse{
		Ticker: ticker,
		Date:   point.Date.Format("2006-01-02"),
		Close:  point.Close.String(),
	})
}

// Range handles GET /api/prices/{ticker}/range?start&end. End defaults to
// today, start to one year before end.
func (h *PriceHandler) Range(w http.ResponseWriter, r *http.Request) {
	end, err := dateParam(r, "end", today())
	if err != nil {
		respondError(w, err)
		return
	}
	start, err := dateParam(r, "start", end.AddDate(-1, 0, 0))
	if err != nil {
		respondError(w, err)
		return
	}

	bars, err := h.priceService.Range(chi.URLParam(r, "ticker"), start, end)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, bars)
}

// RefreshResponse represents the refresh result
type RefreshResponse struct {
	Ticker string `json:"ticker"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Bars   int    `json:"bars"`
}

// Refresh handles POST /api/prices/{ticker}/refresh?start&end. Upserts
// provider bars keyed on (ticker, date); re-running the same range is safe.
func (h *PriceHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	end, err := dateParam(r, "end", today())
	if err != nil {
		respondError(w, err)
		return
	}
	start, err := dateParam(r, "start", end.AddDate(-1, 0, 0))
	if err != nil {
		respondError(w, err)
		return
	}

	ticker := chi.URLParam(r, "ticker")
	count, err := h.priceService.Refresh(r.Context(), ticker, start, end)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, RefreshResponse{
		Ticker: ticker,
		Start:  start.Format("2006-01-02"),
		End:    end.Format("2006-01-02"),
		Bars:   count,
	})
}
