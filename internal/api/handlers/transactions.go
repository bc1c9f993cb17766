package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quantfolio/portfolio-analytics-backend/internal/api/request"
	"github.com/quantfolio/portfolio-analytics-backend/internal/repository"
	"github.com/quantfolio/portfolio-analytics-backend/internal/service"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// Create handles POST /api/portfolios/{id}/transactions
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	transaction, err := h.transactionService.Create(chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, transaction)
}

// List handles GET /api/portfolios/{id}/transactions with optional
// start, end and ticker filters.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.TransactionFilter{
		Ticker: strings.TrimSpace(r.URL.Query().Get("ticker")),
	}

	if r.URL.Query().Get("start") != "" {
		start, err := dateParam(r, "start", time.Time{})
		if err != nil {
			respondError(w, err)
			return
		}
		filter.Start = &start
	}
	if r.URL.Query().Get("end") != "" {
		end, err := dateParam(r, "end", time.Time{})
		if err != nil {
			respondError(w, err)
			return
		}
		filter.End = &end
	}

	transactions, err := h.transactionService.List(chi.URLParam(r, "id"), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, transactions)
}

// Delete handles DELETE /api/portfolios/{id}/transactions/{txnId}
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.transactionService.Delete(chi.URLParam(r, "id"), chi.URLParam(r, "txnId"))
	if err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
