package handlers

import (
	"database/sql"
	"net/http"

	"github.com/quantfolio/portfolio-analytics-backend/internal/database"
)

// SystemHandler handles system-related HTTP requests
type SystemHandler struct {
	db *sql.DB
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db *sql.DB) *SystemHandler {
	return &SystemHandler{db: db}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health reports service liveness and database reachability.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{Status: "ok", Database: "ok"}
	status := http.StatusOK

	if err := database.HealthCheck(h.db); err != nil {
		response.Status = "degraded"
		response.Database = err.Error()
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, response)
}
