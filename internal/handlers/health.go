package handlers

import "net/http"

// HealthResponse is the liveness probe body.
// swagger:model HealthResponse
type HealthResponse struct {
	// example: true
	OK bool `json:"ok"`
}

// NewHealthHandler returns the liveness probe handler.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} handlers.HealthResponse
// @Router /health [get]
func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{OK: true})
	}
}
