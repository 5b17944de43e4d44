package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mpetrashov/user-geo-service/internal/facades"
	"github.com/mpetrashov/user-geo-service/internal/logger"
	"github.com/mpetrashov/user-geo-service/internal/models"
	"github.com/mpetrashov/user-geo-service/internal/services"
)

// UserResponse wraps a single user record.
// swagger:model UserResponse
type UserResponse struct {
	Data models.User `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorw("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, details []models.ErrorDetail) {
	writeJSON(w, status, models.ErrorResponse{
		Error: models.ErrorBody{
			Message: message,
			Status:  status,
			Details: details,
		},
	})
}

// writeServiceError maps service and facade errors onto the fixed taxonomy.
// Anything unrecognized is an internal error.
func writeServiceError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, facades.ErrGeocodeTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, facades.ErrGeocodeInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, facades.ErrGeocodeAuth):
		status = http.StatusBadGateway
	case errors.Is(err, facades.ErrGeocodeRateLimited):
		status = http.StatusServiceUnavailable
	case errors.Is(err, facades.ErrGeocodeUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, facades.ErrUnresolvableCoordinates):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, facades.ErrMissingAPIKey):
		status = http.StatusServiceUnavailable
	default:
		logger.Log.Errorw("internal server error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	writeError(w, status, err.Error(), nil)
}

// bodyDetails converts a JSON decoding failure into validation details where
// possible (type mismatches carry field, expected and received).
func bodyDetails(err error) []models.ErrorDetail {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []models.ErrorDetail{{
			Path:     typeErr.Field,
			Message:  "Expected " + typeErr.Type.String() + ", received " + typeErr.Value,
			Code:     "invalid_type",
			Expected: typeErr.Type.String(),
			Received: typeErr.Value,
		}}
	}
	return nil
}
