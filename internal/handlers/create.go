package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mpetrashov/user-geo-service/internal/models"
)

// UserCreator defines the interface that the service must implement.
type UserCreator interface {
	Create(ctx context.Context, name, zipCode, country string) (*models.User, error)
}

// CreateUserRequest represents the JSON body for user creation
// swagger:model CreateUserRequest
type CreateUserRequest struct {
	// Display name
	// required: true
	// example: Ada
	Name string `json:"name"`

	// Postal code
	// required: true
	// example: 10001
	ZipCode string `json:"zipCode"`

	// ISO-2 country code, defaults to US
	// example: US
	Country string `json:"country"`
}

const (
	maxNameLength = 120
	maxZipLength  = 20
)

func validateCreate(req CreateUserRequest) []models.ErrorDetail {
	var details []models.ErrorDetail
	if req.Name == "" {
		details = append(details, models.ErrorDetail{Path: "name", Message: "name is required", Code: "too_small"})
	} else if len(req.Name) > maxNameLength {
		details = append(details, models.ErrorDetail{Path: "name", Message: "name must contain at most 120 characters", Code: "too_big"})
	}
	if req.ZipCode == "" {
		details = append(details, models.ErrorDetail{Path: "zipCode", Message: "zipCode is required", Code: "too_small"})
	} else if len(req.ZipCode) > maxZipLength {
		details = append(details, models.ErrorDetail{Path: "zipCode", Message: "zipCode must contain at most 20 characters", Code: "too_big"})
	}
	return details
}

// NewCreateUserHandler returns an HTTP handler for user creation.
// @Summary Create a user
// @Description Validates the body, geocodes the zip+country pair and persists a new record. Coordinates and timezone are always server-computed.
// @Tags users
// @Accept json
// @Produce json
// @Param createUserRequest body handlers.CreateUserRequest true "User creation request"
// @Success 201 {object} handlers.UserResponse "Created user"
// @Failure 400 {object} models.ErrorResponse "Invalid request body or zip/country rejected upstream"
// @Failure 422 {object} models.ErrorResponse "Coordinates could not be resolved"
// @Failure 502 {object} models.ErrorResponse "Upstream geocoding failure"
// @Failure 504 {object} models.ErrorResponse "Upstream geocoding timeout"
// @Router /api/users [post]
func NewCreateUserHandler(svc UserCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", bodyDetails(err))
			return
		}

		if details := validateCreate(req); len(details) > 0 {
			writeError(w, http.StatusBadRequest, "Invalid request body", details)
			return
		}

		user, err := svc.Create(r.Context(), req.Name, req.ZipCode, req.Country)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, UserResponse{Data: *user})
	}
}
