package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mpetrashov/user-geo-service/internal/models"
)

// UserUpdater defines the interface that the service must implement.
type UserUpdater interface {
	Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
}

func validateUpdate(upd models.UserUpdate) []models.ErrorDetail {
	var details []models.ErrorDetail
	if upd.Name != nil {
		if *upd.Name == "" {
			details = append(details, models.ErrorDetail{Path: "name", Message: "name must contain at least 1 character", Code: "too_small"})
		} else if len(*upd.Name) > maxNameLength {
			details = append(details, models.ErrorDetail{Path: "name", Message: "name must contain at most 120 characters", Code: "too_big"})
		}
	}
	if upd.ZipCode != nil {
		if *upd.ZipCode == "" {
			details = append(details, models.ErrorDetail{Path: "zipCode", Message: "zipCode must contain at least 1 character", Code: "too_small"})
		} else if len(*upd.ZipCode) > maxZipLength {
			details = append(details, models.ErrorDetail{Path: "zipCode", Message: "zipCode must contain at most 20 characters", Code: "too_big"})
		}
	}
	return details
}

// NewUpdateUserHandler returns an HTTP handler for partial user updates.
// @Summary Update a user
// @Description Applies a partial update. A changed zip code triggers re-geocoding; server-computed coordinates and timezone then override caller-supplied values.
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Param userUpdate body models.UserUpdate true "Fields to update"
// @Success 200 {object} handlers.UserResponse "The merged user"
// @Failure 400 {object} models.ErrorResponse "Invalid request body or zip/country rejected upstream"
// @Failure 404 {object} models.ErrorResponse "Unknown id"
// @Router /api/users/{id} [patch]
func NewUpdateUserHandler(svc UserUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var upd models.UserUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", bodyDetails(err))
			return
		}

		if details := validateUpdate(upd); len(details) > 0 {
			writeError(w, http.StatusBadRequest, "Invalid request body", details)
			return
		}

		id := chi.URLParam(r, "id")

		user, err := svc.Update(r.Context(), id, upd)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, UserResponse{Data: *user})
	}
}
