package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mpetrashov/user-geo-service/internal/models"
)

// UserGetter defines the interface that the service must implement.
type UserGetter interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// NewGetUserHandler returns an HTTP handler fetching one user by id.
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} handlers.UserResponse "The user"
// @Failure 404 {object} models.ErrorResponse "Unknown id"
// @Router /api/users/{id} [get]
func NewGetUserHandler(svc UserGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		user, err := svc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, UserResponse{Data: *user})
	}
}
