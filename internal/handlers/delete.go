package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// UserDeleter defines the interface that the service must implement.
type UserDeleter interface {
	Delete(ctx context.Context, id string) error
}

// NewDeleteUserHandler returns an HTTP handler removing one user.
// @Summary Delete a user
// @Tags users
// @Produce json
// @Param id path string true "User id"
// @Success 204 "Deleted"
// @Failure 404 {object} models.ErrorResponse "Unknown id"
// @Router /api/users/{id} [delete]
func NewDeleteUserHandler(svc UserDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := svc.Delete(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
