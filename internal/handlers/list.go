package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mpetrashov/user-geo-service/internal/models"
)

// UserLister defines the interface that the service must implement.
type UserLister interface {
	List(ctx context.Context, params *models.ListParams) (*models.UserList, error)
}

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

func parseListParams(r *http.Request) (*models.ListParams, []models.ErrorDetail) {
	var details []models.ErrorDetail
	params := &models.ListParams{Page: defaultPage, Limit: defaultLimit}

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			details = append(details, models.ErrorDetail{
				Path: "page", Message: "Expected number, received string", Code: "invalid_type",
				Expected: "number", Received: raw,
			})
		case page < 1:
			details = append(details, models.ErrorDetail{Path: "page", Message: "page must be at least 1", Code: "too_small"})
		default:
			params.Page = page
		}
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			details = append(details, models.ErrorDetail{
				Path: "limit", Message: "Expected number, received string", Code: "invalid_type",
				Expected: "number", Received: raw,
			})
		case limit < 1:
			details = append(details, models.ErrorDetail{Path: "limit", Message: "limit must be at least 1", Code: "too_small"})
		case limit > maxLimit:
			details = append(details, models.ErrorDetail{Path: "limit", Message: "limit must be at most 100", Code: "too_big"})
		default:
			params.Limit = limit
		}
	}

	if len(details) > 0 {
		return nil, details
	}
	return params, nil
}

// NewListUsersHandler returns an HTTP handler listing users with pagination.
// @Summary List users
// @Description Returns a page of users sorted by creation time, newest first.
// @Tags users
// @Produce json
// @Param page query int false "Page number, at least 1" default(1)
// @Param limit query int false "Page size, 1..100" default(10)
// @Success 200 {object} models.UserList "Page of users"
// @Failure 400 {object} models.ErrorResponse "Invalid query parameters"
// @Router /api/users [get]
func NewListUsersHandler(svc UserLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, details := parseListParams(r)
		if details != nil {
			writeError(w, http.StatusBadRequest, "Invalid query parameters", details)
			return
		}

		list, err := svc.List(r.Context(), params)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, list)
	}
}
