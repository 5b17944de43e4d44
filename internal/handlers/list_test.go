package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/mpetrashov/user-geo-service/internal/handlers"
	"github.com/mpetrashov/user-geo-service/internal/models"
)

func TestListUsersHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := handlers.NewMockUserLister(ctrl)
	handler := handlers.NewListUsersHandler(mockSvc)

	page := &models.UserList{
		Data: []models.User{
			{ID: "u2", CreatedAt: 2000},
			{ID: "u1", CreatedAt: 1000},
		},
		Pagination: models.Pagination{
			Page: 1, Limit: 10, Total: 2, TotalPages: 1,
		},
	}

	tests := []struct {
		name           string
		query          string
		mockSetup      func()
		expectedStatus int
		checkBody      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:  "defaults applied",
			query: "",
			mockSetup: func() {
				mockSvc.EXPECT().
					List(gomock.Any(), &models.ListParams{Page: 1, Limit: 10}).
					Return(page, nil)
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp models.UserList
				assert.NoError(t, decodeBody(rec, &resp))
				assert.Len(t, resp.Data, 2)
				assert.Equal(t, "u2", resp.Data[0].ID)
				assert.Equal(t, 2, resp.Pagination.Total)
			},
		},
		{
			name:  "explicit page and limit",
			query: "?page=3&limit=25",
			mockSetup: func() {
				mockSvc.EXPECT().
					List(gomock.Any(), &models.ListParams{Page: 3, Limit: 25}).
					Return(&models.UserList{Data: []models.User{}, Pagination: models.Pagination{Page: 3, Limit: 25}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "non-numeric page",
			query:          "?page=abc",
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp models.ErrorResponse
				assert.NoError(t, decodeBody(rec, &resp))
				assert.Equal(t, "Invalid query parameters", resp.Error.Message)
				assert.Len(t, resp.Error.Details, 1)
				assert.Equal(t, "page", resp.Error.Details[0].Path)
				assert.Equal(t, "invalid_type", resp.Error.Details[0].Code)
				assert.Equal(t, "abc", resp.Error.Details[0].Received)
			},
		},
		{
			name:           "page below one",
			query:          "?page=0",
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp models.ErrorResponse
				assert.NoError(t, decodeBody(rec, &resp))
				assert.Equal(t, "too_small", resp.Error.Details[0].Code)
			},
		},
		{
			name:           "limit above cap",
			query:          "?limit=101",
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp models.ErrorResponse
				assert.NoError(t, decodeBody(rec, &resp))
				assert.Equal(t, "limit", resp.Error.Details[0].Path)
				assert.Equal(t, "too_big", resp.Error.Details[0].Code)
			},
		},
		{
			name:           "both params invalid reports both",
			query:          "?page=x&limit=y",
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp models.ErrorResponse
				assert.NoError(t, decodeBody(rec, &resp))
				assert.Len(t, resp.Error.Details, 2)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mockSetup != nil {
				tt.mockSetup()
			}

			req := httptest.NewRequest(http.MethodGet, "/api/users"+tt.query, nil)
			rec := httptest.NewRecorder()

			handler(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.checkBody != nil {
				tt.checkBody(t, rec)
			}
		})
	}
}
