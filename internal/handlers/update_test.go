package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/mpetrashov/user-geo-service/internal/facades"
	"github.com/mpetrashov/user-geo-service/internal/handlers"
	"github.com/mpetrashov/user-geo-service/internal/models"
	"github.com/mpetrashov/user-geo-service/internal/services"
)

func TestUpdateUserHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := handlers.NewMockUserUpdater(ctrl)

	r := chi.NewRouter()
	r.Patch("/api/users/{id}", handlers.NewUpdateUserHandler(mockSvc))

	strptr := func(s string) *string { return &s }

	tests := []struct {
		name           string
		id             string
		body           string
		mockSetup      func()
		expectedStatus int
		checkBody      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name: "name only",
			id:   "u1",
			body: `{"name":"Grace"}`,
			mockSetup: func() {
				mockSvc.EXPECT().
					Update(gomock.Any(), "u1", models.UserUpdate{Name: strptr("Grace")}).
					Return(&models.User{ID: "u1", Name: "Grace"}, nil)
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp handlers.UserResponse
				assert.NoError(t, decodeBody(rec, &resp))
				assert.Equal(t, "Grace", resp.Data.Name)
			},
		},
		{
			name: "zip change returns re-geocoded record",
			id:   "u1",
			body: `{"zipCode":"94105"}`,
			mockSetup: func() {
				mockSvc.EXPECT().
					Update(gomock.Any(), "u1", models.UserUpdate{ZipCode: strptr("94105")}).
					Return(&models.User{
						ID:       "u1",
						ZipCode:  "94105",
						Latitude: 37.79, Longitude: -122.39,
						Timezone: "America/Los_Angeles",
					}, nil)
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp handlers.UserResponse
				assert.NoError(t, decodeBody(rec, &resp))
				assert.Equal(t, "America/Los_Angeles", resp.Data.Timezone)
			},
		},
		{
			name: "empty body still succeeds",
			id:   "u1",
			body: `{}`,
			mockSetup: func() {
				mockSvc.EXPECT().
					Update(gomock.Any(), "u1", models.UserUpdate{}).
					Return(&models.User{ID: "u1"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "empty name rejected",
			id:             "u1",
			body:           `{"name":""}`,
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp models.ErrorResponse
				assert.NoError(t, decodeBody(rec, &resp))
				assert.Equal(t, "name", resp.Error.Details[0].Path)
				assert.Equal(t, "too_small", resp.Error.Details[0].Code)
			},
		},
		{
			name:           "zip too long rejected",
			id:             "u1",
			body:           `{"zipCode":"` + strings.Repeat("1", 21) + `"}`,
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp models.ErrorResponse
				assert.NoError(t, decodeBody(rec, &resp))
				assert.Equal(t, "zipCode", resp.Error.Details[0].Path)
				assert.Equal(t, "too_big", resp.Error.Details[0].Code)
			},
		},
		{
			name:           "malformed JSON",
			id:             "u1",
			body:           `{"name"`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown id",
			id:   "missing",
			body: `{"name":"Grace"}`,
			mockSetup: func() {
				mockSvc.EXPECT().
					Update(gomock.Any(), "missing", gomock.Any()).
					Return(nil, services.ErrUserNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "new zip rejected upstream",
			id:   "u1",
			body: `{"zipCode":"00000"}`,
			mockSetup: func() {
				mockSvc.EXPECT().
					Update(gomock.Any(), "u1", gomock.Any()).
					Return(nil, facades.ErrGeocodeInvalidInput)
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mockSetup != nil {
				tt.mockSetup()
			}

			req := httptest.NewRequest(http.MethodPatch, "/api/users/"+tt.id, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.checkBody != nil {
				tt.checkBody(t, rec)
			}
		})
	}
}
