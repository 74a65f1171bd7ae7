package register

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/kyc-portal/internal/gateway"
	"github.com/magabrotheeeer/kyc-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/kyc-portal/internal/lib/sl"
	"github.com/magabrotheeeer/kyc-portal/internal/models"
	"github.com/magabrotheeeer/kyc-portal/internal/session"
)

type BackendMock struct {
	mock.Mock
}

func (m *BackendMock) Register(ctx context.Context, req gateway.RegisterRequest) (gateway.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(gateway.AuthResponse)
	return resp, args.Error(1)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	valid := Request{Name: "Ann", Email: "ann@example.com", Password: "password1"}

	tests := []struct {
		name           string
		body           Request
		mockResp       gateway.AuthResponse
		mockErr        error
		callsBackend   bool
		wantStatusCode int
		wantRedirect   string
		wantAuthed     bool
	}{
		{
			name:           "registered and logged in",
			body:           valid,
			mockResp:       gateway.AuthResponse{Token: "tok", User: models.User{ID: "u1", Role: models.RoleUser}},
			callsBackend:   true,
			wantStatusCode: http.StatusCreated,
			wantRedirect:   "/user",
			wantAuthed:     true,
		},
		{
			name:           "registered without token",
			body:           valid,
			callsBackend:   true,
			wantStatusCode: http.StatusCreated,
			wantRedirect:   "/login",
		},
		{
			name:           "email taken",
			body:           valid,
			mockErr:        &gateway.APIError{Status: http.StatusConflict, Message: "email already registered"},
			callsBackend:   true,
			wantStatusCode: http.StatusConflict,
		},
		{
			name:           "short password",
			body:           Request{Name: "Ann", Email: "ann@example.com", Password: "short"},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := new(BackendMock)
			if tt.callsBackend {
				backend.On("Register", mock.Anything, gateway.RegisterRequest(tt.body)).Return(tt.mockResp, tt.mockErr).Once()
			}
			handler := New(sl.Discard(), func(*http.Request) Service { return backend })

			body, err := json.Marshal(tt.body)
			require.NoError(t, err)
			store := session.NewStore(session.State{})
			req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader(body))
			req = req.WithContext(middlewarectx.WithSession(req.Context(), "sid", store))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.wantRedirect != "" {
				var got struct {
					Data map[string]any `json:"data"`
				}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Equal(t, tt.wantRedirect, got.Data["redirect"])
			}
			assert.Equal(t, tt.wantAuthed, store.Get().Authenticated())
			backend.AssertExpectations(t)
		})
	}
}
