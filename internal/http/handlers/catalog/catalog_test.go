package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/kyc-portal/internal/config"
	"github.com/magabrotheeeer/kyc-portal/internal/gateway"
	"github.com/magabrotheeeer/kyc-portal/internal/lib/sl"
	"github.com/magabrotheeeer/kyc-portal/internal/models"
)

type BackendMock struct {
	mock.Mock
}

func (m *BackendMock) ListServices(ctx context.Context) ([]models.Service, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]models.Service)
	return out, args.Error(1)
}

func (m *BackendMock) GetService(ctx context.Context, id string) (models.Service, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(models.Service)
	return out, args.Error(1)
}

func (m *BackendMock) ServiceReviews(ctx context.Context, id string) ([]models.Review, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).([]models.Review)
	return out, args.Error(1)
}

func router(backend Service) http.Handler {
	h := New(sl.Discard(), func(*http.Request) Service { return backend })
	r := chi.NewRouter()
	r.Get("/services", h.List)
	r.Get("/services/{id}", h.Detail)
	return r
}

type envelope struct {
	Status string          `json:"status"`
	Error  string          `json:"error"`
	Data   json.RawMessage `json:"data"`
}

func do(t *testing.T, h http.Handler, target string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return rec.Code, env
}

func TestList_OnlyActive(t *testing.T) {
	backend := new(BackendMock)
	backend.On("ListServices", mock.Anything).Return([]models.Service{
		{ID: "1", Name: "Passport", Active: true},
		{ID: "2", Name: "Legacy", Active: false},
	}, nil)

	code, env := do(t, router(backend), "/services")

	assert.Equal(t, http.StatusOK, code)
	var got []models.Service
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Passport", got[0].Name)
}

func TestDetail(t *testing.T) {
	t.Run("with reviews", func(t *testing.T) {
		backend := new(BackendMock)
		backend.On("GetService", mock.Anything, "7").Return(models.Service{ID: "7", Name: "Face match"}, nil)
		backend.On("ServiceReviews", mock.Anything, "7").Return([]models.Review{{Rating: 5}, {Rating: 4}}, nil)

		code, env := do(t, router(backend), "/services/7")

		assert.Equal(t, http.StatusOK, code)
		var got struct {
			Service       models.Service  `json:"service"`
			Reviews       []models.Review `json:"reviews"`
			AverageRating float64         `json:"averageRating"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "Face match", got.Service.Name)
		assert.Len(t, got.Reviews, 2)
		assert.InDelta(t, 4.5, got.AverageRating, 1e-9)
	})

	t.Run("reviews failure tolerated", func(t *testing.T) {
		backend := new(BackendMock)
		backend.On("GetService", mock.Anything, "7").Return(models.Service{ID: "7"}, nil)
		backend.On("ServiceReviews", mock.Anything, "7").Return(nil, errors.New("boom"))

		code, _ := do(t, router(backend), "/services/7")
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("not found", func(t *testing.T) {
		backend := new(BackendMock)
		backend.On("GetService", mock.Anything, "404").
			Return(nil, &gateway.APIError{Status: http.StatusNotFound, Message: "service not found"})

		code, env := do(t, router(backend), "/services/404")
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "service not found", env.Error)
		backend.AssertNotCalled(t, "ServiceReviews", mock.Anything, mock.Anything)
	})
}

func TestFirebaseConfig(t *testing.T) {
	cfg := config.Firebase{APIKey: "key", ProjectID: "kyc", UseEmulator: true}
	rec := httptest.NewRecorder()

	FirebaseConfig(cfg)(rec, httptest.NewRequest(http.MethodGet, "/config/firebase", nil))

	assert.JSONEq(t, `{"status":"OK","data":{"apiKey":"key","authDomain":"","projectId":"kyc",
		"storageBucket":"","messagingSenderId":"","appId":"","useEmulator":true}}`, rec.Body.String())
}
