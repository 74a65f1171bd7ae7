package sessionstate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/kyc-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/kyc-portal/internal/models"
	"github.com/magabrotheeeer/kyc-portal/internal/session"
)

func TestHandler(t *testing.T) {
	tests := []struct {
		name  string
		state session.State
		want  string
	}{
		{
			name:  "anonymous",
			state: session.State{},
			want:  `{"status":"OK","data":{"authenticated":false,"isLoading":false}}`,
		},
		{
			name:  "loading",
			state: session.State{IsLoading: true},
			want:  `{"status":"OK","data":{"authenticated":false,"isLoading":true}}`,
		},
		{
			name:  "admin without token leak",
			state: session.State{Token: "secret", User: &models.User{ID: "a1", Email: "a@x.io", Role: models.RoleAdmin}},
			want: `{"status":"OK","data":{"authenticated":true,"isLoading":false,"home":"/admin",
				"user":{"id":"a1","email":"a@x.io","role":"admin","activeSubscriptions":null}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/session", nil)
			req = req.WithContext(middlewarectx.WithSession(req.Context(), "sid", session.NewStore(tt.state)))
			rec := httptest.NewRecorder()

			Handler(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "secret")
		})
	}
}
