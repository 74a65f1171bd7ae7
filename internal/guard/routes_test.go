package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/kyc-portal/internal/models"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		path     string
		wantName string
		params   map[string]string
	}{
		{path: "/", wantName: "home"},
		{path: "/login", wantName: "login"},
		{path: "/admin/", wantName: "admin-home"},
		{path: "/user/service/svc123", wantName: "user-service", params: map[string]string{"id": "svc123"}},
		{path: "/services/kyc-basic", wantName: "service", params: map[string]string{"id": "kyc-basic"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r, params, ok := Lookup(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.wantName, r.Name)
			assert.Equal(t, tt.params, params)
		})
	}

	_, _, ok := Lookup("/user/service")
	assert.False(t, ok)
	_, _, ok = Lookup("/nowhere")
	assert.False(t, ok)
}

func TestTable_Invariants(t *testing.T) {
	names := map[string]bool{}
	for _, r := range Table {
		assert.False(t, names[r.Name], "duplicate route name %s", r.Name)
		names[r.Name] = true

		if r.Guest {
			assert.True(t, r.Public(), "guest route %s must be public", r.Name)
		}
		for _, role := range r.AllowedRoles {
			assert.True(t, role.Valid(), "route %s has unknown role %s", r.Name, role)
		}
	}

	admin, ok := ByName("admin-home")
	require.True(t, ok)
	assert.Equal(t, []models.Role{models.RoleAdmin}, admin.AllowedRoles)

	_, ok = ByName("missing")
	assert.False(t, ok)
}
