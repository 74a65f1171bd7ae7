package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/kyc-portal/internal/models"
	"github.com/magabrotheeeer/kyc-portal/internal/session"
)

var allRoles = []models.Role{models.RoleAdmin, models.RoleUser, "", "auditor"}

func stateWith(token string, role models.Role) session.State {
	s := session.State{Token: token}
	if role != "" {
		s.User = &models.User{ID: "u1", Role: role}
	}
	return s
}

func TestAuthorize_NoTokenRedirectsToLogin(t *testing.T) {
	for _, allowed := range [][]models.Role{UserRoles, AdminRoles, {models.RoleAdmin, models.RoleUser}} {
		for _, role := range allRoles {
			d := Authorize(stateWith("", role), allowed, "/admin", "")
			assert.Equal(t, RedirectLogin, d.Kind, "role %q", role)
			assert.Equal(t, "/login?from=%2Fadmin", d.Location)
		}
	}
}

func TestAuthorize_RoleNotAllowed(t *testing.T) {
	for _, role := range allRoles {
		if role == models.RoleAdmin {
			continue
		}
		d := Authorize(stateWith("abc", role), AdminRoles, "/admin", "")
		assert.Equal(t, Decision{Kind: RedirectUnauthorized, Location: "/unauthorized"}, d, "role %q", role)
	}
}

func TestAuthorize_RoleAllowed(t *testing.T) {
	assert.Equal(t, Decision{Kind: Allow}, Authorize(stateWith("abc", models.RoleAdmin), AdminRoles, "/admin", ""))
	assert.Equal(t, Decision{Kind: Allow}, Authorize(stateWith("abc", models.RoleUser), UserRoles, "/user", ""))
	assert.Equal(t, Decision{Kind: Allow},
		Authorize(stateWith("abc", models.RoleUser), []models.Role{models.RoleAdmin, models.RoleUser}, "/user", ""))
}

func TestAuthorize_UserOnAdminPage(t *testing.T) {
	d := Authorize(session.State{Token: "abc", User: &models.User{Role: models.RoleUser}}, AdminRoles, "/admin", "")
	assert.Equal(t, RedirectUnauthorized, d.Kind)
	assert.Equal(t, "/unauthorized", d.Location)
}

func TestAuthorize_Loading(t *testing.T) {
	s := stateWith("", "")
	s.IsLoading = true
	d := Authorize(s, UserRoles, "/user", "")
	assert.Equal(t, Decision{Kind: Loading}, d)
	assert.False(t, d.Redirect())
}

func TestAuthorize_PublicRoute(t *testing.T) {
	assert.Equal(t, Allow, Authorize(session.State{}, nil, "/pricing", "").Kind)
}

func TestAuthorize_KeepsStatusForLogin(t *testing.T) {
	d := Authorize(session.State{}, UserRoles, "/user/service/svc123", "svc123")
	assert.Equal(t, RedirectLogin, d.Kind)
	assert.Equal(t, "/login?from=%2Fuser%2Fservice%2Fsvc123&status=svc123", d.Location)
}

func TestRedirectIfAuthenticated(t *testing.T) {
	tests := []struct {
		name   string
		state  session.State
		status string
		from   string
		want   Decision
	}{
		{
			name:  "anonymous sees the page",
			state: session.State{},
			from:  "/user",
			want:  Decision{Kind: Allow},
		},
		{
			name:   "status wins for user",
			state:  stateWith("abc", models.RoleUser),
			status: "svc123",
			from:   "/user/transactions",
			want:   Decision{Kind: RedirectHome, Location: "/user/service/svc123"},
		},
		{
			name:   "status wins for admin",
			state:  stateWith("abc", models.RoleAdmin),
			status: "svc123",
			want:   Decision{Kind: RedirectHome, Location: "/user/service/svc123"},
		},
		{
			name:  "prior path",
			state: stateWith("abc", models.RoleUser),
			from:  "/user/transactions",
			want:  Decision{Kind: RedirectHome, Location: "/user/transactions"},
		},
		{
			name:  "admin default",
			state: stateWith("abc", models.RoleAdmin),
			want:  Decision{Kind: RedirectHome, Location: "/admin"},
		},
		{
			name:  "user default",
			state: stateWith("abc", models.RoleUser),
			want:  Decision{Kind: RedirectHome, Location: "/user"},
		},
		{
			name:  "unknown role goes to user home",
			state: stateWith("abc", ""),
			want:  Decision{Kind: RedirectHome, Location: "/user"},
		},
		{
			name:  "external from is ignored",
			state: stateWith("abc", models.RoleAdmin),
			from:  "//evil.example",
			want:  Decision{Kind: RedirectHome, Location: "/admin"},
		},
		{
			name:  "from pointing to login is not followed",
			state: stateWith("abc", models.RoleUser),
			from:  "/login?from=%2Fadmin",
			want:  Decision{Kind: RedirectHome, Location: "/user"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedirectIfAuthenticated(tt.state, tt.status, tt.from))
		})
	}
}

func TestLoginLocation(t *testing.T) {
	assert.Equal(t, "/login", LoginLocation("", ""))
	assert.Equal(t, "/login", LoginLocation("https://evil.example", ""))
	assert.Equal(t, "/login?status=svc1", LoginLocation("", "svc1"))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "redirect_unauthorized", RedirectUnauthorized.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
