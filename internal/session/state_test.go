package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/kyc-portal/internal/models"
)

func TestReduce(t *testing.T) {
	user := &models.User{ID: "u1", Email: "a@b.c", Role: models.RoleUser}
	admin := &models.User{ID: "a1", Role: models.RoleAdmin}
	signedIn := State{Token: "abc", User: user}

	tests := []struct {
		name   string
		state  State
		action Action
		want   State
	}{
		{
			name:   "initialize from persisted token",
			state:  State{IsLoading: true},
			action: InitializeAuth{Persisted: &Persisted{Token: "abc", User: user}},
			want:   State{Token: "abc", User: user},
		},
		{
			name:   "initialize without persisted state",
			state:  State{IsLoading: true},
			action: InitializeAuth{},
			want:   State{},
		},
		{
			name:   "initialize with empty persisted token",
			state:  State{IsLoading: true},
			action: InitializeAuth{Persisted: &Persisted{User: user}},
			want:   State{},
		},
		{
			name:   "login",
			state:  State{},
			action: LoginSucceeded{Token: "t", User: admin},
			want:   State{Token: "t", User: admin},
		},
		{
			name:   "login without token is ignored",
			state:  State{},
			action: LoginSucceeded{User: admin},
			want:   State{},
		},
		{
			name:   "profile refresh",
			state:  signedIn,
			action: ProfileRefreshed{User: admin},
			want:   State{Token: "abc", User: admin},
		},
		{
			name:   "profile refresh without session is ignored",
			state:  State{},
			action: ProfileRefreshed{User: admin},
			want:   State{},
		},
		{
			name:   "logout",
			state:  signedIn,
			action: LoggedOut{},
			want:   State{},
		},
		{
			name:   "set loading keeps session",
			state:  signedIn,
			action: SetLoading{Loading: true},
			want:   State{Token: "abc", User: user, IsLoading: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reduce(tt.state, tt.action))
		})
	}
}

func TestReduce_CopiesUser(t *testing.T) {
	user := &models.User{ID: "u1", Role: models.RoleUser, ActiveSubscriptions: []models.ActiveSubscription{{ServiceID: "s1"}}}

	next := Reduce(State{}, LoginSucceeded{Token: "t", User: user})
	user.Role = models.RoleAdmin
	user.ActiveSubscriptions[0].ServiceID = "changed"

	assert.Equal(t, models.RoleUser, next.Role())
	assert.Equal(t, "s1", next.User.ActiveSubscriptions[0].ServiceID)
}

func TestState_Role(t *testing.T) {
	assert.Equal(t, models.Role(""), State{Token: "t"}.Role())
	assert.Equal(t, models.RoleAdmin, State{Token: "t", User: &models.User{Role: models.RoleAdmin}}.Role())
	assert.False(t, State{}.Authenticated())
}
