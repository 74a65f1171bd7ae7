package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/magabrotheeeer/kyc-portal/internal/models"
	"github.com/magabrotheeeer/kyc-portal/internal/querycache"
)

// RoleUpdate смена роли пользователя.
type RoleUpdate struct {
	UserID string      `json:"-"`
	Role   models.Role `json:"role"`
}

var (
	listUsersQuery = Query[struct{}, []models.User]{
		Name: "listUsers",
		Path: fixed("/users"),
		Provides: func(items []models.User, _ struct{}) []querycache.Tag {
			return listTags(TagUser, items, func(u models.User) string { return u.ID })
		},
	}
	updateUserRoleMutation = Mutation[RoleUpdate, models.User]{
		Name:   "updateUserRole",
		Method: http.MethodPatch,
		Path:   func(r RoleUpdate) string { return "/users/" + url.PathEscape(r.UserID) + "/role" },
		Body:   func(r RoleUpdate) any { return r },
		Invalidates: func(r RoleUpdate) []querycache.Tag {
			return []querycache.Tag{querycache.T(TagUser, r.UserID), querycache.List(TagUser)}
		},
	}
)

// ListUsers пользователи портала (админ).
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	return Fetch(ctx, c, listUsersQuery, struct{}{})
}

// UpdateUserRole меняет роль пользователя (админ).
func (c *Client) UpdateUserRole(ctx context.Context, upd RoleUpdate) (models.User, error) {
	return Run(ctx, c, updateUserRoleMutation, upd)
}
