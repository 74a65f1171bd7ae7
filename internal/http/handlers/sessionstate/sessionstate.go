// Package sessionstate отдаёт браузеру текущее состояние сессии.
package sessionstate

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/kyc-portal/internal/guard"
	"github.com/magabrotheeeer/kyc-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/kyc-portal/internal/http/response"
	"github.com/magabrotheeeer/kyc-portal/internal/models"
)

// State представление сессии для браузера. Токен наружу не отдаётся.
type State struct {
	Authenticated bool         `json:"authenticated"`
	IsLoading     bool         `json:"isLoading"`
	User          *models.User `json:"user,omitempty"`
	Home          string       `json:"home,omitempty"`
}

// Handler GET /session.
func Handler(w http.ResponseWriter, r *http.Request) {
	s := middlewarectx.Store(r.Context()).Get()
	out := State{
		Authenticated: s.Authenticated(),
		IsLoading:     s.IsLoading,
		User:          s.User,
	}
	if out.Authenticated {
		out.Home = guard.Home(s.Role())
	}
	render.JSON(w, r, response.OKWithData(out))
}
