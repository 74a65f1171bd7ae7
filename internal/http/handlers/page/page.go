// Package page отвечает на страницы портала, для которых нет отдельного обработчика:
// если гарды пропустили запрос, страницу можно показывать.
package page

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/kyc-portal/internal/guard"
	"github.com/magabrotheeeer/kyc-portal/internal/http/response"
)

// New обработчик страницы route.
func New(route guard.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, params, _ := guard.Lookup(r.URL.Path)
		render.JSON(w, r, response.OKWithData(map[string]any{
			"page":   route.Name,
			"params": params,
		}))
	}
}
