package middlewarectx

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/kyc-portal/internal/guard"
	"github.com/magabrotheeeer/kyc-portal/internal/http/response"
	"github.com/magabrotheeeer/kyc-portal/internal/metrics"
	"github.com/magabrotheeeer/kyc-portal/internal/models"
	"github.com/magabrotheeeer/kyc-portal/internal/session"
)

// RequireRoles пропускает запрос, только если сессия вошла с одной из ролей allowed.
// Без входа отвечает 303 на страницу входа с from и status, с чужой ролью — 303
// на /unauthorized, пока сессия загружается — 202 с заглушкой.
func RequireRoles(log *slog.Logger, m *metrics.Metrics, allowed []models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := stateOf(r)
			d := guard.Authorize(state, allowed, r.URL.RequestURI(), r.URL.Query().Get(guard.StatusParam))
			m.GuardDecision(routeName(r), d.Kind.String())

			if d.Kind != guard.Allow {
				log.Info("route guarded",
					slog.String("op", "middlewarectx.RequireRoles"),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("path", r.URL.Path),
					slog.String("decision", d.Kind.String()),
				)
			}
			if !write(w, r, d) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RedirectIfAuthenticated не пускает вошедшего пользователя на страницы входа и регистрации.
func RedirectIfAuthenticated(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			d := guard.RedirectIfAuthenticated(stateOf(r), q.Get(guard.StatusParam), q.Get(guard.FromParam))
			m.GuardDecision(routeName(r), d.Kind.String())
			if !write(w, r, d) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// write отвечает по решению гарда. Возвращает false, если запрос нужно пропустить дальше.
func write(w http.ResponseWriter, r *http.Request, d guard.Decision) bool {
	switch {
	case d.Kind == guard.Loading:
		w.Header().Set("Retry-After", strconv.Itoa(1))
		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, response.Loading())
		return true
	case d.Redirect():
		w.Header().Set("Location", d.Location)
		render.Status(r, http.StatusSeeOther)
		render.JSON(w, r, response.Redirect(d.Location))
		return true
	default:
		return false
	}
}

func stateOf(r *http.Request) session.State {
	if s := Store(r.Context()); s != nil {
		return s.Get()
	}
	return session.State{}
}

func routeName(r *http.Request) string {
	if route, _, ok := guard.Lookup(r.URL.Path); ok {
		return route.Name
	}
	return "other"
}
