// Package logout реализует HTTP-обработчик выхода из портала.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/kyc-portal/internal/guard"
	"github.com/magabrotheeeer/kyc-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/kyc-portal/internal/http/response"
	"github.com/magabrotheeeer/kyc-portal/internal/session"
)

type Handler struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP сбрасывает сессию. Сохранённое состояние удаляет подписчик
// хранилища, cookie остаётся за анонимной сессией.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	store := middlewarectx.Store(r.Context())
	wasAuthed := store.Get().Authenticated()
	store.Dispatch(session.LoggedOut{})

	h.log.Info("logout",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Bool("was_authenticated", wasAuthed),
	)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"redirect": guard.LoginPath,
	}))
}
