// Package login реализует HTTP-обработчик входа в портал.
//
// Обработчик валидирует учётные данные, передаёт их бэкенду KYC и при успехе
// записывает токен и профиль в сессию. В ответ возвращается профиль и адрес,
// куда браузеру следует перейти: страница сервиса из status, исходный путь
// из from или домашняя страница роли.
package login

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/kyc-portal/internal/gateway"
	"github.com/magabrotheeeer/kyc-portal/internal/guard"
	"github.com/magabrotheeeer/kyc-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/kyc-portal/internal/http/response"
	"github.com/magabrotheeeer/kyc-portal/internal/lib/sl"
	"github.com/magabrotheeeer/kyc-portal/internal/session"
)

// Request — структура входных данных для входа.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Service описывает обращение к бэкенду для входа.
type Service interface {
	Login(ctx context.Context, req gateway.LoginRequest) (gateway.AuthResponse, error)
}

// Handler обрабатывает HTTP-запросы входа.
type Handler struct {
	log      *slog.Logger
	backend  func(r *http.Request) Service
	validate *validator.Validate
}

// New создает Handler. backend возвращает клиента бэкенда сессии запроса.
func New(log *slog.Logger, backend func(r *http.Request) Service) *Handler {
	return &Handler{
		log:      log,
		backend:  backend,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	store := middlewarectx.Store(r.Context())
	store.Dispatch(session.SetLoading{Loading: true})

	resp, err := h.backend(r).Login(r.Context(), gateway.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		store.Dispatch(session.SetLoading{Loading: false})
		log.Error("login failed", sl.Err(err))
		if status := gateway.StatusOf(err); status == http.StatusUnauthorized || status == http.StatusBadRequest {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid credentials"))
			return
		}
		status, body := response.Backend(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}
	if resp.Token == "" {
		store.Dispatch(session.SetLoading{Loading: false})
		log.Error("backend returned no token")
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("backend unavailable"))
		return
	}

	// Вход получает новый идентификатор сессии, старый cookie больше не действует.
	rotated, err := middlewarectx.Rotate(r.Context())
	if err != nil {
		store.Dispatch(session.SetLoading{Loading: false})
		log.Error("failed to rotate session", sl.Err(err))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("session storage unavailable"))
		return
	}
	store.Dispatch(session.SetLoading{Loading: false})

	user := resp.User
	next := rotated.Dispatch(session.LoginSucceeded{Token: resp.Token, User: &user})

	q := r.URL.Query()
	d := guard.RedirectIfAuthenticated(next, q.Get(guard.StatusParam), q.Get(guard.FromParam))

	log.Info("login success", slog.String("user_id", user.ID), slog.String("role", string(user.Role)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user":     next.User,
		"redirect": d.Location,
	}))
}
