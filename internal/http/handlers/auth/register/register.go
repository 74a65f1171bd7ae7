// Package register реализует HTTP-обработчик регистрации в портале.
//
// Если бэкенд сразу выдаёт токен, сессия считается вошедшей и в ответе
// возвращается адрес перехода, как после входа.
package register

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

// Request — входные данные для регистрации
type Request struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Service описывает обращение к бэкенду для регистрации.
type Service interface {
	Register(ctx context.Context, req gateway.RegisterRequest) (gateway.AuthResponse, error)
}

type Handler struct {
	log      *slog.Logger
	backend  func(r *http.Request) Service
	validate *validator.Validate
}

func New(log *slog.Logger, backend func(r *http.Request) Service) *Handler {
	return &Handler{
		log:      log,
		backend:  backend,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

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

	resp, err := h.backend(r).Register(r.Context(), gateway.RegisterRequest(req))
	if err != nil {
		log.Error("registration failed", sl.Err(err))
		status, body := response.Backend(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	data := map[string]any{
		"email":   req.Email,
		"message": "user created successfully",
	}
	if resp.Token != "" {
		store, err := middlewarectx.Rotate(r.Context())
		if err != nil {
			log.Error("failed to rotate session", sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("session storage unavailable"))
			return
		}
		user := resp.User
		next := store.Dispatch(session.LoginSucceeded{Token: resp.Token, User: &user})
		q := r.URL.Query()
		data["user"] = next.User
		data["redirect"] = guard.RedirectIfAuthenticated(next, q.Get(guard.StatusParam), q.Get(guard.FromParam)).Location
	} else {
		data["redirect"] = guard.LoginPath
	}

	log.Info("user registered", slog.String("email", req.Email))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(data))
}
