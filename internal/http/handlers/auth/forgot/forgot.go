// Package forgot реализует HTTP-обработчик запроса на сброс пароля.
package forgot

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/kyc-portal/internal/gateway"
	"github.com/magabrotheeeer/kyc-portal/internal/http/response"
	"github.com/magabrotheeeer/kyc-portal/internal/lib/sl"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
}

type Service interface {
	ForgotPassword(ctx context.Context, req gateway.ForgotPasswordRequest) (gateway.MessageResponse, error)
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

// ServeHTTP отвечает одинаково для известного и неизвестного email, если бэкенд
// вернул 404, чтобы не раскрывать наличие аккаунта.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.forgot"

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

	_, err := h.backend(r).ForgotPassword(r.Context(), gateway.ForgotPasswordRequest(req))
	if err != nil && gateway.StatusOf(err) != http.StatusNotFound {
		log.Error("forgot password failed", sl.Err(err))
		status, body := response.Backend(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "if the account exists, a reset link has been sent",
	}))
}
