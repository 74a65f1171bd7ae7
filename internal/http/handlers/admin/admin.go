// Package admin обработчики раздела /admin.
package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/kyc-portal/internal/gateway"
	"github.com/magabrotheeeer/kyc-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/kyc-portal/internal/http/response"
	"github.com/magabrotheeeer/kyc-portal/internal/lib/sl"
	"github.com/magabrotheeeer/kyc-portal/internal/models"
)

// Service обращения к бэкенду раздела /admin.
type Service interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserRole(ctx context.Context, upd gateway.RoleUpdate) (models.User, error)
	ListServices(ctx context.Context) ([]models.Service, error)
	CreateService(ctx context.Context, s models.Service) (models.Service, error)
	UpdateService(ctx context.Context, s models.Service) (models.Service, error)
	DeleteService(ctx context.Context, id string) error
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
	CreateCoupon(ctx context.Context, c models.Coupon) (models.Coupon, error)
	DeleteCoupon(ctx context.Context, id string) error
	AllTransactions(ctx context.Context) ([]models.Transaction, error)
	DeleteReview(ctx context.Context, id string) error
}

// PaidStatus статус успешно оплаченной транзакции.
const PaidStatus = "paid"

// Handlers обработчики раздела /admin.
type Handlers struct {
	log      *slog.Logger
	backend  func(r *http.Request) Service
	validate *validator.Validate
}

func New(log *slog.Logger, backend func(r *http.Request) Service) *Handlers {
	return &Handlers{
		log:      log,
		backend:  backend,
		validate: validator.New(),
	}
}

// Stats сводка для главной страницы администратора.
type Stats struct {
	Users          int `json:"users"`
	Admins         int `json:"admins"`
	Services       int `json:"services"`
	ActiveServices int `json:"activeServices"`
	Transactions   int `json:"transactions"`
	Revenue        int `json:"revenue"`
}

// Summarize считает сводку по спискам бэкенда.
func Summarize(users []models.User, services []models.Service, txs []models.Transaction) Stats {
	st := Stats{Users: len(users), Services: len(services), Transactions: len(txs)}
	for _, u := range users {
		if u.Role == models.RoleAdmin {
			st.Admins++
		}
	}
	for _, s := range services {
		if s.Active {
			st.ActiveServices++
		}
	}
	for _, t := range txs {
		if t.Status == PaidStatus {
			st.Revenue += t.Amount
		}
	}
	return st
}

// Dashboard GET /admin.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.Dashboard"
	backend := h.backend(r)

	users, err := backend.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	services, err := backend.ListServices(r.Context())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	txs, err := backend.AllTransactions(r.Context())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	render.JSON(w, r, response.OKWithData(Summarize(users, services, txs)))
}

// Users GET /admin/users.
func (h *Handlers) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.backend(r).ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, "handlers.admin.Users", err)
		return
	}
	render.JSON(w, r, response.OKWithData(users))
}

// RoleRequest новая роль пользователя.
type RoleRequest struct {
	Role models.Role `json:"role" validate:"required,oneof=admin user"`
}

// UpdateRole PATCH /admin/users/{id}/role. Свою роль администратор менять не может.
func (h *Handlers) UpdateRole(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.UpdateRole"
	id := chi.URLParam(r, "id")

	var req RoleRequest
	if !h.decode(w, r, op, &req) {
		return
	}
	if u := middlewarectx.Store(r.Context()).Get().User; u != nil && u.ID == id {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("cannot change own role"))
		return
	}

	user, err := h.backend(r).UpdateUserRole(r.Context(), gateway.RoleUpdate{UserID: id, Role: req.Role})
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	h.log.Info("user role changed", slog.String("op", op), slog.String("user_id", id), slog.String("role", string(req.Role)))
	render.JSON(w, r, response.OKWithData(user))
}

// Services GET /admin/services: все сервисы, включая неактивные.
func (h *Handlers) Services(w http.ResponseWriter, r *http.Request) {
	services, err := h.backend(r).ListServices(r.Context())
	if err != nil {
		h.fail(w, r, "handlers.admin.Services", err)
		return
	}
	render.JSON(w, r, response.OKWithData(services))
}

// CreateService POST /admin/services.
func (h *Handlers) CreateService(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.CreateService"

	var req models.Service
	if !h.decode(w, r, op, &req) {
		return
	}
	req.ID = ""
	svc, err := h.backend(r).CreateService(r.Context(), req)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(svc))
}

// UpdateService PUT /admin/services/{id}.
func (h *Handlers) UpdateService(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.UpdateService"

	var req models.Service
	if !h.decode(w, r, op, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	svc, err := h.backend(r).UpdateService(r.Context(), req)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	render.JSON(w, r, response.OKWithData(svc))
}

// DeleteService DELETE /admin/services/{id}.
func (h *Handlers) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.backend(r).DeleteService(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "handlers.admin.DeleteService", err)
		return
	}
	render.JSON(w, r, response.OK())
}

// Coupons GET /admin/coupons.
func (h *Handlers) Coupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.backend(r).ListCoupons(r.Context())
	if err != nil {
		h.fail(w, r, "handlers.admin.Coupons", err)
		return
	}
	render.JSON(w, r, response.OKWithData(coupons))
}

// CreateCoupon POST /admin/coupons.
func (h *Handlers) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.CreateCoupon"

	var req models.Coupon
	if !h.decode(w, r, op, &req) {
		return
	}
	coupon, err := h.backend(r).CreateCoupon(r.Context(), req)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(coupon))
}

// DeleteCoupon DELETE /admin/coupons/{id}.
func (h *Handlers) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.backend(r).DeleteCoupon(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "handlers.admin.DeleteCoupon", err)
		return
	}
	render.JSON(w, r, response.OK())
}

// Transactions GET /admin/transactions.
func (h *Handlers) Transactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.backend(r).AllTransactions(r.Context())
	if err != nil {
		h.fail(w, r, "handlers.admin.Transactions", err)
		return
	}
	render.JSON(w, r, response.OKWithData(txs))
}

// DeleteReview DELETE /admin/reviews/{id}.
func (h *Handlers) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.backend(r).DeleteReview(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "handlers.admin.DeleteReview", err)
		return
	}
	render.JSON(w, r, response.OK())
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, op string, dst any) bool {
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return false
	}
	return true
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.Error("backend request failed",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		sl.Err(err),
	)
	status, body := response.Backend(err)
	render.Status(r, status)
	render.JSON(w, r, body)
}
