// Package user обработчики раздела /user. Раздел закрыт гардом ролей,
// поэтому сессия в обработчиках всегда вошедшая.
package user

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/kyc-portal/internal/gateway"
	"github.com/magabrotheeeer/kyc-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/kyc-portal/internal/http/response"
	"github.com/magabrotheeeer/kyc-portal/internal/lib/sl"
	"github.com/magabrotheeeer/kyc-portal/internal/models"
	"github.com/magabrotheeeer/kyc-portal/internal/session"
)

// Service обращения к бэкенду раздела /user.
type Service interface {
	Profile(ctx context.Context) (models.User, error)
	MySubscriptions(ctx context.Context) ([]models.Subscription, error)
	Subscribe(ctx context.Context, req gateway.SubscribeRequest) (models.Subscription, error)
	GetService(ctx context.Context, id string) (models.Service, error)
	SubmitVerification(ctx context.Context, req gateway.VerificationRequest) (models.VerificationResult, error)
	VerificationResults(ctx context.Context) ([]models.VerificationResult, error)
	MyTransactions(ctx context.Context) ([]models.Transaction, error)
	CreateOrder(ctx context.Context, req gateway.OrderRequest) (models.Order, error)
	VerifyPayment(ctx context.Context, p models.PaymentConfirmation) (models.Transaction, error)
	GetCoupon(ctx context.Context, code string) (models.Coupon, error)
	CreateReview(ctx context.Context, r models.Review) (models.Review, error)
}

var (
	errNoSubscription = errors.New("no active subscription for service")
	errCouponExpired  = errors.New("coupon expired")
)

// Handlers обработчики раздела /user.
type Handlers struct {
	log      *slog.Logger
	backend  func(r *http.Request) Service
	validate *validator.Validate
	now      func() time.Time
}

func New(log *slog.Logger, backend func(r *http.Request) Service) *Handlers {
	return &Handlers{
		log:      log,
		backend:  backend,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Dashboard GET /user: обновляет профиль в сессии и отдаёт его вместе с подписками.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.Dashboard"
	backend := h.backend(r)

	profile, err := h.refreshProfile(r, backend)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	subs, err := backend.MySubscriptions(r.Context())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user":          profile,
		"subscriptions": subs,
	}))
}

// ServiceDetail GET /user/service/{id}.
func (h *Handlers) ServiceDetail(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.ServiceDetail"
	id := chi.URLParam(r, "id")

	svc, err := h.backend(r).GetService(r.Context(), id)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	u := middlewarectx.Store(r.Context()).Get().User
	render.JSON(w, r, response.OKWithData(map[string]any{
		"service":    svc,
		"subscribed": u.HasSubscription(id, h.now()),
	}))
}

// VerifyRequest данные для проверки.
type VerifyRequest struct {
	Payload map[string]any `json:"payload" validate:"required"`
}

// Verify POST /user/service/{id}/verify: запуск проверки по активной подписке.
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.Verify"
	id := chi.URLParam(r, "id")

	var req VerifyRequest
	if !h.decode(w, r, op, &req) {
		return
	}
	u := middlewarectx.Store(r.Context()).Get().User
	if !u.HasSubscription(id, h.now()) {
		h.log.Info("verification without subscription", slog.String("op", op), slog.String("service_id", id))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error(errNoSubscription.Error()))
		return
	}

	result, err := h.backend(r).SubmitVerification(r.Context(), gateway.VerificationRequest{ServiceID: id, Payload: req.Payload})
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(result))
}

// Verification GET /user/verification.
func (h *Handlers) Verification(w http.ResponseWriter, r *http.Request) {
	results, err := h.backend(r).VerificationResults(r.Context())
	if err != nil {
		h.fail(w, r, "handlers.user.Verification", err)
		return
	}
	render.JSON(w, r, response.OKWithData(results))
}

// Transactions GET /user/transactions.
func (h *Handlers) Transactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.backend(r).MyTransactions(r.Context())
	if err != nil {
		h.fail(w, r, "handlers.user.Transactions", err)
		return
	}
	render.JSON(w, r, response.OKWithData(txs))
}

// Subscriptions GET /user/subscriptions.
func (h *Handlers) Subscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.backend(r).MySubscriptions(r.Context())
	if err != nil {
		h.fail(w, r, "handlers.user.Subscriptions", err)
		return
	}
	render.JSON(w, r, response.OKWithData(subs))
}

// Subscribe POST /user/subscriptions.
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.Subscribe"

	var req gateway.SubscribeRequest
	if !h.decode(w, r, op, &req) {
		return
	}
	backend := h.backend(r)
	sub, err := backend.Subscribe(r.Context(), req)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	h.refreshProfileQuietly(r, op, backend)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(sub))
}

// CouponRequest проверка промокода для сервиса.
type CouponRequest struct {
	Code      string `json:"code" validate:"required,alphanum"`
	ServiceID string `json:"serviceId" validate:"required"`
}

// ApplyCoupon POST /user/coupons/apply: цена сервиса с учётом промокода.
func (h *Handlers) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.ApplyCoupon"

	var req CouponRequest
	if !h.decode(w, r, op, &req) {
		return
	}
	backend := h.backend(r)

	coupon, err := backend.GetCoupon(r.Context(), req.Code)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	if !coupon.ExpiresAt.IsZero() && !coupon.ExpiresAt.After(h.now()) {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(errCouponExpired.Error()))
		return
	}
	svc, err := backend.GetService(r.Context(), req.ServiceID)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"code":            coupon.Code,
		"discountPercent": coupon.DiscountPercent,
		"price":           svc.Price,
		"finalPrice":      coupon.Apply(svc.Price),
	}))
}

// CreateReview POST /user/reviews. Автор берётся из сессии.
func (h *Handlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.CreateReview"

	var req models.Review
	if !h.decode(w, r, op, &req) {
		return
	}
	if u := middlewarectx.Store(r.Context()).Get().User; u != nil {
		req.UserID = u.ID
	}
	review, err := h.backend(r).CreateReview(r.Context(), req)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(review))
}

// CreateOrder POST /user/orders: заказ для платёжного виджета.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.CreateOrder"

	var req gateway.OrderRequest
	if !h.decode(w, r, op, &req) {
		return
	}
	order, err := h.backend(r).CreateOrder(r.Context(), req)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(order))
}

// VerifyPayment POST /user/payments/verify: подтверждение оплаты. После успеха
// профиль в сессии обновляется, чтобы новая подписка сразу открыла сервис.
func (h *Handlers) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.VerifyPayment"

	var req models.PaymentConfirmation
	if !h.decode(w, r, op, &req) {
		return
	}
	backend := h.backend(r)
	tx, err := backend.VerifyPayment(r.Context(), req)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	h.refreshProfileQuietly(r, op, backend)
	render.JSON(w, r, response.OKWithData(tx))
}

func (h *Handlers) refreshProfile(r *http.Request, backend Service) (*models.User, error) {
	profile, err := backend.Profile(r.Context())
	if err != nil {
		return nil, err
	}
	next := middlewarectx.Store(r.Context()).Dispatch(session.ProfileRefreshed{User: &profile})
	return next.User, nil
}

func (h *Handlers) refreshProfileQuietly(r *http.Request, op string, backend Service) {
	if _, err := h.refreshProfile(r, backend); err != nil {
		h.log.Warn("failed to refresh profile", slog.String("op", op), sl.Err(err))
	}
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
