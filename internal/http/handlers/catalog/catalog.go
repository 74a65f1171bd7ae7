// Package catalog публичные обработчики каталога сервисов верификации
// и клиентской конфигурации Firebase.
package catalog

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/kyc-portal/internal/config"
	"github.com/magabrotheeeer/kyc-portal/internal/http/response"
	"github.com/magabrotheeeer/kyc-portal/internal/lib/sl"
	"github.com/magabrotheeeer/kyc-portal/internal/models"
)

// Service обращения к бэкенду, нужные каталогу.
type Service interface {
	ListServices(ctx context.Context) ([]models.Service, error)
	GetService(ctx context.Context, id string) (models.Service, error)
	ServiceReviews(ctx context.Context, serviceID string) ([]models.Review, error)
}

// Handlers обработчики каталога.
type Handlers struct {
	log     *slog.Logger
	backend func(r *http.Request) Service
}

func New(log *slog.Logger, backend func(r *http.Request) Service) *Handlers {
	return &Handlers{log: log, backend: backend}
}

// List GET /services: активные сервисы.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.List"

	services, err := h.backend(r).ListServices(r.Context())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	active := make([]models.Service, 0, len(services))
	for _, s := range services {
		if s.Active {
			active = append(active, s)
		}
	}
	render.JSON(w, r, response.OKWithData(active))
}

// Detail GET /services/{id}: сервис и отзывы о нём.
func (h *Handlers) Detail(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.Detail"
	id := chi.URLParam(r, "id")
	backend := h.backend(r)

	svc, err := backend.GetService(r.Context(), id)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	// без отзывов страница сервиса всё равно полезна
	reviews, err := backend.ServiceReviews(r.Context(), id)
	if err != nil {
		h.log.Warn("failed to load reviews", slog.String("op", op), slog.String("service_id", id), sl.Err(err))
		reviews = []models.Review{}
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"service":       svc,
		"reviews":       reviews,
		"averageRating": AverageRating(reviews),
	}))
}

// AverageRating средняя оценка, 0 без отзывов.
func AverageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, rv := range reviews {
		sum += rv.Rating
	}
	return float64(sum) / float64(len(reviews))
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

// FirebaseConfig GET /config/firebase: клиентская конфигурация Firebase.
func FirebaseConfig(cfg config.Firebase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.OKWithData(cfg))
	}
}
