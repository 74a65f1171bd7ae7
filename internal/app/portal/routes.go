package portal

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/kyc-portal/internal/config"
	"github.com/magabrotheeeer/kyc-portal/internal/guard"
	"github.com/magabrotheeeer/kyc-portal/internal/http/handlers/admin"
	"github.com/magabrotheeeer/kyc-portal/internal/http/handlers/auth/forgot"
	"github.com/magabrotheeeer/kyc-portal/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/kyc-portal/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/kyc-portal/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/kyc-portal/internal/http/handlers/catalog"
	"github.com/magabrotheeeer/kyc-portal/internal/http/handlers/page"
	"github.com/magabrotheeeer/kyc-portal/internal/http/handlers/sessionstate"
	"github.com/magabrotheeeer/kyc-portal/internal/http/handlers/user"
	"github.com/magabrotheeeer/kyc-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/kyc-portal/internal/http/response"
	"github.com/magabrotheeeer/kyc-portal/internal/lib/sl"
	"github.com/magabrotheeeer/kyc-portal/internal/metrics"
)

// Deps зависимости маршрутов портала.
type Deps struct {
	Log      *slog.Logger
	Config   *config.Config
	Sessions middlewarectx.Sessions
	Backends middlewarectx.Backends
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	// Health проверяет внешние зависимости для /healthz, может быть nil.
	Health func(ctx context.Context) error
}

// RegisterRoutes регистрирует все маршруты портала.
func RegisterRoutes(r chi.Router, d Deps) {
	log := d.Log

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", healthz(log, d.Health))

	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.Session(log, d.Sessions, d.Backends, middlewarectx.CookieOptions{
			Name:   d.Config.CookieName,
			TTL:    d.Config.SessionTTL,
			Secure: d.Config.SecureCookie,
		}))

		catalogH := catalog.New(log, func(r *http.Request) catalog.Service { return middlewarectx.Backend(r.Context()) })
		userH := user.New(log, func(r *http.Request) user.Service { return middlewarectx.Backend(r.Context()) })
		adminH := admin.New(log, func(r *http.Request) admin.Service { return middlewarectx.Backend(r.Context()) })

		// Страницы с данными, остальные страницы таблицы отвечает page
		pages := map[string]http.HandlerFunc{
			"services":           catalogH.List,
			"service":            catalogH.Detail,
			"user-home":          userH.Dashboard,
			"user-service":       userH.ServiceDetail,
			"user-verification":  userH.Verification,
			"user-transactions":  userH.Transactions,
			"user-subscriptions": userH.Subscriptions,
			"admin-home":         adminH.Dashboard,
			"admin-users":        adminH.Users,
			"admin-services":     adminH.Services,
			"admin-coupons":      adminH.Coupons,
			"admin-transactions": adminH.Transactions,
		}
		for _, route := range guard.Table {
			h, ok := pages[route.Name]
			if !ok {
				h = page.New(route)
			}
			r.With(guardFor(log, d.Metrics, route)...).Get(route.Path, h)
		}

		r.Get("/session", sessionstate.Handler)
		r.Get("/config/firebase", catalog.FirebaseConfig(d.Config.Firebase))
		r.Post("/logout", logout.New(log).ServeHTTP)

		// Формы входа: только для гостей
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RedirectIfAuthenticated(d.Metrics))
			r.With(middlewarectx.RateLimit(log, d.Config.LoginRPS, d.Config.LoginBurst)).
				Post(guard.LoginPath, login.New(log, func(r *http.Request) login.Service { return middlewarectx.Backend(r.Context()) }).ServeHTTP)
			r.With(middlewarectx.RateLimit(log, d.Config.LoginRPS, d.Config.LoginBurst)).
				Post("/signup", register.New(log, func(r *http.Request) register.Service { return middlewarectx.Backend(r.Context()) }).ServeHTTP)
			r.Post("/forgot-password", forgot.New(log, func(r *http.Request) forgot.Service { return middlewarectx.Backend(r.Context()) }).ServeHTTP)
		})

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireRoles(log, d.Metrics, guard.UserRoles))
			r.Post("/user/service/{id}/verify", userH.Verify)
			r.Post("/user/subscriptions", userH.Subscribe)
			r.Post("/user/coupons/apply", userH.ApplyCoupon)
			r.Post("/user/reviews", userH.CreateReview)
			r.Post("/user/orders", userH.CreateOrder)
			r.Post("/user/payments/verify", userH.VerifyPayment)
		})

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireRoles(log, d.Metrics, guard.AdminRoles))
			r.Patch("/admin/users/{id}/role", adminH.UpdateRole)
			r.Post("/admin/services", adminH.CreateService)
			r.Put("/admin/services/{id}", adminH.UpdateService)
			r.Delete("/admin/services/{id}", adminH.DeleteService)
			r.Post("/admin/coupons", adminH.CreateCoupon)
			r.Delete("/admin/coupons/{id}", adminH.DeleteCoupon)
			r.Delete("/admin/reviews/{id}", adminH.DeleteReview)
		})
	})
}

func guardFor(log *slog.Logger, m *metrics.Metrics, route guard.Route) []func(http.Handler) http.Handler {
	switch {
	case route.Guest:
		return []func(http.Handler) http.Handler{middlewarectx.RedirectIfAuthenticated(m)}
	case route.Public():
		return nil
	default:
		return []func(http.Handler) http.Handler{middlewarectx.RequireRoles(log, m, route.AllowedRoles)}
	}
}

func healthz(log *slog.Logger, check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				log.Error("health check failed", sl.Err(err))
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.Error("unhealthy"))
				return
			}
		}
		render.JSON(w, r, response.OK())
	}
}
