// Package middlewarectx содержит HTTP middleware портала: привязку запроса к
// сессии по cookie, гарды маршрутов и ограничение частоты запросов.
//
// Session кладёт в контекст идентификатор сессии, её Store и клиента бэкенда,
// остальные middleware и обработчики достают их через Store, SessionID и Backend.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/kyc-portal/internal/gateway"
	"github.com/magabrotheeeer/kyc-portal/internal/http/response"
	"github.com/magabrotheeeer/kyc-portal/internal/lib/sl"
	"github.com/magabrotheeeer/kyc-portal/internal/session"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// SessionIDKey — ключ для идентификатора сессии в контексте
	SessionIDKey Key = "session_id"
	// StoreKey — ключ для Store сессии в контексте
	StoreKey Key = "session_store"
	// BackendKey — ключ для клиента бэкенда в контексте
	BackendKey Key = "backend"
	// RotateKey — ключ для функции смены идентификатора сессии в контексте
	RotateKey Key = "session_rotate"
)

// AnonScope область кеша для запросов без пользователя.
const AnonScope = "anon"

// Sessions реестр сессий.
type Sessions interface {
	Create() (string, *session.Store)
	Get(ctx context.Context, id string) (*session.Store, error)
	Rotate(ctx context.Context, id string) (string, *session.Store, error)
}

// RotateFunc переносит сессию запроса под новый идентификатор и возвращает новый Store.
type RotateFunc func(ctx context.Context) (*session.Store, error)

// Backends создаёт клиента бэкенда для сессии.
type Backends interface {
	For(tokens gateway.TokenSource, scope string, onUnauthorized func()) *gateway.Client
}

// CookieOptions параметры cookie сессии.
type CookieOptions struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// WithSession кладёт сессию в контекст.
func WithSession(ctx context.Context, id string, store *session.Store) context.Context {
	ctx = context.WithValue(ctx, SessionIDKey, id)
	return context.WithValue(ctx, StoreKey, store)
}

// WithBackend кладёт клиента бэкенда в контекст.
func WithBackend(ctx context.Context, c *gateway.Client) context.Context {
	return context.WithValue(ctx, BackendKey, c)
}

// Rotate меняет идентификатор сессии запроса. Без Session middleware
// возвращается текущий Store.
func Rotate(ctx context.Context) (*session.Store, error) {
	if fn, ok := ctx.Value(RotateKey).(RotateFunc); ok {
		return fn(ctx)
	}
	return Store(ctx), nil
}

// Store возвращает Store сессии запроса или nil.
func Store(ctx context.Context) *session.Store {
	s, _ := ctx.Value(StoreKey).(*session.Store)
	return s
}

// SessionID возвращает идентификатор сессии запроса.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(SessionIDKey).(string)
	return id
}

// Backend возвращает клиента бэкенда сессии запроса или nil.
func Backend(ctx context.Context) *gateway.Client {
	c, _ := ctx.Value(BackendKey).(*gateway.Client)
	return c
}

// Scope область кеша для состояния сессии.
func Scope(state session.State) string {
	if state.User != nil && state.User.ID != "" {
		return state.User.ID
	}
	return AnonScope
}

// Session привязывает запрос к сессии по cookie. Если cookie нет или сессия
// не найдена в хранилище, заводится новая анонимная сессия и cookie выставляется заново.
// backends может быть nil, тогда клиент бэкенда в контекст не кладётся.
func Session(log *slog.Logger, sessions Sessions, backends Backends, opts CookieOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Session"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			var (
				id    string
				store *session.Store
			)
			if c, err := r.Cookie(opts.Name); err == nil && c.Value != "" {
				s, err := sessions.Get(r.Context(), c.Value)
				switch {
				case err == nil:
					id, store = c.Value, s
				case errors.Is(err, session.ErrNotFound):
					log.Debug("unknown session cookie, starting new session")
				default:
					log.Error("failed to load session", sl.Err(err))
					render.Status(r, http.StatusServiceUnavailable)
					render.JSON(w, r, response.Error("session storage unavailable"))
					return
				}
			}
			if store == nil {
				id, store = sessions.Create()
				setCookie(w, opts, id)
			}

			ctx := WithSession(r.Context(), id, store)
			ctx = context.WithValue(ctx, RotateKey, RotateFunc(func(ctx context.Context) (*session.Store, error) {
				newID, s, err := sessions.Rotate(ctx, id)
				if err != nil {
					return nil, err
				}
				log.Debug("session id rotated")
				setCookie(w, opts, newID)
				return s, nil
			}))
			if backends != nil {
				client := backends.For(store, Scope(store.Get()), func() {
					log.Warn("backend rejected token, logging out")
					store.Dispatch(session.LoggedOut{})
				})
				ctx = WithBackend(ctx, client)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func setCookie(w http.ResponseWriter, opts CookieOptions, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
