// Package portal собирает HTTP-сервер портала KYC: Redis, реестр сессий,
// шлюз к бэкенду, публикацию событий и маршруты.
package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/kyc-portal/internal/cache"
	"github.com/magabrotheeeer/kyc-portal/internal/config"
	"github.com/magabrotheeeer/kyc-portal/internal/events"
	"github.com/magabrotheeeer/kyc-portal/internal/gateway"
	"github.com/magabrotheeeer/kyc-portal/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/kyc-portal/internal/lib/sl"
	"github.com/magabrotheeeer/kyc-portal/internal/metrics"
	"github.com/magabrotheeeer/kyc-portal/internal/querycache"
	"github.com/magabrotheeeer/kyc-portal/internal/session"
)

const (
	queryCachePrefix = "kyc:qc:"
	shutdownTimeout  = 15 * time.Second
)

// App HTTP-сервер портала и его ресурсы.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	redis    *redis.Client
	amqp     *amqp.Connection
	sessions *session.Manager
	cfg      *config.Config
}

// New поднимает зависимости портала. Пустой RabbitMQ.URL отключает публикацию событий.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "portal.New"

	rdb, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	hooks := []session.Hook{m.SessionHook()}

	var conn *amqp.Connection
	if cfg.RabbitMQ.URL != "" {
		conn, err = rabbitmq.Connect(ctx, logger, cfg.RabbitMQ.URL, rabbitmq.Retry{Attempts: 5, Delay: 2 * time.Second})
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ch, err := rabbitmq.SetupExchange(conn, cfg.Exchange)
		if err != nil {
			_ = conn.Close()
			_ = rdb.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		hooks = append(hooks, events.NewPublisher(ch, cfg.Exchange, logger).Hook())
	} else {
		logger.Warn("rabbitmq url is empty, session events are not published")
	}

	sessions := session.NewManager(session.NewRedisPersister(rdb, cfg.SessionTTL), logger, hooks...)
	qc := querycache.NewRedis(rdb, queryCachePrefix, cfg.CacheTTL)
	gw := gateway.New(cfg.BaseURL, &http.Client{Timeout: cfg.TimeoutAPI}, qc, logger, m)

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Log:      logger,
		Config:   cfg,
		Sessions: sessions,
		Backends: gw,
		Metrics:  m,
		Gatherer: reg,
		Health: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		redis:    rdb,
		amqp:     conn,
		sessions: sessions,
		cfg:      cfg,
	}, nil
}

// Run запускает сервер и выгрузку простаивающих сессий, останавливается по ctx.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.SweepInterval > 0 {
		go a.sessions.RunSweeper(ctx, a.cfg.SweepInterval, a.cfg.SessionIdle)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if err := a.redis.Close(); err != nil {
		a.logger.Warn("failed to close redis client", sl.Err(err))
	}
}
