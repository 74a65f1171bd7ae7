// Package metrics описывает метрики Prometheus портала.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/kyc-portal/internal/session"
)

const namespace = "kyc_portal"

// Metrics набор метрик портала. Нулевое значение *Metrics (nil) допустимо:
// все методы тогда ничего не делают.
type Metrics struct {
	guardDecisions  *prometheus.CounterVec
	gatewayRequests *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	cacheEvents     *prometheus.CounterVec
	sessionActions  *prometheus.CounterVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Route guard decisions by route and outcome.",
		}, []string{"route", "decision"}),
		gatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Requests to the KYC backend by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		gatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Latency of requests to the KYC backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_cache_events_total",
			Help:      "Query cache hits, misses, stale reads and invalidations.",
		}, []string{"event"}),
		sessionActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_actions_total",
			Help:      "Actions dispatched to session stores.",
		}, []string{"action"}),
	}
	reg.MustRegister(m.guardDecisions, m.gatewayRequests, m.gatewayDuration, m.cacheEvents, m.sessionActions)
	return m
}

// GuardDecision учитывает решение гарда.
func (m *Metrics) GuardDecision(route, decision string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(route, decision).Inc()
}

// GatewayRequest учитывает запрос к бэкенду.
func (m *Metrics) GatewayRequest(endpoint, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.gatewayRequests.WithLabelValues(endpoint, outcome).Inc()
	m.gatewayDuration.WithLabelValues(endpoint).Observe(seconds)
}

// CacheEvent учитывает событие кеша запросов.
func (m *Metrics) CacheEvent(event string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cacheEvents.WithLabelValues(event).Add(float64(n))
}

// SessionAction учитывает действие над сессией.
func (m *Metrics) SessionAction(action string) {
	if m == nil {
		return
	}
	m.sessionActions.WithLabelValues(action).Inc()
}

// SessionHook подписывает счётчик действий на Store новой сессии.
func (m *Metrics) SessionHook() session.Hook {
	return func(_ string, store *session.Store) {
		store.Subscribe(func(_, _ session.State, action session.Action) {
			m.SessionAction(action.Name())
		})
	}
}
