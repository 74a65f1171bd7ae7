package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/kyc-portal/internal/session"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.GuardDecision("admin-home", "redirect_unauthorized")
	m.GuardDecision("admin-home", "redirect_unauthorized")
	m.GatewayRequest("listServices", "ok", 0.01)
	m.CacheEvent("invalidated", 3)
	m.CacheEvent("hit", 0)
	m.SessionAction("login")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.guardDecisions.WithLabelValues("admin-home", "redirect_unauthorized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gatewayRequests.WithLabelValues("listServices", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.cacheEvents.WithLabelValues("invalidated")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.cacheEvents.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionActions.WithLabelValues("login")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.GuardDecision("r", "allow")
		m.GatewayRequest("e", "ok", 1)
		m.CacheEvent("hit", 1)
		m.SessionAction("logout")
	})
}

func TestMetrics_SessionHook(t *testing.T) {
	m := New(prometheus.NewRegistry())
	store := session.NewStore(session.State{})
	m.SessionHook()("sid", store)

	store.Dispatch(session.SetLoading{Loading: true})
	store.Dispatch(session.LoginSucceeded{Token: "t"})
	store.Dispatch(session.LoggedOut{})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionActions.WithLabelValues("setLoading")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionActions.WithLabelValues("login")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionActions.WithLabelValues("logout")))
}
