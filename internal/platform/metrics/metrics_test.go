package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTokenExchange("authorization_code", "success")
	m.ObserveTokenExchange("authorization_code", "success")
	m.ObserveGateDecision("authorization", "expired_redirect")
	m.IncrementProfileFetchFailures()
	m.ObserveUpstream("hubs", http.StatusOK, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokenExchanges.WithLabelValues("authorization_code", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GateDecisions.WithLabelValues("authorization", "expired_redirect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProfileFetchFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(m.UpstreamDuration))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTokenExchange("client_credentials", "success")
		m.ObserveGateDecision("whitelist", "denied_redirect")
		m.IncrementProfileFetchFailures()
		m.ObserveUpstream("hubs", 0, time.Second)
		m.IncrementSessionStoreFailures("load")
	})
}
