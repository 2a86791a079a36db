package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	TokenExchanges       *prometheus.CounterVec
	GateDecisions        *prometheus.CounterVec
	ProfileFetchFailures prometheus.Counter
	UpstreamDuration     *prometheus.HistogramVec
	SessionStoreFailures *prometheus.CounterVec
}

// New creates and registers all metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TokenExchanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aps_gateway_token_exchanges_total",
			Help: "Token endpoint exchanges by grant type and outcome",
		}, []string{"grant", "outcome"}),
		GateDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aps_gateway_gate_decisions_total",
			Help: "Request gate decisions by gate and resulting state",
		}, []string{"gate", "state"}),
		ProfileFetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "aps_gateway_profile_fetch_failures_total",
			Help: "Profile lookups that failed and were skipped during login",
		}),
		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aps_gateway_upstream_request_duration_seconds",
			Help:    "Latency of APS passthrough requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status_class"}),
		SessionStoreFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aps_gateway_session_store_failures_total",
			Help: "Session store operations that returned an error",
		}, []string{"operation"}),
	}
}

// ObserveTokenExchange records one token endpoint exchange.
func (m *Metrics) ObserveTokenExchange(grant, outcome string) {
	if m == nil {
		return
	}
	m.TokenExchanges.WithLabelValues(grant, outcome).Inc()
}

// ObserveGateDecision records the state a gate settled on for a request.
func (m *Metrics) ObserveGateDecision(gate, state string) {
	if m == nil {
		return
	}
	m.GateDecisions.WithLabelValues(gate, state).Inc()
}

// IncrementProfileFetchFailures counts a swallowed profile failure.
func (m *Metrics) IncrementProfileFetchFailures() {
	if m == nil {
		return
	}
	m.ProfileFetchFailures.Inc()
}

// ObserveUpstream records a passthrough call's latency.
func (m *Metrics) ObserveUpstream(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamDuration.WithLabelValues(route, statusClass(status)).Observe(elapsed.Seconds())
}

// IncrementSessionStoreFailures counts a failed load/save/touch/delete.
func (m *Metrics) IncrementSessionStoreFailures(operation string) {
	if m == nil {
		return
	}
	m.SessionStoreFailures.WithLabelValues(operation).Inc()
}

func statusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
