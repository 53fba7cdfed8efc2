package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the auth core.
type Metrics struct {
	LoginAttempts     prometheus.Counter
	LoginFailures     prometheus.Counter
	LockoutsTriggered prometheus.Counter
	AttemptResets     prometheus.Counter
	SessionsStarted   prometheus.Counter
	SessionExpiries   prometheus.Counter
	ActiveSession     prometheus.Gauge
	ConfigCacheHits   prometheus.Counter
	ConfigCacheMisses prometheus.Counter
	ConfigFallbacks   prometheus.Counter
	EndpointLatency   *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LoginAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vlc_login_attempts_total",
			Help: "Total number of sign-in attempts",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vlc_login_failures_total",
			Help: "Total number of failed sign-in attempts",
		}),
		LockoutsTriggered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vlc_lockouts_triggered_total",
			Help: "Total number of accounts disabled after reaching the attempt limit",
		}),
		AttemptResets: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vlc_attempt_resets_total",
			Help: "Total number of attempt counter resets",
		}),
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vlc_sessions_started_total",
			Help: "Total number of local sessions established",
		}),
		SessionExpiries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vlc_session_expiries_total",
			Help: "Total number of sessions cleared after expiry",
		}),
		ActiveSession: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vlc_active_session",
			Help: "1 when a local session is established, 0 otherwise",
		}),
		ConfigCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vlc_config_cache_hits_total",
			Help: "Total number of config reads served from the in-memory cache",
		}),
		ConfigCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vlc_config_cache_misses_total",
			Help: "Total number of config reads that went to the document store",
		}),
		ConfigFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vlc_config_fallback_queries_total",
			Help: "Total number of config reads that used the degraded unordered query",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vlc_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

func (m *Metrics) IncrementLoginAttempts() {
	m.LoginAttempts.Inc()
}

func (m *Metrics) IncrementLoginFailures() {
	m.LoginFailures.Inc()
}

func (m *Metrics) IncrementLockoutsTriggered() {
	m.LockoutsTriggered.Inc()
}

func (m *Metrics) IncrementAttemptResets() {
	m.AttemptResets.Inc()
}

func (m *Metrics) IncrementSessionsStarted() {
	m.SessionsStarted.Inc()
}

func (m *Metrics) IncrementSessionExpiries() {
	m.SessionExpiries.Inc()
}

func (m *Metrics) SetActiveSession(active bool) {
	if active {
		m.ActiveSession.Set(1)
		return
	}
	m.ActiveSession.Set(0)
}

func (m *Metrics) IncrementConfigCacheHits() {
	m.ConfigCacheHits.Inc()
}

func (m *Metrics) IncrementConfigCacheMisses() {
	m.ConfigCacheMisses.Inc()
}

func (m *Metrics) IncrementConfigFallbacks() {
	m.ConfigFallbacks.Inc()
}

// ObserveEndpointLatency records the latency for a given endpoint.
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
