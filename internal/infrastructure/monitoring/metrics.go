package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/turtacn/sfauth/pkg/constants"
)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	LoginRequests    *prometheus.CounterVec
	LoginLatency     *prometheus.HistogramVec
	LogoutRequests   *prometheus.CounterVec
	TokenValidations *prometheus.CounterVec
	TokenRevocations prometheus.Counter
	CacheHits        *prometheus.CounterVec
}

// NewMetrics creates and registers the Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		LoginRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sfauth_login_requests_total",
				Help: "Total number of login attempts.",
			},
			[]string{"login_type", "org_type", "result"},
		),
		LoginLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sfauth_login_latency_seconds",
				Help:    "Latency of login attempts.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"login_type"},
		),
		LogoutRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sfauth_logout_requests_total",
				Help: "Total number of logout requests.",
			},
			[]string{"login_type", "result"},
		),
		TokenValidations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sfauth_token_validations_total",
				Help: "Total number of token validation checks.",
			},
			[]string{"result"},
		),
		TokenRevocations: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sfauth_token_revocations_total",
				Help: "Total number of token revocations.",
			},
		),
		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sfauth_result_cache_lookups_total",
				Help: "Total number of login result cache lookups.",
			},
			[]string{"result"},
		),
	}
}

// RecordLogin records metrics for one login attempt.
func (m *Metrics) RecordLogin(loginType constants.LoginType, orgType constants.OrgEnvironment, success bool, duration time.Duration) {
	result := "failed"
	if success {
		result = "success"
	}
	m.LoginRequests.WithLabelValues(string(loginType), string(orgType), result).Inc()
	m.LoginLatency.WithLabelValues(string(loginType)).Observe(duration.Seconds())
}

// RecordLogout records metrics for one logout request.
func (m *Metrics) RecordLogout(loginType constants.LoginType, success bool) {
	result := "failed"
	if success {
		result = "success"
	}
	m.LogoutRequests.WithLabelValues(string(loginType), result).Inc()
}

// RecordTokenValidation records the outcome of a token validation check.
func (m *Metrics) RecordTokenValidation(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.TokenValidations.WithLabelValues(result).Inc()
}

// RecordTokenRevocation counts one token revocation.
func (m *Metrics) RecordTokenRevocation() {
	m.TokenRevocations.Inc()
}

// RecordCacheLookup records a login result cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheHits.WithLabelValues(result).Inc()
}
