// Package metrics holds the Prometheus instrumentation for enforcement
// decisions and role-manager traversal.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector rbacguard records to. Pass one
// instance to every component that needs to record metrics.
type Metrics struct {
	EnforceTotal     *prometheus.CounterVec
	EnforceDuration  *prometheus.HistogramVec
	PolicyRowsLoaded prometheus.Gauge
	RoleLinksTotal   *prometheus.CounterVec
	HasLinkDuration  prometheus.Histogram
	ReloadsTotal     *prometheus.CounterVec
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

// New creates and registers every collector against reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		EnforceTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rbacguard",
				Name:      "enforce_total",
				Help:      "Total number of Enforce calls by decision",
			},
			[]string{"decision"}, // decision=allow/deny
		),
		EnforceDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "rbacguard",
				Name:      "enforce_duration_seconds",
				Help:      "Enforce call latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"decision"},
		),
		PolicyRowsLoaded: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "rbacguard",
				Name:      "policy_rows_loaded",
				Help:      "Number of p-section policy rows currently loaded",
			},
		),
		RoleLinksTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rbacguard",
				Name:      "role_links_total",
				Help:      "Total role-link mutations by operation",
			},
			[]string{"op"}, // op=add/delete
		),
		HasLinkDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "rbacguard",
				Name:      "has_link_duration_seconds",
				Help:      "HasLink traversal latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
		ReloadsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rbacguard",
				Name:      "reloads_total",
				Help:      "Total registry reloads by outcome",
			},
			[]string{"outcome"}, // outcome=ok/error
		),
		CacheHitsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "rbacguard",
				Name:      "cache_hits_total",
				Help:      "Total Enforce decisions served from cache",
			},
		),
		CacheMissesTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "rbacguard",
				Name:      "cache_misses_total",
				Help:      "Total Enforce decisions computed (not cached)",
			},
		),
	}
}

// ObserveEnforce records one Enforce call's outcome and latency.
func (m *Metrics) ObserveEnforce(allowed bool, d time.Duration) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.EnforceTotal.WithLabelValues(decision).Inc()
	m.EnforceDuration.WithLabelValues(decision).Observe(d.Seconds())
}

// ObserveReload records a registry reload outcome.
func (m *Metrics) ObserveReload(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ReloadsTotal.WithLabelValues(outcome).Inc()
}
