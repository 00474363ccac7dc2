// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "solarplan"

var (
	// TenantResolutions counts tenant resolutions by outcome
	// (resolved, not_found, lookup_failed, invalid, cache_hit).
	TenantResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tenant",
		Name:      "resolutions_total",
		Help:      "Tenant resolutions by outcome.",
	}, []string{"outcome"})

	// TenantLookupDuration tracks directory lookup latency.
	TenantLookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "tenant",
		Name:      "lookup_duration_seconds",
		Help:      "Tenant directory lookup duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"directory"})

	// TenantDirectoryReloads counts directory reloads triggered by file changes.
	TenantDirectoryReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tenant",
		Name:      "directory_reloads_total",
		Help:      "Tenant directory reloads by result.",
	}, []string{"result"})

	// StoreOperations counts plan store operations by operation and result.
	StoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Plan store operations by operation and result.",
	}, []string{"op", "result"})

	// LeadSubmissions counts lead submissions by result.
	LeadSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lead",
		Name:      "submissions_total",
		Help:      "Lead submissions by result.",
	}, []string{"result"})

	// TierClassifications counts address classifications by tier, with
	// "default" for misses that fell back to the default tier.
	TierClassifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tier",
		Name:      "classifications_total",
		Help:      "Address classifications by resulting tier.",
	}, []string{"tier"})

	// HTTPRequests counts API requests by route pattern and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "API requests by route and status code.",
	}, []string{"route", "code"})
)

// Result returns the conventional result label for an outcome
func Result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
