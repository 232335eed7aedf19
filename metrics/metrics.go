// Package metrics provides Prometheus metrics for QuickServe.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickserve_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quickserve_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Authentication metrics
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickserve_login_attempts_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"}, // "success", "invalid", "throttled", "locked"
	)

	LockoutsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickserve_lockouts_active",
			Help: "Number of usernames currently locked out",
		},
	)

	TokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickserve_token_verifications_total",
			Help: "Total number of session token verifications by outcome",
		},
		[]string{"outcome"}, // "ok", "expired", "invalid"
	)

	// File operation metrics
	FileOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickserve_file_operations_total",
			Help: "Total number of gated file operations",
		},
		[]string{"operation", "backend_type"},
	)

	FileOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quickserve_file_operation_duration_seconds",
			Help:    "Gated file operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "backend_type"},
	)
)
