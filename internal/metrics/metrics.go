// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hr_admin_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "code"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hr_admin_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hr_admin_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	CandidateScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hr_admin_candidate_cv_score",
			Help:    "Distribution of computed candidate CV scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	OnboardingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hr_admin_onboarding_transitions_total",
			Help: "Total number of onboarding task status changes",
		},
		[]string{"from", "to"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hr_admin_notifications_failed_total",
			Help: "Total number of notifications that could not be delivered",
		},
		[]string{"kind"},
	)
)
