// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of requests sent to the booking backend",
		},
		[]string{"operation", "outcome"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of booking backend requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	SessionSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_submissions_total",
			Help: "Total number of final submissions by result",
		},
		[]string{"result"},
	)

	SessionPartialCaptures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_partial_captures_total",
			Help: "Total number of partial captures sent on abandonment",
		},
		[]string{"step", "result"},
	)

	ContactFormSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_form_submissions_total",
			Help: "Total number of contact form submissions by result",
		},
		[]string{"result"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of wizard sessions not yet confirmed or abandoned",
		},
	)
)

// Outcome labels for GatewayRequests.
const (
	OutcomeSuccess   = "success"
	OutcomeRemote    = "remote_error"
	OutcomeMalformed = "malformed"
	OutcomeNetwork   = "network_error"
)
