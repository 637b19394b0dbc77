// Package metrics holds the Prometheus collectors for the chat server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "order_chat_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"method", "route", "status"},
	)

	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "order_chat_ws_connections",
			Help: "Number of open WebSocket connections",
		},
	)

	ClientFrames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_chat_ws_frames_total",
			Help: "Total number of client frames handled, by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "order_chat_rate_limit_exceeded_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)
