package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Total HTTP requests partitioned by method, route, and status code
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration in seconds partitioned by method, route, and status code
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// In-flight HTTP requests
	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	webhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_webhook_events_total",
			Help: "Webhook deliveries by provider, event type and outcome",
		},
		[]string{"provider", "event_type", "outcome"},
	)

	messagesDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_messages_dispatched_total",
			Help: "Outbound messages by final status",
		},
		[]string{"status"},
	)

	rateLimitDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_rate_limit_denials_total",
			Help: "API calls denied by the rate limiter, by window",
		},
		[]string{"window"},
	)
)

// Metrics returns a Fiber v3 middleware that records basic Prometheus metrics.
// Labels are kept low-cardinality by using the matched route path when available.
func Metrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		method := c.Method()
		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path // Use route template to avoid high cardinality
		}

		labels := prometheus.Labels{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(status),
		}
		httpRequestsTotal.With(labels).Inc()
		httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())

		return err
	}
}

// RecordWebhookEvent counts one webhook delivery outcome
// (accepted/deduplicated/rejected/failed)
func RecordWebhookEvent(provider, eventType, outcome string) {
	webhookEventsTotal.WithLabelValues(provider, eventType, outcome).Inc()
}

// RecordMessageDispatched counts one outbound send attempt by final status
func RecordMessageDispatched(status string) {
	messagesDispatchedTotal.WithLabelValues(status).Inc()
}

// RecordRateLimitDenial counts one 429 by the window that tripped ("minute"
// or "day")
func RecordRateLimitDenial(window string) {
	rateLimitDenialsTotal.WithLabelValues(window).Inc()
}
