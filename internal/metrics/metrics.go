// Package metrics defines the Prometheus metrics of the lawcase API and the
// Fiber middleware that feeds the HTTP ones.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aldoetobex/lawcase-backend/pkg/audit"
)

const namespace = "lawcase"

// ── HTTP ─────────────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts served requests.
// Labels: method, route (the registered pattern, not the raw path), status.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	},
	[]string{"method", "route", "status"},
)

var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// ── Domain ───────────────────────────────────────────────────────────────────

// AuditRecordsTotal counts audit entries written, by action.
var AuditRecordsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_records_total",
		Help:      "Total number of audit log entries written.",
	},
	[]string{"action"},
)

// LoginAttemptsTotal counts login attempts.
// Labels:
//   - kind: "firm" or "user"
//   - result: "ok" or "denied"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts.",
	},
	[]string{"kind", "result"},
)

// FileServiceRequestsTotal counts calls to the external file service.
// Labels:
//   - op: "presign", "confirm" or "download"
//   - result: "ok", "not_found" or "unavailable"
var FileServiceRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "file_service_requests_total",
		Help:      "Total number of requests made to the file service.",
	},
	[]string{"op", "result"},
)

// Register hooks the domain counters into the packages that emit them.
// Call once at startup.
func Register() {
	audit.Hook = func(a audit.Action) {
		AuditRecordsTotal.WithLabelValues(string(a)).Inc()
	}
}

// Login records one login attempt.
func Login(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "denied"
	}
	LoginAttemptsTotal.WithLabelValues(kind, result).Inc()
}

// Middleware records count and latency per route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Render the error here so the recorded status is the final one.
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		route := c.Route().Path
		status := strconv.Itoa(c.Response().StatusCode())
		HTTPRequestsTotal.WithLabelValues(c.Method(), route, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return nil
	}
}

// Handler serves the default registry.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
