package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics counts and times requests per route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics creates the HTTP collectors for app and registers them.
func NewHTTPMetrics(reg prometheus.Registerer, app string) (*HTTPMetrics, error) {
	labels := prometheus.Labels{"app": app}
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "webstore",
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "HTTP requests by method, route and status.",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "webstore",
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "HTTP request latency by method and route.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register HTTP metrics: %w", err)
		}
	}
	return m, nil
}

// Handler returns the Fiber middleware. Requests that match no route are
// recorded under the route "unmatched" so unknown paths cannot grow the
// label set.
func (m *HTTPMetrics) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
				if fe.Code == fiber.StatusNotFound {
					route = "unmatched"
				}
			}
		}
		method := c.Method()

		m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}
