package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rimareum/gatekeeper/pkg/infra/prometheus"
)

type metricsMiddleware struct{}

func NewMetricsMiddleware() Middleware {
	return &metricsMiddleware{}
}

func (m *metricsMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !prometheus.Config.Enabled {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		prometheus.ProxyRequestTotal.WithLabelValues(c.Method(), statusClass(status)).Inc()
		prometheus.ProxyRequestLatency.WithLabelValues("total").
			Observe(float64(time.Since(start).Microseconds()) / 1000)
		return err
	}
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
