package middleware

import (
	"strconv"
	"time"

	"github.com/eventgate/eventgate/pkg/common"
	"github.com/eventgate/eventgate/pkg/infra/prometheus"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type metricsMiddleware struct {
	logger *logrus.Logger
}

func NewMetricsMiddleware(logger *logrus.Logger) Middleware {
	return &metricsMiddleware{logger: logger}
}

func (m *metricsMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		traceID := uuid.NewString()
		c.Locals(common.TraceIdKey, traceID)
		c.Set("X-Trace-ID", traceID)

		if prometheus.Config.EnableConnections {
			prometheus.ActiveConnections.WithLabelValues("active").Inc()
			defer prometheus.ActiveConnections.WithLabelValues("active").Dec()
		}

		err := c.Next()

		// Route pattern, not the raw path, to keep label cardinality bounded.
		path := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			}
		}

		prometheus.RequestTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		if prometheus.Config.EnableLatency {
			elapsed := float64(time.Since(start).Microseconds()) / 1000.0
			prometheus.RequestLatency.WithLabelValues(c.Method(), path).Observe(elapsed)
		}

		return err
	}
}
