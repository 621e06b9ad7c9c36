package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/garment-ledger/pkg/metrics"
)

// MetricsMiddleware registra la latencia por método, ruta registrada y status.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		// ruta registrada (/api/issues/:id) para no explotar la cardinalidad
		path := c.Route().Path
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Method(), path, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
