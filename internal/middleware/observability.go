package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/retention-api/internal/observability"
)

const defaultSlowThreshold = 500 * time.Millisecond

// Observability records metrics and one structured log line per API request. Probes and the
// metrics endpoint are skipped.
func Observability(logger zerolog.Logger, slow time.Duration) fiber.Handler {
	if slow <= 0 {
		slow = defaultSlowThreshold
	}
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		started := time.Now()
		err := c.Next()
		if !strings.HasPrefix(c.Path(), "/api/") {
			return err
		}

		elapsed := time.Since(started)
		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		status := c.Response().StatusCode()
		observability.ObserveHTTP(c.Method(), route, status, elapsed)

		event := logEvent(logger, status)
		if id, ok := StaffID(c); ok {
			event = event.Uint("staff_id", id)
		}
		event.
			Str("correlation_id", GetCorrelationID(c)).
			Str("method", c.Method()).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Bool("slow", elapsed > slow).
			Msg("request")

		return err
	}
}

func logEvent(logger zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= fiber.StatusInternalServerError:
		return logger.Error()
	case status >= fiber.StatusBadRequest:
		return logger.Warn()
	default:
		return logger.Info()
	}
}
