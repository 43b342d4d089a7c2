package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/noah-isme/retention-api/internal/observability"
)

// CorrelationHeader is echoed on every response.
const CorrelationHeader = "X-Correlation-ID"

const correlationLocal = "correlation_id"

// inbound headers checked in order before a fresh id is minted
var correlationSources = []string{CorrelationHeader, "X-Request-ID"}

// CorrelationID tags the request with an identifier shared by logs, audit entries and the
// response header.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := inboundCorrelation(c)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(correlationLocal, id)
		c.Set(CorrelationHeader, id)
		c.SetUserContext(observability.WithCorrelation(c.UserContext(), id))

		return c.Next()
	}
}

// GetCorrelationID returns the identifier bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(correlationLocal).(string); ok {
		return id
	}
	return observability.CorrelationFromContext(c.UserContext())
}

func inboundCorrelation(c *fiber.Ctx) string {
	for _, header := range correlationSources {
		if value := strings.TrimSpace(c.Get(header)); value != "" {
			if len(value) > 128 {
				value = value[:128]
			}
			return value
		}
	}
	return ""
}
