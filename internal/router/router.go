package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/retention-api/internal/config"
	"github.com/noah-isme/retention-api/internal/handler"
	"github.com/noah-isme/retention-api/internal/middleware"
	"github.com/noah-isme/retention-api/internal/observability"
)

const (
	defaultAdvanceLimit = 30
	advanceLimitWindow  = time.Minute
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	RetentionHandler    *handler.RetentionHandler
	CalendarHandler     *handler.CalendarHandler
	DocumentHandler     *handler.DocumentHandler
	NotificationHandler *handler.NotificationHandler
	AuditHandler        *handler.AuditHandler
	StudentHandler      *handler.StudentHandler
	AnalyticsHandler    *handler.AnalyticsHandler
	SeedHandler         *handler.SeedHandler
	HealthProbes        map[string]handler.HealthProbe
	// AdvanceLimit caps advance and draft submissions per staff member per minute.
	AdvanceLimit int
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	staff := middleware.RequireStaff()

	if deps.RetentionHandler != nil {
		limit := deps.AdvanceLimit
		if limit <= 0 {
			limit = defaultAdvanceLimit
		}
		retention := api.Group("/retention", staff)
		deps.RetentionHandler.Register(retention, middleware.RateLimit("advance", limit, advanceLimitWindow))

		if deps.DocumentHandler != nil {
			deps.DocumentHandler.Register(retention.Group("/documents"))
		}
		if deps.AnalyticsHandler != nil {
			deps.AnalyticsHandler.Register(retention.Group("/analytics"))
		}
	}

	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students", staff))
	}

	if deps.CalendarHandler != nil {
		deps.CalendarHandler.Register(api.Group("/scheduling/professionals", staff))
	}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications", staff))
	}

	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(api.Group("/audit", staff))
	}

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}
}
