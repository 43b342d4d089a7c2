package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// Config tunes the global middleware pipeline.
type Config struct {
	Logger zerolog.Logger
	// AllowOrigins is a comma separated CORS origin list; empty allows any origin.
	AllowOrigins string
	// SlowThreshold marks requests above it as slow in the request log.
	SlowThreshold time.Duration
	// AccessLog adds fiber's plain text access log, useful in development.
	AccessLog bool
}

var (
	allowedHeaders = []string{"Origin", "Content-Type", "Accept", StaffIDHeader, StaffRoleHeader, CorrelationHeader, "X-Seed-Token"}
	exposedHeaders = []string{CorrelationHeader, "X-Cache", "Retry-After"}
)

// Register installs the middleware shared by every route, outermost first.
func Register(app *fiber.App, cfg Config) {
	origins := strings.TrimSpace(cfg.AllowOrigins)
	if origins == "" {
		origins = "*"
	}

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.AccessLog}))
	app.Use(CorrelationID())
	app.Use(StaffIdentity())
	app.Use(Observability(cfg.Logger, cfg.SlowThreshold))
	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency} ${respHeader:X-Correlation-ID}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  strings.Join(allowedHeaders, ", "),
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		ExposeHeaders: strings.Join(exposedHeaders, ", "),
	}))
}
