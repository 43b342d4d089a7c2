package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/retention-api/internal/service"
	"github.com/noah-isme/retention-api/internal/utils"
)

// AnalyticsHandler exposes the retention dashboard summary.
type AnalyticsHandler struct {
	service service.AnalyticsService
	logger  zerolog.Logger
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(service service.AnalyticsService, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger.With().Str("component", "analytics_handler").Logger(),
	}
}

// Register attaches the analytics route.
func (h *AnalyticsHandler) Register(router fiber.Router) {
	router.Get("", h.summary)
}

func (h *AnalyticsHandler) summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if summary.CacheHit {
		c.Set("X-Cache", "HIT")
	} else {
		c.Set("X-Cache", "MISS")
	}
	return utils.SendSuccess(c, "retention analytics", summary)
}
