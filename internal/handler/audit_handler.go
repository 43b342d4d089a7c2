package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/service"
	"github.com/noah-isme/retention-api/internal/utils"
)

// AuditHandler exposes the audit trail of retention operations.
type AuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAuditHandler constructs an audit handler.
func NewAuditHandler(service service.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register binds the audit routes.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *AuditHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}
	actorID, err := parseUintQuery(c, "actor_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid actor_id")
	}
	alertID, err := parseUintQuery(c, "alert_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid alert_id")
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}

	result, err := h.service.List(requestContext(c), dto.AuditListRequest{
		Page:          page,
		PageSize:      pageSize,
		ActorID:       actorID,
		AlertID:       alertID,
		Action:        c.Query("action"),
		EntityType:    c.Query("entity_type"),
		CorrelationID: c.Query("correlation_id"),
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, result.Items, "audit entries", result.Pagination)
}
