package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/service"
	"github.com/noah-isme/retention-api/internal/utils"
)

// RetentionHandler exposes retention alerts, their activity chain and completion drafts.
type RetentionHandler struct {
	service service.RetentionService
	drafts  service.DraftService
	logger  zerolog.Logger
}

// NewRetentionHandler constructs a retention handler.
func NewRetentionHandler(service service.RetentionService, drafts service.DraftService, logger zerolog.Logger) *RetentionHandler {
	return &RetentionHandler{
		service: service,
		drafts:  drafts,
		logger:  logger.With().Str("component", "retention_handler").Logger(),
	}
}

// Register binds the retention routes. advanceGuards run before the advance and submit
// endpoints only.
func (h *RetentionHandler) Register(router fiber.Router, advanceGuards ...fiber.Handler) {
	router.Get("/alerts", h.listAlerts)
	router.Post("/alerts", h.openAlert)
	router.Get("/alerts/:id", h.getAlert)
	router.Post("/alerts/:id/advance", chain(advanceGuards, h.advance)...)
	router.Post("/alerts/:id/tasks", h.createTask)
	router.Post("/tasks/:id/complete", h.completeTask)

	router.Get("/alerts/:id/draft", h.getDraft)
	router.Post("/alerts/:id/draft", h.applyDraft)
	router.Delete("/alerts/:id/draft", h.discardDraft)
	router.Post("/alerts/:id/draft/submit", chain(advanceGuards, h.submitDraft)...)
}

func (h *RetentionHandler) openAlert(c *fiber.Ctx) error {
	var req dto.OpenAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	alert, err := h.service.OpenAlert(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "alert opened", alert)
}

func (h *RetentionHandler) listAlerts(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}
	studentID, err := parseUintQuery(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student_id")
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	result, err := h.service.ListAlerts(requestContext(c), dto.AlertListRequest{
		Page:      page,
		PageSize:  pageSize,
		Status:    c.Query("status"),
		StudentID: studentID,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, result.Items, "alerts", result.Pagination)
}

func (h *RetentionHandler) getAlert(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid alert id")
	}

	alert, err := h.service.GetAlert(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "alert", alert)
}

func (h *RetentionHandler) advance(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid alert id")
	}

	var req dto.AdvanceRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Advance(requestContext(c), actorFromContext(c), id, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	message := "activity advanced"
	if result.Replayed {
		message = "activity already advanced"
	}
	return utils.SendSuccess(c, message, result)
}

func (h *RetentionHandler) createTask(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid alert id")
	}

	var req dto.TaskCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	task, err := h.service.CreateTask(requestContext(c), actorFromContext(c), id, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "task created", task)
}

func (h *RetentionHandler) completeTask(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid task id")
	}

	var req dto.TaskCompleteRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	result, err := h.service.CompleteTask(requestContext(c), actorFromContext(c), id, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "task completed", result)
}

func (h *RetentionHandler) getDraft(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid alert id")
	}

	draft, err := h.drafts.Get(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "draft", draft)
}

func (h *RetentionHandler) applyDraft(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid alert id")
	}

	var req dto.DraftEventRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	draft, err := h.drafts.Apply(requestContext(c), actorFromContext(c), id, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "draft updated", draft)
}

func (h *RetentionHandler) discardDraft(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid alert id")
	}

	if err := h.drafts.Discard(requestContext(c), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RetentionHandler) submitDraft(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid alert id")
	}

	result, err := h.drafts.Submit(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "draft submitted", result)
}

func chain(guards []fiber.Handler, final fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(guards)+1)
	handlers = append(handlers, guards...)
	return append(handlers, final)
}
