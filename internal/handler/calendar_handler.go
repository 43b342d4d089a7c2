package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/scheduling"
	"github.com/noah-isme/retention-api/internal/service"
	"github.com/noah-isme/retention-api/internal/utils"
	"github.com/noah-isme/retention-api/internal/workflow"
)

const defaultCommitmentWindow = 6 * 24 * time.Hour

// CalendarHandler exposes professional business hours, commitments and free slots.
type CalendarHandler struct {
	service  service.SlotService
	location *time.Location
	logger   zerolog.Logger
}

// NewCalendarHandler constructs a calendar handler. location resolves "today" for date defaults.
func NewCalendarHandler(service service.SlotService, location *time.Location, logger zerolog.Logger) *CalendarHandler {
	if location == nil {
		location = time.UTC
	}
	return &CalendarHandler{
		service:  service,
		location: location,
		logger:   logger.With().Str("component", "calendar_handler").Logger(),
	}
}

// Register binds the calendar routes under a professional.
func (h *CalendarHandler) Register(router fiber.Router) {
	router.Get("/:id/business-hours", h.businessHours)
	router.Put("/:id/business-hours", h.setBusinessHours)
	router.Get("/:id/commitments", h.listCommitments)
	router.Post("/:id/commitments", h.createCommitment)
	router.Delete("/:id/commitments/:commitmentId", h.deleteCommitment)
	router.Get("/:id/slots", h.slots)
}

func (h *CalendarHandler) businessHours(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid professional id")
	}

	hours, err := h.service.BusinessHours(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "business hours", hours)
}

func (h *CalendarHandler) setBusinessHours(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid professional id")
	}

	var req dto.BusinessHoursRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	hours, err := h.service.SetBusinessHours(requestContext(c), id, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "business hours updated", hours)
}

func (h *CalendarHandler) listCommitments(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid professional id")
	}

	from, err := h.dateQuery(c, "from", h.today())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	to, err := h.dateQuery(c, "to", from.Add(defaultCommitmentWindow))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	commitments, err := h.service.ListCommitments(requestContext(c), id, from, to)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "commitments", commitments)
}

func (h *CalendarHandler) createCommitment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid professional id")
	}

	var req dto.CommitmentCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	commitment, err := h.service.CreateCommitment(requestContext(c), id, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "commitment created", commitment)
}

func (h *CalendarHandler) deleteCommitment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid professional id")
	}
	commitmentID, err := parseUintParam(c, "commitmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid commitment id")
	}

	if err := h.service.DeleteCommitment(requestContext(c), id, commitmentID); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CalendarHandler) slots(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid professional id")
	}

	if strings.TrimSpace(c.Query("date")) == "" {
		return respondError(c, h.logger, &workflow.ValidationError{Field: "date", Reason: "required"})
	}
	day, err := h.dateQuery(c, "date", time.Time{})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	variant, err := scheduling.ParseVariant(c.Query("variant"))
	if err != nil {
		return respondError(c, h.logger, &workflow.ValidationError{Field: "variant", Reason: err.Error()})
	}

	slots, err := h.service.AvailableSlots(requestContext(c), id, day, variant)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	formatted := make([]string, 0, len(slots))
	for _, slot := range slots {
		formatted = append(formatted, slot.String())
	}

	return utils.SendSuccess(c, "available slots", dto.SlotsResponse{
		ProfessionalID: id,
		Date:           day.Format(workflow.DateLayout),
		Variant:        string(variant),
		Slots:          formatted,
	})
}

func (h *CalendarHandler) dateQuery(c *fiber.Ctx, key string, fallback time.Time) (time.Time, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := workflow.ParseDate(value)
	if err != nil {
		return time.Time{}, &workflow.ValidationError{Field: key, Reason: err.Error()}
	}
	return parsed, nil
}

func (h *CalendarHandler) today() time.Time {
	return workflow.DateOnly(time.Now().In(h.location))
}
