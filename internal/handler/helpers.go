package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/retention-api/internal/middleware"
	"github.com/noah-isme/retention-api/internal/observability"
	"github.com/noah-isme/retention-api/internal/service"
	"github.com/noah-isme/retention-api/internal/utils"
	"github.com/noah-isme/retention-api/internal/workflow"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(c.Params(key)), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + key)
	}
	return uint(parsed), nil
}

func parseUintQuery(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	id, _ := middleware.StaffID(c)
	return service.Actor{ID: id, Role: middleware.StaffRole(c)}
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return observability.WithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationDetails(err error) []fiber.Map {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make([]fiber.Map, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details = append(details, fiber.Map{"field": fieldErr.Field(), "rule": fieldErr.Tag()})
	}
	return details
}

// respondError maps service errors onto the API's status codes.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var fieldErr *workflow.ValidationError

	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request", validationDetails(err))
	case errors.As(err, &fieldErr):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, fieldErr.Error(), fiber.Map{"field": fieldErr.Field, "reason": fieldErr.Reason})
	case errors.Is(err, service.ErrActivityConflict):
		return utils.Fail(c, fiber.StatusConflict, "the alert changed; reload and try again", fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrAlertNotFound),
		errors.Is(err, service.ErrActivityNotFound),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, service.ErrCommitmentNotFound),
		errors.Is(err, service.ErrNotificationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrUploadTypeNotAllowed):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrUploadMissing):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStoreFailure),
		errors.Is(err, service.ErrStorageUnavailable),
		errors.Is(err, service.ErrDraftUnavailable):
		requestLogger(logger, c).Warn().Err(err).Msg("dependency unavailable")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "temporarily unavailable, retry")
	default:
		requestLogger(logger, c).Error().Err(err).Msg("unhandled error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
