package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/middleware"
	"github.com/noah-isme/retention-api/internal/service"
	"github.com/noah-isme/retention-api/internal/utils"
)

const defaultKeepAlive = 30 * time.Second

// NotificationHandler serves the staff inbox and its SSE stream.
type NotificationHandler struct {
	service   service.NotificationService
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewNotificationHandler constructs a handler. keepAlive spaces the SSE comment frames that
// keep idle proxies from closing the stream.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger, keepAlive time.Duration) *NotificationHandler {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	return &NotificationHandler{
		service:   service,
		logger:    logger.With().Str("component", "notification_handler").Logger(),
		keepAlive: keepAlive,
	}
}

// Register binds the notification routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/unread-count", h.unreadCount)
	router.Get("/stream", h.stream)
	router.Patch("/read-all", h.markAllRead)
	router.Patch("/:id/read", h.markRead)
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	staffID, ok := middleware.StaffID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "staff identification required")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}
	alertID, err := optionalUintQuery(c, "alert_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid alert_id")
	}

	notifications, err := h.service.List(requestContext(c), dto.NotificationListRequest{
		StaffID:    staffID,
		AlertID:    alertID,
		UnreadOnly: c.QueryBool("unread", false),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "notifications", notifications)
}

func (h *NotificationHandler) unreadCount(c *fiber.Ctx) error {
	staffID, ok := middleware.StaffID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "staff identification required")
	}

	count, err := h.service.UnreadCount(requestContext(c), staffID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "unread notifications", fiber.Map{"unread": count})
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	staffID, ok := middleware.StaffID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "staff identification required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid notification id")
	}

	notification, err := h.service.MarkRead(requestContext(c), id, staffID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "notification updated", notification)
}

func (h *NotificationHandler) markAllRead(c *fiber.Ctx) error {
	staffID, ok := middleware.StaffID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "staff identification required")
	}

	alertID, err := optionalUintQuery(c, "alert_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid alert_id")
	}

	updated, err := h.service.MarkAllRead(requestContext(c), staffID, alertID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "notifications updated", fiber.Map{"updated": updated})
}

func (h *NotificationHandler) stream(c *fiber.Ctx) error {
	staffID, ok := middleware.StaffID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "staff identification required")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(requestContext(c))
	events, cleanup := h.service.Subscribe(staffID)
	logger := requestLogger(h.logger, c).With().Uint("staff_id", staffID).Logger()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cleanup()
			cancel()
		}()

		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()

		for {
			select {
			case notification, ok := <-events:
				if !ok {
					return
				}
				if err := writeEvent(w, "notification", notification); err != nil {
					logger.Debug().Err(err).Msg("notification stream closed")
					return
				}
			case <-ticker.C:
				if err := writeComment(w, "keep-alive "+time.Now().UTC().Format(time.RFC3339)); err != nil {
					logger.Debug().Err(err).Msg("notification stream closed")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

func optionalUintQuery(c *fiber.Ctx, key string) (*uint, error) {
	value, err := parseUintQuery(c, key)
	if err != nil || value == 0 {
		return nil, err
	}
	return &value, nil
}

func writeEvent(w *bufio.Writer, name string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeComment(w *bufio.Writer, comment string) error {
	if _, err := fmt.Fprintf(w, ": %s\n\n", comment); err != nil {
		return err
	}
	return w.Flush()
}
