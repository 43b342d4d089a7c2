package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/models"
	"github.com/noah-isme/retention-api/internal/observability"
	"github.com/noah-isme/retention-api/internal/repository"
	"github.com/noah-isme/retention-api/internal/workflow"
)

const notificationBufferSize = 16

// ErrNotificationNotFound indicates the notification does not exist for the staff member.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService stores staff notifications and pushes them to live SSE subscribers
// on every replica.
type NotificationService interface {
	Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error)
	List(ctx context.Context, req dto.NotificationListRequest) ([]dto.NotificationResponse, error)
	UnreadCount(ctx context.Context, staffID uint) (int64, error)
	MarkRead(ctx context.Context, id, staffID uint) (dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, staffID uint, alertID *uint) (int64, error)
	Subscribe(staffID uint) (<-chan dto.NotificationResponse, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo      repository.NotificationRepository
	relays    []notificationRelay
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	broker    *notificationBroker
	nodeID    string
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// relayEnvelope is the wire format exchanged between replicas.
type relayEnvelope struct {
	Node         string                   `json:"node"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

// NewNotificationService constructs a notification service. Redis and NATS are optional
// relays; without either, notifications only reach subscribers of this replica.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	logger = logger.With().Str("component", "notification_service").Logger()

	var relays []notificationRelay
	if channelBase != "" {
		if redisClient != nil {
			relays = append(relays, newRedisRelay(redisClient, channelBase, logger))
		}
		if natsConn != nil {
			relays = append(relays, newNATSRelay(natsConn, channelBase, logger))
		}
	}

	return &notificationService{
		repo:      repo,
		relays:    relays,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		broker:    newNotificationBroker(),
		nodeID:    uuid.NewString(),
		logger:    logger,
		tracer:    otel.Tracer("github.com/noah-isme/retention-api/internal/service/notification"),
		now:       time.Now,
	}
}

func (s *notificationService) Start(ctx context.Context) {
	for _, relay := range s.relays {
		go relay.Consume(ctx, s.receive)
	}
}

func (s *notificationService) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NotificationResponse{}, err
	}

	message := plainText(s.sanitizer, payload.Message)
	if message == "" {
		return dto.NotificationResponse{}, &workflow.ValidationError{Field: "message", Reason: "empty after removing markup"}
	}

	ctx, span := s.tracer.Start(ctx, "notifications.publish", trace.WithAttributes(
		attribute.Int("notification.staff_id", int(payload.StaffID)),
		attribute.String("notification.type", payload.Type),
	))
	defer span.End()

	model := models.Notification{
		StaffID: payload.StaffID,
		AlertID: payload.AlertID,
		Type:    payload.Type,
		Message: message,
	}
	if err := s.repo.Create(ctx, &model); err != nil {
		span.RecordError(err)
		return dto.NotificationResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	response := dto.NewNotificationResponse(model)
	delivered := s.broker.deliver(response)
	span.SetAttributes(attribute.Int("notification.local_deliveries", delivered))
	s.relay(ctx, response)

	observability.Notifications().WithLabelValues(response.Type).Inc()
	return response, nil
}

func (s *notificationService) List(ctx context.Context, req dto.NotificationListRequest) ([]dto.NotificationResponse, error) {
	if req.StaffID == 0 {
		return nil, &workflow.ValidationError{Field: "staff_id", Reason: "required"}
	}

	notifications, err := s.repo.List(ctx, repository.NotificationFilter{
		StaffID:    req.StaffID,
		AlertID:    req.AlertID,
		UnreadOnly: req.UnreadOnly,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) UnreadCount(ctx context.Context, staffID uint) (int64, error) {
	if staffID == 0 {
		return 0, &workflow.ValidationError{Field: "staff_id", Reason: "required"}
	}
	count, err := s.repo.CountUnread(ctx, staffID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, staffID uint) (dto.NotificationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(
		attribute.Int("notification.staff_id", int(staffID)),
		attribute.Int("notification.id", int(id)),
	))
	defer span.End()

	notification, err := s.repo.MarkRead(ctx, id, staffID, s.now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NotificationResponse{}, ErrNotificationNotFound
		}
		span.RecordError(err)
		return dto.NotificationResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, staffID uint, alertID *uint) (int64, error) {
	if staffID == 0 {
		return 0, &workflow.ValidationError{Field: "staff_id", Reason: "required"}
	}
	updated, err := s.repo.MarkAllRead(ctx, staffID, alertID, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return updated, nil
}

func (s *notificationService) Subscribe(staffID uint) (<-chan dto.NotificationResponse, func()) {
	channel := make(chan dto.NotificationResponse, notificationBufferSize)

	s.broker.subscribe(staffID, channel)
	observability.StreamClients().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(staffID, channel)
			observability.StreamClients().Dec()
		})
	}
	return channel, cleanup
}

func (s *notificationService) relay(ctx context.Context, notification dto.NotificationResponse) {
	if len(s.relays) == 0 {
		return
	}

	payload, err := json.Marshal(relayEnvelope{Node: s.nodeID, Notification: notification, SentAt: s.now().UTC()})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode notification envelope")
		return
	}

	for _, relay := range s.relays {
		if err := relay.Publish(ctx, payload); err != nil {
			s.logger.Warn().Err(err).Str("relay", relay.Name()).Msg("failed to relay notification")
		}
	}
}

// receive delivers envelopes published by other replicas to local subscribers.
func (s *notificationService) receive(payload []byte) {
	var envelope relayEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid notification envelope")
		return
	}
	if envelope.Node == s.nodeID {
		return
	}

	notification := envelope.Notification
	if notification.Type == "" {
		notification.Type = dto.NotificationGeneric
	}
	s.broker.deliver(notification)
}
