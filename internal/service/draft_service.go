package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/workflow"
)

// ErrDraftUnavailable indicates drafts cannot be kept because no Redis client is configured.
var ErrDraftUnavailable = errors.New("draft storage unavailable")

// DraftService keeps each staff member's in-progress completion form for an alert.
// Drafts never touch the activity store until they are submitted.
type DraftService interface {
	Get(ctx context.Context, actor Actor, alertID uint) (dto.DraftResponse, error)
	Apply(ctx context.Context, actor Actor, alertID uint, req dto.DraftEventRequest) (dto.DraftResponse, error)
	Discard(ctx context.Context, actor Actor, alertID uint) error
	Submit(ctx context.Context, actor Actor, alertID uint) (dto.AdvanceResponse, error)
}

type draftService struct {
	retention RetentionService
	redis     *redis.Client
	ttl       time.Duration
	location  *time.Location
	validator *validator.Validate
	now       func() time.Time
	logger    zerolog.Logger
}

// NewDraftService constructs the draft service backed by Redis.
func NewDraftService(retention RetentionService, redisClient *redis.Client, ttl time.Duration, location *time.Location, validate *validator.Validate, logger zerolog.Logger) DraftService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if location == nil {
		location = time.UTC
	}
	return &draftService{
		retention: retention,
		redis:     redisClient,
		ttl:       ttl,
		location:  location,
		validator: validate,
		now:       time.Now,
		logger:    logger.With().Str("component", "draft_service").Logger(),
	}
}

func (s *draftService) Get(ctx context.Context, actor Actor, alertID uint) (dto.DraftResponse, error) {
	form, found, err := s.load(ctx, actor, alertID)
	if err != nil {
		return dto.DraftResponse{}, err
	}
	if !found {
		return s.response(alertID, form, nil), nil
	}

	ttl, err := s.redis.TTL(ctx, s.key(actor, alertID)).Result()
	if err != nil {
		return dto.DraftResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	var expiresAt *time.Time
	if ttl > 0 {
		at := s.now().Add(ttl).UTC()
		expiresAt = &at
	}
	return s.response(alertID, form, expiresAt), nil
}

func (s *draftService) Apply(ctx context.Context, actor Actor, alertID uint, req dto.DraftEventRequest) (dto.DraftResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.DraftResponse{}, err
	}

	event, err := req.Event()
	if err != nil {
		return dto.DraftResponse{}, err
	}

	if event.Kind == workflow.EventCancel {
		if err := s.Discard(ctx, actor, alertID); err != nil {
			return dto.DraftResponse{}, err
		}
		return s.response(alertID, workflow.NewForm(), nil), nil
	}

	form, _, err := s.load(ctx, actor, alertID)
	if err != nil {
		return dto.DraftResponse{}, err
	}

	if event.Kind == workflow.EventOpen {
		activity, err := s.retention.ActivityForCompletion(ctx, alertID, event.ActivityID)
		if err != nil {
			return dto.DraftResponse{}, err
		}
		if !activity.IsPending() {
			return dto.DraftResponse{}, fmt.Errorf("%w: activity %d is no longer pending", ErrActivityConflict, activity.ID)
		}
		event.ActivityID = activity.ID
		event.ActivityType = activity.Type
	}

	next, err := workflow.Apply(form, event, s.now().In(s.location))
	if err != nil {
		return dto.DraftResponse{}, err
	}

	if err := s.save(ctx, actor, alertID, next); err != nil {
		return dto.DraftResponse{}, err
	}

	s.logger.Debug().
		Uint("alert_id", alertID).
		Uint("staff_id", actor.ID).
		Str("event", string(event.Kind)).
		Str("stage", string(next.Stage)).
		Msg("draft updated")

	expiresAt := s.now().Add(s.ttl).UTC()
	return s.response(alertID, next, &expiresAt), nil
}

func (s *draftService) Discard(ctx context.Context, actor Actor, alertID uint) error {
	if s.redis == nil {
		return ErrDraftUnavailable
	}
	if err := s.redis.Del(ctx, s.key(actor, alertID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return nil
}

func (s *draftService) Submit(ctx context.Context, actor Actor, alertID uint) (dto.AdvanceResponse, error) {
	form, found, err := s.load(ctx, actor, alertID)
	if err != nil {
		return dto.AdvanceResponse{}, err
	}
	if !found {
		return dto.AdvanceResponse{}, &workflow.ValidationError{Field: "form", Reason: "no draft in progress"}
	}

	completion, err := form.Completion()
	if err != nil {
		return dto.AdvanceResponse{}, err
	}

	response, err := s.retention.Complete(ctx, actor, alertID, form.ActivityID, completion)
	if err != nil {
		return dto.AdvanceResponse{}, err
	}

	if err := s.Discard(ctx, actor, alertID); err != nil {
		s.logger.Warn().Err(err).Uint("alert_id", alertID).Msg("failed to clear submitted draft")
	}
	return response, nil
}

func (s *draftService) load(ctx context.Context, actor Actor, alertID uint) (workflow.Form, bool, error) {
	if s.redis == nil {
		return workflow.Form{}, false, ErrDraftUnavailable
	}

	payload, err := s.redis.Get(ctx, s.key(actor, alertID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return workflow.NewForm(), false, nil
		}
		return workflow.Form{}, false, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	var form workflow.Form
	if err := json.Unmarshal(payload, &form); err != nil {
		s.logger.Warn().Err(err).Uint("alert_id", alertID).Msg("discarding unreadable draft")
		return workflow.NewForm(), false, nil
	}
	return form, true, nil
}

func (s *draftService) save(ctx context.Context, actor Actor, alertID uint, form workflow.Form) error {
	payload, err := json.Marshal(form)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(actor, alertID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return nil
}

func (s *draftService) key(actor Actor, alertID uint) string {
	return fmt.Sprintf("retention:alert:%d:draft:%d", alertID, actor.ID)
}

func (s *draftService) response(alertID uint, form workflow.Form, expiresAt *time.Time) dto.DraftResponse {
	response := dto.DraftResponse{AlertID: alertID, Form: form, ExpiresAt: expiresAt}
	if form.Stage == workflow.StageAwaitingDecision {
		for _, decision := range workflow.LegalDecisions(form.ActivityType) {
			response.LegalDecisions = append(response.LegalDecisions, string(decision))
		}
	}
	return response
}
