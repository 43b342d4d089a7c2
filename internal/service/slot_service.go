package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/models"
	"github.com/noah-isme/retention-api/internal/observability"
	"github.com/noah-isme/retention-api/internal/repository"
	"github.com/noah-isme/retention-api/internal/scheduling"
	"github.com/noah-isme/retention-api/internal/workflow"
)

// ErrCommitmentNotFound indicates the commitment does not exist for the professional.
var ErrCommitmentNotFound = errors.New("commitment not found")

// DefaultHours applies to professionals without configured hours for a weekday.
type DefaultHours struct {
	Open  scheduling.Clock
	Close scheduling.Clock
	Days  []time.Weekday
}

// For returns the default window for the weekday.
func (d DefaultHours) For(weekday time.Weekday) scheduling.BusinessHours {
	for _, day := range d.Days {
		if day == weekday {
			return scheduling.BusinessHours{Open: d.Open < d.Close, Start: d.Open, End: d.Close}
		}
	}
	return scheduling.BusinessHours{Open: false}
}

// SlotService answers availability queries and manages professional calendars.
type SlotService interface {
	AvailableSlots(ctx context.Context, professionalID uint, day time.Time, variant scheduling.Variant) ([]scheduling.Clock, error)
	BusinessHours(ctx context.Context, professionalID uint) (dto.BusinessHoursResponse, error)
	SetBusinessHours(ctx context.Context, professionalID uint, req dto.BusinessHoursRequest) (dto.BusinessHoursResponse, error)
	ListCommitments(ctx context.Context, professionalID uint, from, to time.Time) ([]dto.CommitmentResponse, error)
	CreateCommitment(ctx context.Context, professionalID uint, req dto.CommitmentCreateRequest) (dto.CommitmentResponse, error)
	DeleteCommitment(ctx context.Context, professionalID, id uint) error
}

type slotService struct {
	repo      repository.CalendarRepository
	defaults  DefaultHours
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewSlotService constructs the slot service.
func NewSlotService(repo repository.CalendarRepository, defaults DefaultHours, validate *validator.Validate, logger zerolog.Logger) SlotService {
	return &slotService{
		repo:      repo,
		defaults:  defaults,
		validator: validate,
		logger:    logger.With().Str("component", "slot_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/retention-api/internal/service/slots"),
	}
}

func (s *slotService) AvailableSlots(ctx context.Context, professionalID uint, day time.Time, variant scheduling.Variant) ([]scheduling.Clock, error) {
	day = workflow.DateOnly(day)
	ctx, span := s.tracer.Start(ctx, "slots.available", trace.WithAttributes(
		attribute.Int("professional.id", int(professionalID)),
		attribute.String("slots.date", day.Format(workflow.DateLayout)),
		attribute.String("slots.variant", string(variant)),
	))
	defer span.End()

	var (
		hours scheduling.BusinessHours
		rows  []models.Commitment
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		configured, err := s.repo.BusinessHoursFor(groupCtx, professionalID, day.Weekday())
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hours = s.defaults.For(day.Weekday())
			return nil
		}
		if err != nil {
			return err
		}
		converted, err := configured.ToSchedule()
		if err != nil {
			s.logger.Warn().Err(err).Uint("professional_id", professionalID).Msg("ignoring malformed business hours")
			hours = scheduling.BusinessHours{Open: false}
			return nil
		}
		hours = converted
		return nil
	})
	group.Go(func() error {
		fetched, err := s.repo.FetchCommitments(groupCtx, professionalID, day, day)
		if err != nil {
			return err
		}
		rows = fetched
		return nil
	})

	if err := group.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "calendar fetch failed")
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	commitments := make([]scheduling.Commitment, 0, len(rows))
	for _, row := range rows {
		commitment, err := row.ToSchedule()
		if err != nil {
			s.logger.Warn().Err(err).Uint("commitment_id", row.ID).Msg("ignoring malformed commitment")
			continue
		}
		commitments = append(commitments, commitment)
	}

	slots := scheduling.AvailableSlots(professionalID, day, hours, commitments, variant)
	observability.SlotsOffered().WithLabelValues(string(variant)).Observe(float64(len(slots)))
	span.SetAttributes(attribute.Int("slots.count", len(slots)))

	return slots, nil
}

func (s *slotService) BusinessHours(ctx context.Context, professionalID uint) (dto.BusinessHoursResponse, error) {
	rows, err := s.repo.ListBusinessHours(ctx, professionalID)
	if err != nil {
		return dto.BusinessHoursResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return dto.NewBusinessHoursResponse(professionalID, rows), nil
}

func (s *slotService) SetBusinessHours(ctx context.Context, professionalID uint, req dto.BusinessHoursRequest) (dto.BusinessHoursResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.BusinessHoursResponse{}, err
	}

	seen := make(map[int]bool, len(req.Days))
	rows := make([]models.BusinessHours, 0, len(req.Days))
	for _, day := range req.Days {
		if seen[day.Weekday] {
			return dto.BusinessHoursResponse{}, &workflow.ValidationError{Field: "days", Reason: fmt.Sprintf("weekday %d listed twice", day.Weekday)}
		}
		seen[day.Weekday] = true

		row := models.BusinessHours{ProfessionalID: professionalID, Weekday: day.Weekday, Open: day.Open}
		if day.Open {
			start, end, err := parseWindow(day.Start, day.End)
			if err != nil {
				return dto.BusinessHoursResponse{}, err
			}
			row.StartTime = start.String()
			row.EndTime = end.String()
		}
		rows = append(rows, row)
	}

	if err := s.repo.UpsertBusinessHours(ctx, rows); err != nil {
		return dto.BusinessHoursResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	s.logger.Info().Uint("professional_id", professionalID).Int("days", len(rows)).Msg("business hours updated")
	return s.BusinessHours(ctx, professionalID)
}

func (s *slotService) ListCommitments(ctx context.Context, professionalID uint, from, to time.Time) ([]dto.CommitmentResponse, error) {
	from = workflow.DateOnly(from)
	to = workflow.DateOnly(to)
	if to.Before(from) {
		return nil, &workflow.ValidationError{Field: "to", Reason: "must not be before from"}
	}

	rows, err := s.repo.FetchCommitments(ctx, professionalID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	responses := make([]dto.CommitmentResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, dto.NewCommitmentResponse(row))
	}
	return responses, nil
}

func (s *slotService) CreateCommitment(ctx context.Context, professionalID uint, req dto.CommitmentCreateRequest) (dto.CommitmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CommitmentResponse{}, err
	}

	start, end, err := parseWindow(req.Start, req.End)
	if err != nil {
		return dto.CommitmentResponse{}, err
	}

	model := models.Commitment{
		ProfessionalID: professionalID,
		Title:          strings.TrimSpace(req.Title),
		StartTime:      start.String(),
		EndTime:        end.String(),
	}

	hasDate := strings.TrimSpace(req.Date) != ""
	switch {
	case hasDate && req.Weekday != nil:
		return dto.CommitmentResponse{}, &workflow.ValidationError{Field: "weekday", Reason: "a commitment is either dated or weekly, not both"}
	case hasDate:
		date, err := workflow.ParseDate(req.Date)
		if err != nil {
			return dto.CommitmentResponse{}, &workflow.ValidationError{Field: "date", Reason: err.Error()}
		}
		model.Date = models.DatePointer(&date)
	case req.Weekday != nil:
		weekday := *req.Weekday
		model.Weekday = &weekday
	default:
		return dto.CommitmentResponse{}, &workflow.ValidationError{Field: "date", Reason: "either a date or a weekday is required"}
	}

	if err := s.repo.CreateCommitment(ctx, &model); err != nil {
		return dto.CommitmentResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	return dto.NewCommitmentResponse(model), nil
}

func (s *slotService) DeleteCommitment(ctx context.Context, professionalID, id uint) error {
	if err := s.repo.DeleteCommitment(ctx, professionalID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommitmentNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return nil
}

func parseWindow(rawStart, rawEnd string) (scheduling.Clock, scheduling.Clock, error) {
	start, err := scheduling.ParseClock(rawStart)
	if err != nil {
		return 0, 0, &workflow.ValidationError{Field: "start", Reason: err.Error()}
	}
	end, err := scheduling.ParseClock(rawEnd)
	if err != nil {
		return 0, 0, &workflow.ValidationError{Field: "end", Reason: err.Error()}
	}
	if end <= start {
		return 0, 0, &workflow.ValidationError{Field: "end", Reason: "must be after start"}
	}
	return start, end, nil
}
