package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/models"
	"github.com/noah-isme/retention-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService bulk loads students and professional business hours for a new unit.
type SeedService interface {
	Seed(ctx context.Context, token string, req dto.SeedRequest) (dto.SeedResponse, error)
}

type seedService struct {
	students  repository.StudentRepository
	slots     SlotService
	validator *validator.Validate
	enabled   bool
	token     string
	logger    zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(students repository.StudentRepository, slots SlotService, validate *validator.Validate, enabled bool, token string, logger zerolog.Logger) SeedService {
	if validate == nil {
		validate = validator.New()
	}
	return &seedService{
		students:  students,
		slots:     slots,
		validator: validate,
		enabled:   enabled,
		token:     token,
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) Seed(ctx context.Context, token string, req dto.SeedRequest) (dto.SeedResponse, error) {
	if !s.enabled {
		return dto.SeedResponse{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return dto.SeedResponse{}, ErrSeedUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.SeedResponse{}, err
	}

	students := make([]models.Student, 0, len(req.Students))
	for _, item := range req.Students {
		students = append(students, models.Student{
			ID:           item.ID,
			Name:         strings.TrimSpace(item.Name),
			GuardianName: strings.TrimSpace(item.GuardianName),
			Email:        strings.ToLower(strings.TrimSpace(item.Email)),
			Phone:        strings.TrimSpace(item.Phone),
			Unit:         strings.TrimSpace(item.Unit),
		})
	}

	affected, err := s.students.UpsertBatch(ctx, students)
	if err != nil {
		return dto.SeedResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	for _, professional := range req.Professionals {
		if _, err := s.slots.SetBusinessHours(ctx, professional.ProfessionalID, dto.BusinessHoursRequest{Days: professional.Days}); err != nil {
			return dto.SeedResponse{}, err
		}
	}

	s.logger.Info().Int64("students", affected).Int("professionals", len(req.Professionals)).Msg("reference data seeded")
	return dto.SeedResponse{Students: affected, Professionals: len(req.Professionals)}, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}
