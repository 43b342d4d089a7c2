package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/models"
	"github.com/noah-isme/retention-api/internal/repository"
)

// StudentService manages the students retention alerts are opened for.
type StudentService interface {
	Register(ctx context.Context, actor Actor, req dto.StudentCreateRequest) (dto.StudentResponse, error)
	List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error)
	Get(ctx context.Context, id uint) (dto.StudentResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.StudentUpdateRequest) (dto.StudentResponse, error)
}

type studentService struct {
	repo      repository.StudentRepository
	audit     AuditRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo repository.StudentRepository, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) StudentService {
	if validate == nil {
		validate = validator.New()
	}
	return &studentService{
		repo:      repo,
		audit:     audit,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) Register(ctx context.Context, actor Actor, req dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentResponse{}, err
	}

	student := s.studentFrom(req)
	student.ID = 0
	if err := s.repo.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	s.logger.Info().Uint("student_id", student.ID).Str("email", maskEmailAddress(student.Email)).Msg("student registered")
	s.record(ctx, actor, "student.registered", student.ID, map[string]interface{}{"unit": student.Unit})
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error) {
	students, total, err := s.repo.List(ctx, repository.StudentFilter{
		Search:   strings.TrimSpace(req.Search),
		Unit:     strings.TrimSpace(req.Unit),
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return dto.StudentListResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	items := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		items = append(items, dto.NewStudentResponse(student))
	}
	return dto.StudentListResponse{Items: items, Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total)}, nil
}

func (s *studentService) Get(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, actor Actor, id uint, req dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentResponse{}, err
	}

	updates := make(map[string]interface{})
	changed := make([]string, 0)
	set := func(column string, value *string) {
		if value == nil {
			return
		}
		updates[column] = s.clean(*value)
		changed = append(changed, column)
	}
	set("name", req.Name)
	set("guardian_name", req.GuardianName)
	set("email", req.Email)
	set("phone", req.Phone)
	set("unit", req.Unit)

	if len(updates) == 0 {
		return s.Get(ctx, id)
	}

	student, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	s.record(ctx, actor, "student.updated", id, map[string]interface{}{"fields": changed})
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) studentFrom(req dto.StudentCreateRequest) models.Student {
	return models.Student{
		ID:           req.ID,
		Name:         s.clean(req.Name),
		GuardianName: s.clean(req.GuardianName),
		Email:        strings.ToLower(s.clean(req.Email)),
		Phone:        s.clean(req.Phone),
		Unit:         s.clean(req.Unit),
	}
}

func (s *studentService) clean(value string) string {
	return plainText(s.sanitizer, value)
}

func (s *studentService) record(ctx context.Context, actor Actor, action string, id uint, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Record(ctx, AuditRecord{
		Actor:      actor,
		Action:     action,
		EntityType: "student",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record audit entry")
	}
}

func maskEmailAddress(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" {
		return "***"
	}
	local := parts[0]
	if len(local) <= 2 {
		local = local[:1] + "***"
	} else {
		local = local[:1] + "***" + local[len(local)-1:]
	}
	return local + "@" + parts[1]
}
