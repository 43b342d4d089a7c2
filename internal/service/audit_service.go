package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/models"
	"github.com/noah-isme/retention-api/internal/observability"
	"github.com/noah-isme/retention-api/internal/repository"
)

// Actor is the staff member performing an action.
type Actor struct {
	ID   uint
	Role string
}

// AuditRecord captures the details required to persist an audit entry.
type AuditRecord struct {
	Actor      Actor
	Action     string
	EntityType string
	EntityID   *uint
	AlertID    *uint
	Metadata   map[string]interface{}
}

// AuditRecorder defines behaviour for recording audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, record AuditRecord) (dto.AuditEntryResponse, error)
}

// AuditService exposes methods to query and persist the audit trail.
type AuditService interface {
	AuditRecorder
	List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error)
}

type auditService struct {
	repo      repository.AuditRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuditService constructs the audit service.
func NewAuditService(repo repository.AuditRepository, validator *validator.Validate, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:      repo,
		validator: validator,
		logger:    logger.With().Str("component", "audit_service").Logger(),
	}
}

func (s *auditService) Record(ctx context.Context, record AuditRecord) (dto.AuditEntryResponse, error) {
	if strings.TrimSpace(record.Action) == "" {
		return dto.AuditEntryResponse{}, fmt.Errorf("action is required")
	}
	if strings.TrimSpace(record.EntityType) == "" {
		return dto.AuditEntryResponse{}, fmt.Errorf("entity type is required")
	}

	model := models.AuditEntry{
		AlertID:       record.AlertID,
		ActorID:       record.Actor.ID,
		ActorRole:     normalizeRole(record.Actor.Role),
		Action:        strings.ToLower(strings.TrimSpace(record.Action)),
		EntityType:    strings.ToLower(strings.TrimSpace(record.EntityType)),
		EntityID:      record.EntityID,
		CorrelationID: observability.CorrelationFromContext(ctx),
		Metadata:      sanitizeMetadata(record.Metadata),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Str("action", model.Action).Msg("failed to persist audit entry")
		return dto.AuditEntryResponse{}, err
	}

	return dto.NewAuditEntryResponse(model), nil
}

func (s *auditService) List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error) {
	filter := repository.AuditFilter{
		Page:          req.Page,
		PageSize:      req.PageSize,
		Action:        strings.ToLower(strings.TrimSpace(req.Action)),
		EntityType:    strings.ToLower(strings.TrimSpace(req.EntityType)),
		CorrelationID: strings.TrimSpace(req.CorrelationID),
	}
	if req.ActorID > 0 {
		filter.ActorID = &req.ActorID
	}
	if req.AlertID > 0 {
		filter.AlertID = &req.AlertID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AuditListResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	responses := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewAuditEntryResponse(entry))
	}

	return dto.AuditListResponse{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

// sanitizeMetadata masks values whose keys suggest personal contact data.
func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "phone") || strings.Contains(lower, "email") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return "system"
	}
	return r
}
