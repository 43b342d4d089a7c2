package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/retention-api/internal/models"
)

// AuditFilter narrows audit trail queries. Nil or empty fields match everything.
type AuditFilter struct {
	Page          int
	PageSize      int
	ActorID       *uint
	AlertID       *uint
	Action        string
	EntityType    string
	CorrelationID string
}

// AuditRepository persists the append-only audit trail.
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]models.AuditEntry, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository constructs the audit repository.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]models.AuditEntry, int64, error) {
	scoped := r.db.WithContext(ctx).Model(&models.AuditEntry{}).Scopes(auditScope(filter))

	var total int64
	if err := scoped.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.AuditEntry
	err := scoped.
		Scopes(paginate(filter.Page, filter.PageSize)).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func auditScope(filter AuditFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ActorID != nil {
			db = db.Where("actor_id = ?", *filter.ActorID)
		}
		if filter.AlertID != nil {
			db = db.Where("alert_id = ?", *filter.AlertID)
		}
		if filter.CorrelationID != "" {
			db = db.Where("correlation_id = ?", filter.CorrelationID)
		}
		if filter.Action != "" {
			db = db.Where("action = ?", filter.Action)
		}
		if filter.EntityType != "" {
			db = db.Where("entity_type = ?", filter.EntityType)
		}
		return db
	}
}

// paginate applies 1-based paging. A non-positive size disables it.
func paginate(page, size int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if size <= 0 {
			return db
		}
		if page < 1 {
			page = 1
		}
		return db.Offset((page - 1) * size).Limit(size)
	}
}
