package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/retention-api/internal/models"
	"github.com/noah-isme/retention-api/internal/workflow"
)

// AlertCount is the number of alerts sharing an origin and status.
type AlertCount struct {
	OriginCode workflow.OriginCode
	Status     workflow.AlertStatus
	Total      int64
}

// KindCount is the number of retained alerts per retention kind.
type KindCount struct {
	RetentionKind workflow.RetentionKind
	Total         int64
}

// AnalyticsRepository supplies aggregates for the retention dashboard.
type AnalyticsRepository interface {
	CountAlertsByOriginAndStatus(ctx context.Context) ([]AlertCount, error)
	CountRetentionKinds(ctx context.Context) ([]KindCount, error)
	ListResolvedSince(ctx context.Context, since time.Time) ([]models.RetentionAlert, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository constructs the analytics repository.
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) CountAlertsByOriginAndStatus(ctx context.Context) ([]AlertCount, error) {
	var counts []AlertCount
	err := r.db.WithContext(ctx).
		Model(&models.RetentionAlert{}).
		Select("origin_code, status, COUNT(*) AS total").
		Group("origin_code, status").
		Order("origin_code, status").
		Scan(&counts).Error
	return counts, err
}

func (r *analyticsRepository) CountRetentionKinds(ctx context.Context) ([]KindCount, error) {
	var counts []KindCount
	err := r.db.WithContext(ctx).
		Model(&models.RetentionAlert{}).
		Select("retention_kind, COUNT(*) AS total").
		Where("status = ?", workflow.AlertRetained).
		Group("retention_kind").
		Order("retention_kind").
		Scan(&counts).Error
	return counts, err
}

func (r *analyticsRepository) ListResolvedSince(ctx context.Context, since time.Time) ([]models.RetentionAlert, error) {
	var alerts []models.RetentionAlert
	err := r.db.WithContext(ctx).
		Select("id, status, resolved_at").
		Where("status <> ?", workflow.AlertPending).
		Where("resolved_at >= ?", since).
		Order("resolved_at ASC").
		Find(&alerts).Error
	return alerts, err
}
