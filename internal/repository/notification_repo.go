package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/retention-api/internal/models"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 100
)

// NotificationFilter narrows a staff member's inbox.
type NotificationFilter struct {
	StaffID    uint
	AlertID    *uint
	UnreadOnly bool
	Limit      int
	Offset     int
}

// NotificationRepository handles persistence for staff notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, filter NotificationFilter) ([]models.Notification, error)
	CountUnread(ctx context.Context, staffID uint) (int64, error)
	// MarkRead stamps one notification owned by staffID; already read rows keep their stamp.
	MarkRead(ctx context.Context, id, staffID uint, at time.Time) (models.Notification, error)
	// MarkAllRead stamps every unread notification of staffID, optionally for one alert only.
	MarkAllRead(ctx context.Context, staffID uint, alertID *uint, at time.Time) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository constructs a repository backed by GORM.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) List(ctx context.Context, filter NotificationFilter) ([]models.Notification, error) {
	limit := filter.Limit
	if limit <= 0 || limit > maxNotificationLimit {
		limit = defaultNotificationLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := r.db.WithContext(ctx).Where("staff_id = ?", filter.StaffID)
	if filter.AlertID != nil {
		query = query.Where("alert_id = ?", *filter.AlertID)
	}
	if filter.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, staffID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("staff_id = ? AND read_at IS NULL", staffID).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, staffID uint, at time.Time) (models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND staff_id = ?", id, staffID).First(&notification).Error; err != nil {
			return err
		}
		if notification.IsRead() {
			return nil
		}
		notification.ReadAt = &at
		return tx.Model(&notification).Update("read_at", at).Error
	})
	if err != nil {
		return models.Notification{}, err
	}
	return notification, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, staffID uint, alertID *uint, at time.Time) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("staff_id = ? AND read_at IS NULL", staffID)
	if alertID != nil {
		query = query.Where("alert_id = ?", *alertID)
	}
	result := query.Update("read_at", at)
	return result.RowsAffected, result.Error
}
