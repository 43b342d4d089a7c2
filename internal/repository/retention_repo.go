package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/retention-api/internal/models"
	"github.com/noah-isme/retention-api/internal/workflow"
)

// slotLockNamespace keys the advisory locks taken while booking professional slots.
const slotLockNamespace int64 = 7201

var (
	// ErrStaleActivity indicates the activity was no longer the alert's pending activity.
	ErrStaleActivity = errors.New("activity is no longer pending")
	// ErrAlertResolved indicates the alert already reached a terminal status.
	ErrAlertResolved = errors.New("alert already resolved")
	// ErrSlotTaken indicates the booking overlaps a commitment written after availability was checked.
	ErrSlotTaken = errors.New("slot already taken")
	// ErrOpenAlertExists indicates the student already has an unresolved alert.
	ErrOpenAlertExists = errors.New("student already has an open alert")
)

// AlertFilter narrows alert listings.
type AlertFilter struct {
	Page      int
	PageSize  int
	Status    workflow.AlertStatus
	StudentID *uint
}

// AdvanceCommand completes the alert's pending activity and records what follows it.
type AdvanceCommand struct {
	AlertID         uint
	ActivityID      uint
	CompletedBy     uint
	CompletedAt     time.Time
	CompletionNotes string
	Successor       models.RetentionActivity
	// Booking reserves the successor's slot in the assigned professional's calendar.
	Booking *models.Commitment
	// AlertStatus other than pending resolves the alert.
	AlertStatus workflow.AlertStatus
}

// AdvanceResult holds the rows as committed.
type AdvanceResult struct {
	Completed models.RetentionActivity
	Successor models.RetentionActivity
	Alert     models.RetentionAlert
}

// RetentionRepository persists retention alerts and their activities.
type RetentionRepository interface {
	OpenAlert(ctx context.Context, alert *models.RetentionAlert, head *models.RetentionActivity) error
	GetAlert(ctx context.Context, id uint) (models.RetentionAlert, error)
	FindOpenAlertByStudent(ctx context.Context, studentID uint) (models.RetentionAlert, error)
	ListAlerts(ctx context.Context, filter AlertFilter) ([]models.RetentionAlert, int64, error)
	ListActivities(ctx context.Context, alertID uint) ([]models.RetentionActivity, error)
	GetActivity(ctx context.Context, id uint) (models.RetentionActivity, error)
	FindPendingActivity(ctx context.Context, alertID uint) (models.RetentionActivity, error)
	FindSuccessor(ctx context.Context, activityID uint) (models.RetentionActivity, error)
	CreateActivity(ctx context.Context, activity *models.RetentionActivity) error
	CompleteActivity(ctx context.Context, id, completedBy uint, notes string, documentID *uint, at time.Time) (models.RetentionActivity, error)
	Advance(ctx context.Context, cmd AdvanceCommand) (AdvanceResult, error)
}

type retentionRepository struct {
	db *gorm.DB
}

// NewRetentionRepository constructs the retention repository.
func NewRetentionRepository(db *gorm.DB) RetentionRepository {
	return &retentionRepository{db: db}
}

func chainTypes() []workflow.ActivityType {
	types := make([]workflow.ActivityType, 0)
	for _, activityType := range workflow.AllActivityTypes() {
		if activityType.InChain() {
			types = append(types, activityType)
		}
	}
	return types
}

func (r *retentionRepository) OpenAlert(ctx context.Context, alert *models.RetentionAlert, head *models.RetentionActivity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&models.RetentionAlert{}).
			Where("student_id = ? AND status = ?", alert.StudentID, workflow.AlertPending).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return ErrOpenAlertExists
		}

		if err := tx.Create(alert).Error; err != nil {
			return err
		}

		head.AlertID = alert.ID
		return tx.Create(head).Error
	})
}

func (r *retentionRepository) GetAlert(ctx context.Context, id uint) (models.RetentionAlert, error) {
	var alert models.RetentionAlert
	if err := r.db.WithContext(ctx).
		Preload("Activities", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("id ASC")
		}).
		First(&alert, id).Error; err != nil {
		return models.RetentionAlert{}, err
	}
	return alert, nil
}

func (r *retentionRepository) FindOpenAlertByStudent(ctx context.Context, studentID uint) (models.RetentionAlert, error) {
	var alert models.RetentionAlert
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, workflow.AlertPending).
		First(&alert).Error; err != nil {
		return models.RetentionAlert{}, err
	}
	return alert, nil
}

func (r *retentionRepository) ListAlerts(ctx context.Context, filter AlertFilter) ([]models.RetentionAlert, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RetentionAlert{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var alerts []models.RetentionAlert
	if err := query.Scopes(paginate(filter.Page, filter.PageSize)).Order("created_at DESC, id DESC").Find(&alerts).Error; err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

func (r *retentionRepository) ListActivities(ctx context.Context, alertID uint) ([]models.RetentionActivity, error) {
	var activities []models.RetentionActivity
	if err := r.db.WithContext(ctx).
		Where("alert_id = ?", alertID).
		Order("id ASC").
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *retentionRepository) GetActivity(ctx context.Context, id uint) (models.RetentionActivity, error) {
	var activity models.RetentionActivity
	if err := r.db.WithContext(ctx).First(&activity, id).Error; err != nil {
		return models.RetentionActivity{}, err
	}
	return activity, nil
}

func (r *retentionRepository) FindPendingActivity(ctx context.Context, alertID uint) (models.RetentionActivity, error) {
	var activity models.RetentionActivity
	if err := r.db.WithContext(ctx).
		Where("alert_id = ? AND status = ? AND type IN ?", alertID, workflow.ActivityPending, chainTypes()).
		Order("id ASC").
		First(&activity).Error; err != nil {
		return models.RetentionActivity{}, err
	}
	return activity, nil
}

func (r *retentionRepository) FindSuccessor(ctx context.Context, activityID uint) (models.RetentionActivity, error) {
	var activity models.RetentionActivity
	if err := r.db.WithContext(ctx).
		Where("predecessor_activity_id = ?", activityID).
		First(&activity).Error; err != nil {
		return models.RetentionActivity{}, err
	}
	return activity, nil
}

func (r *retentionRepository) CreateActivity(ctx context.Context, activity *models.RetentionActivity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// CompleteActivity is idempotent: completing an already completed activity returns it unchanged.
func (r *retentionRepository) CompleteActivity(ctx context.Context, id, completedBy uint, notes string, documentID *uint, at time.Time) (models.RetentionActivity, error) {
	var activity models.RetentionActivity
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":           workflow.ActivityCompleted,
			"completed_by":     completedBy,
			"completed_at":     at,
			"completion_notes": notes,
		}
		if documentID != nil {
			updates["document_id"] = *documentID
		}

		if err := tx.Model(&models.RetentionActivity{}).
			Where("id = ? AND status = ?", id, workflow.ActivityPending).
			Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&activity, id).Error
	})
	if err != nil {
		return models.RetentionActivity{}, err
	}
	return activity, nil
}

// Advance applies a completion atomically. The conditional update on the pending activity
// and the unique predecessor index guarantee at most one successor per activity.
func (r *retentionRepository) Advance(ctx context.Context, cmd AdvanceCommand) (AdvanceResult, error) {
	var result AdvanceResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		completed := tx.Model(&models.RetentionActivity{}).
			Where("id = ? AND alert_id = ? AND status = ?", cmd.ActivityID, cmd.AlertID, workflow.ActivityPending).
			Updates(map[string]interface{}{
				"status":           workflow.ActivityCompleted,
				"completed_by":     cmd.CompletedBy,
				"completed_at":     cmd.CompletedAt,
				"completion_notes": cmd.CompletionNotes,
			})
		if completed.Error != nil {
			return completed.Error
		}
		if completed.RowsAffected == 0 {
			return ErrStaleActivity
		}

		successor := cmd.Successor
		successor.ID = 0
		successor.AlertID = cmd.AlertID
		predecessor := cmd.ActivityID
		successor.PredecessorActivityID = &predecessor
		if err := tx.Create(&successor).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrStaleActivity
			}
			return err
		}

		if cmd.Booking != nil {
			booking := *cmd.Booking
			booking.ActivityID = &successor.ID
			if err := reserveSlot(tx, &booking); err != nil {
				return err
			}
		}

		if cmd.AlertStatus != "" && cmd.AlertStatus != workflow.AlertPending {
			var endsAt *datatypes.Date
			if successor.AdjustmentEndsAt != nil {
				value := *successor.AdjustmentEndsAt
				endsAt = &value
			}
			resolved := tx.Model(&models.RetentionAlert{}).
				Where("id = ? AND status = ?", cmd.AlertID, workflow.AlertPending).
				Updates(map[string]interface{}{
					"status":             cmd.AlertStatus,
					"retention_kind":     successor.RetentionKind,
					"adjustment_ends_at": endsAt,
					"resolved_at":        cmd.CompletedAt,
				})
			if resolved.Error != nil {
				return resolved.Error
			}
			if resolved.RowsAffected == 0 {
				return ErrAlertResolved
			}
		}

		if err := tx.First(&result.Completed, cmd.ActivityID).Error; err != nil {
			return err
		}
		if err := tx.First(&result.Alert, cmd.AlertID).Error; err != nil {
			return err
		}
		result.Successor = successor
		return nil
	})
	if err != nil {
		return AdvanceResult{}, err
	}
	return result, nil
}

// reserveSlot inserts a date-specific booking unless the professional already has an
// overlapping commitment on that day. On Postgres the check and insert are serialized per
// professional with a transaction-scoped advisory lock.
func reserveSlot(tx *gorm.DB, booking *models.Commitment) error {
	if booking.Date == nil {
		return tx.Create(booking).Error
	}
	if tx.Dialector.Name() == "postgres" {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", slotLockNamespace<<32|int64(booking.ProfessionalID)).Error; err != nil {
			return err
		}
	}

	day := time.Time(*booking.Date)
	var overlapping int64
	err := tx.Model(&models.Commitment{}).
		Where("professional_id = ?", booking.ProfessionalID).
		Where("start_time < ? AND end_time > ?", booking.EndTime, booking.StartTime).
		Where("((date >= ? AND date <= ?) OR weekday = ?)", datatypes.Date(day), datatypes.Date(day), int(day.Weekday())).
		Count(&overlapping).Error
	if err != nil {
		return err
	}
	if overlapping > 0 {
		return ErrSlotTaken
	}
	return tx.Create(booking).Error
}
