package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/retention-api/internal/scheduling"
	"github.com/noah-isme/retention-api/internal/workflow"
)

// RetentionAlert is opened for a student flagged as at risk of leaving the school.
type RetentionAlert struct {
	ID               uint                   `gorm:"primaryKey" json:"id"`
	StudentID        uint                   `gorm:"index;not null" json:"student_id"`
	OriginCode       workflow.OriginCode    `gorm:"size:40;not null" json:"origin_code"`
	Status           workflow.AlertStatus   `gorm:"size:16;not null;index" json:"status"`
	RetentionKind    workflow.RetentionKind `gorm:"size:32" json:"retention_kind"`
	AdjustmentEndsAt *datatypes.Date        `json:"adjustment_ends_at"`
	OpenedBy         uint                   `gorm:"not null" json:"opened_by"`
	ResolvedAt       *time.Time             `json:"resolved_at"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`

	Activities []RetentionActivity `gorm:"foreignKey:AlertID" json:"activities,omitempty"`
}

// IsTerminal reports whether the alert has been resolved.
func (a RetentionAlert) IsTerminal() bool {
	return a.Status == workflow.AlertRetained || a.Status == workflow.AlertChurned
}

// RetentionActivity is one node of an alert's activity chain, or an administrative task
// hanging off the alert.
type RetentionActivity struct {
	ID                     uint                    `gorm:"primaryKey" json:"id"`
	AlertID                uint                    `gorm:"index;not null" json:"alert_id"`
	Type                   workflow.ActivityType   `gorm:"size:40;not null" json:"activity_type"`
	Status                 workflow.ActivityStatus `gorm:"size:16;not null;index" json:"status"`
	Description            string                  `gorm:"type:text" json:"description"`
	ScheduledDate          *datatypes.Date         `json:"scheduled_date"`
	ScheduledTime          *string                 `gorm:"size:5" json:"scheduled_time"`
	AssignedProfessionalID *uint                   `gorm:"index" json:"assigned_professional_id"`
	PredecessorActivityID  *uint                   `gorm:"uniqueIndex" json:"predecessor_activity_id"`
	RetentionKind          workflow.RetentionKind  `gorm:"size:32" json:"retention_kind"`
	AdjustmentEndsAt       *datatypes.Date         `json:"adjustment_ends_at"`
	DocumentID             *uint                   `json:"document_id"`
	CompletionNotes        string                  `gorm:"type:text" json:"completion_notes"`
	CompletedBy            *uint                   `json:"completed_by"`
	CompletedAt            *time.Time              `json:"completed_at"`
	CreatedBy              uint                    `json:"created_by"`
	CreatedAt              time.Time               `json:"created_at"`
	UpdatedAt              time.Time               `json:"updated_at"`
}

// IsPending reports whether the activity still awaits completion.
func (a RetentionActivity) IsPending() bool {
	return a.Status == workflow.ActivityPending
}

// ScheduledClock parses the stored scheduled time, if any.
func (a RetentionActivity) ScheduledClock() (*scheduling.Clock, error) {
	if a.ScheduledTime == nil || *a.ScheduledTime == "" {
		return nil, nil
	}
	clock, err := scheduling.ParseClock(*a.ScheduledTime)
	if err != nil {
		return nil, err
	}
	return &clock, nil
}

// DatePointer converts an optional calendar date into its column form.
func DatePointer(value *time.Time) *datatypes.Date {
	if value == nil {
		return nil
	}
	date := datatypes.Date(workflow.DateOnly(*value))
	return &date
}

// TimePointer converts an optional column date back into a calendar date.
func TimePointer(value *datatypes.Date) *time.Time {
	if value == nil {
		return nil
	}
	date := workflow.DateOnly(time.Time(*value))
	return &date
}
