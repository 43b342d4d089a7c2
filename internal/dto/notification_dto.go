package dto

import (
	"time"

	"github.com/noah-isme/retention-api/internal/models"
)

// Notification types emitted by the retention workflow.
const (
	NotificationSessionScheduled = "session_scheduled"
	NotificationAlertResolved    = "alert_resolved"
	NotificationGeneric          = "generic"
)

// NotificationCreateRequest addresses a message to one staff member.
type NotificationCreateRequest struct {
	StaffID uint   `json:"staff_id" validate:"required,gt=0"`
	AlertID *uint  `json:"alert_id"`
	Type    string `json:"type" validate:"required,max=40"`
	Message string `json:"message" validate:"required,min=1,max=2000"`
}

// NotificationListRequest filters a staff member's inbox.
type NotificationListRequest struct {
	StaffID    uint
	AlertID    *uint
	UnreadOnly bool
	Limit      int
	Offset     int
}

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID        uint       `json:"id"`
	StaffID   uint       `json:"staff_id"`
	AlertID   *uint      `json:"alert_id,omitempty"`
	Type      string     `json:"type"`
	Message   string     `json:"message"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewNotificationResponse converts a notification model to DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        model.ID,
		StaffID:   model.StaffID,
		AlertID:   model.AlertID,
		Type:      model.Type,
		Message:   model.Message,
		Read:      model.IsRead(),
		ReadAt:    model.ReadAt,
		CreatedAt: model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts a slice to DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNotificationResponse(item))
	}
	return out
}
