package models

import "time"

// Notification is a message addressed to one staff member, usually about an alert.
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	StaffID   uint       `gorm:"not null;index:idx_notifications_staff_read" json:"staff_id"`
	AlertID   *uint      `gorm:"index" json:"alert_id"`
	Type      string     `gorm:"size:40;not null" json:"type"`
	Message   string     `gorm:"type:text" json:"message"`
	ReadAt    *time.Time `gorm:"index:idx_notifications_staff_read" json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsRead reports whether the recipient has acknowledged the notification.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}
