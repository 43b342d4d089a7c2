package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditEntry records one staff action against the retention workflow. CorrelationID ties the
// entry to the request that produced it.
type AuditEntry struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	AlertID       *uint             `gorm:"index:idx_audit_alert_created" json:"alert_id"`
	ActorID       uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole     string            `gorm:"size:32;not null" json:"actor_role"`
	Action        string            `gorm:"size:64;not null;index" json:"action"`
	EntityType    string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID      *uint             `json:"entity_id"`
	CorrelationID string            `gorm:"size:128;index" json:"correlation_id"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt     time.Time         `gorm:"index:idx_audit_alert_created" json:"created_at"`
}

// TableName pins the audit table name.
func (AuditEntry) TableName() string {
	return "audit_entries"
}
