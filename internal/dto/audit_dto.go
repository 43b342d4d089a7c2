package dto

import (
	"time"

	"github.com/noah-isme/retention-api/internal/models"
)

// AuditListRequest filters the audit trail. Zero values disable a filter.
type AuditListRequest struct {
	Page          int
	PageSize      int
	ActorID       uint
	AlertID       uint
	Action        string
	EntityType    string
	CorrelationID string
}

type AuditEntryResponse struct {
	ID            uint                   `json:"id"`
	AlertID       *uint                  `json:"alert_id,omitempty"`
	ActorID       uint                   `json:"actor_id"`
	ActorRole     string                 `json:"actor_role"`
	Action        string                 `json:"action"`
	EntityType    string                 `json:"entity_type"`
	EntityID      *uint                  `json:"entity_id,omitempty"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Metadata      map[string]interface{} `json:"metadata"`
	CreatedAt     time.Time              `json:"created_at"`
}

type AuditListResponse struct {
	Items      []AuditEntryResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// NewAuditEntryResponse converts a stored entry.
func NewAuditEntryResponse(entry models.AuditEntry) AuditEntryResponse {
	metadata := map[string]interface{}{}
	for key, value := range entry.Metadata {
		metadata[key] = value
	}
	return AuditEntryResponse{
		ID:            entry.ID,
		AlertID:       entry.AlertID,
		ActorID:       entry.ActorID,
		ActorRole:     entry.ActorRole,
		Action:        entry.Action,
		EntityType:    entry.EntityType,
		EntityID:      entry.EntityID,
		CorrelationID: entry.CorrelationID,
		Metadata:      metadata,
		CreatedAt:     entry.CreatedAt,
	}
}
