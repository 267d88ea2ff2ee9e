package dto

import (
	"time"

	"github.com/makerclub/printq/internal/entity"
)

// AuditLogResponse is the wire shape of one audit trail entry.
type AuditLogResponse struct {
	ID         int64          `json:"id"`
	ActorID    int64          `json:"actor_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Details    map[string]any `json:"details,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// NewAuditLogResponses maps audit rows to their wire shape.
func NewAuditLogResponses(logs []entity.AuditLog) []AuditLogResponse {
	out := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, AuditLogResponse{
			ID:         l.ID,
			ActorID:    l.ActorID,
			Action:     l.Action,
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			Details:    l.Details,
			Reason:     l.Reason,
			CreatedAt:  l.CreatedAt,
		})
	}
	return out
}
