package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// AuditLog is an append-only record of a state-changing action.
// Rows are never updated or deleted after insertion.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs"`

	ID         int64          `bun:",pk,autoincrement"`
	ActorID    int64          `bun:"actor_id,notnull"`
	Action     string         `bun:"action,notnull"`
	EntityType string         `bun:"entity_type,notnull"`
	EntityID   string         `bun:"entity_id,notnull"`
	Details    map[string]any `bun:"details,type:jsonb"`
	Reason     string         `bun:"reason"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
