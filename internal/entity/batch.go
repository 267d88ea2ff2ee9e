package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// BatchStatus enumerates the states of a print batch.
type BatchStatus string

const (
	BatchCreated  BatchStatus = "created"
	BatchApproved BatchStatus = "approved"
	BatchStarted  BatchStatus = "started"
	BatchFinished BatchStatus = "finished"
)

// Batch is an administrative grouping of orders handled together.
// Batches are append-only like orders; deletion is not supported.
type Batch struct {
	bun.BaseModel `bun:"table:batches"`

	ID          int64       `bun:",pk,autoincrement"`
	BatchNumber string      `bun:"batch_number,notnull,unique"`
	Name        string      `bun:"name"`
	Status      BatchStatus `bun:"status,notnull"`
	CreatedBy   int64       `bun:"created_by,notnull"`

	EstimatedDuration *time.Duration `bun:"estimated_duration"`
	StartedAt         *time.Time     `bun:"started_at"`
	CompletedAt       *time.Time     `bun:"completed_at"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}
