package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// OrderStatus enumerates the lifecycle states of a print order.
type OrderStatus string

const (
	StatusSubmitted OrderStatus = "submitted"
	StatusApproved  OrderStatus = "approved"
	StatusStarted   OrderStatus = "started"
	StatusFinished  OrderStatus = "finished"
	StatusFailed    OrderStatus = "failed"
	StatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transitions are defined from s.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusFinished, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Valid reports whether s is one of the defined status values.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusSubmitted, StatusApproved, StatusStarted, StatusFinished, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Order represents a print request stored in the relational database.
// Orders are never physically deleted; terminal states are retained for
// history and audit.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID      int64  `bun:",pk,autoincrement"`
	OrderID string `bun:"order_id,notnull,unique"`

	UserID int64  `bun:"user_id,notnull"`
	ClubID *int64 `bun:"club_id"`

	ProjectName       string      `bun:"project_name,notnull"`
	EventDeadline     *time.Time  `bun:"event_deadline"`
	Material          string      `bun:"material"`
	Color             string      `bun:"color"`
	ProvidingFilament bool        `bun:"providing_filament"`
	Instructions      string      `bun:"instructions"`
	Status            OrderStatus `bun:"status,notnull"`

	// Files is a denormalized snapshot of the order's attachment metadata.
	// Only the attachment manager mutates it, via read-modify-write on the
	// order row.
	Files []FileRef `bun:"files,type:jsonb"`

	BatchID *int64 `bun:"batch_id"`

	EstimatedCompletionTime *time.Time `bun:"estimated_completion_time"`
	ActualCompletionTime    *time.Time `bun:"actual_completion_time"`
	FailureReason           string     `bun:"failure_reason"`
	CancellationReason      string     `bun:"cancellation_reason"`
	StaffNotes              string     `bun:"staff_notes"`

	SubmittedAt time.Time `bun:"submitted_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero"`
}

// FileRef is the attachment snapshot embedded in an order's files column.
// Field names match the persisted file metadata wire shape.
type FileRef struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedBy  int64     `json:"uploadedBy"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
