package dto

import (
	"time"

	"github.com/makerclub/printq/internal/entity"
)

// CreateOrderRequest is the payload for submitting a print order.
type CreateOrderRequest struct {
	ClubID            *int64     `json:"club_id"`
	ProjectName       string     `json:"project_name"`
	EventDeadline     *time.Time `json:"event_deadline"`
	Material          string     `json:"material"`
	Color             string     `json:"color"`
	ProvidingFilament bool       `json:"providing_filament"`
	Instructions      string     `json:"instructions"`
	FileIDs           []string   `json:"file_ids"`
}

// TransitionOrderRequest moves an order to a new lifecycle state.
type TransitionOrderRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// UpdateOrderRequest patches mutable order fields. Nil fields are left
// untouched.
type UpdateOrderRequest struct {
	ProjectName             *string    `json:"project_name"`
	EventDeadline           *time.Time `json:"event_deadline"`
	Material                *string    `json:"material"`
	Color                   *string    `json:"color"`
	Instructions            *string    `json:"instructions"`
	EstimatedCompletionTime *time.Time `json:"estimated_completion_time"`
	StaffNotes              *string    `json:"staff_notes"`
}

// OrderResponse is the wire shape of one order.
type OrderResponse struct {
	ID                      int64            `json:"id"`
	OrderID                 string           `json:"order_id"`
	UserID                  int64            `json:"user_id"`
	ClubID                  *int64           `json:"club_id,omitempty"`
	ProjectName             string           `json:"project_name"`
	EventDeadline           *time.Time       `json:"event_deadline,omitempty"`
	Material                string           `json:"material"`
	Color                   string           `json:"color"`
	ProvidingFilament       bool             `json:"providing_filament"`
	Instructions            string           `json:"instructions,omitempty"`
	Status                  string           `json:"status"`
	Files                   []entity.FileRef `json:"files"`
	BatchID                 *int64           `json:"batch_id,omitempty"`
	EstimatedCompletionTime *time.Time       `json:"estimated_completion_time,omitempty"`
	ActualCompletionTime    *time.Time       `json:"actual_completion_time,omitempty"`
	FailureReason           string           `json:"failure_reason,omitempty"`
	CancellationReason      string           `json:"cancellation_reason,omitempty"`
	StaffNotes              string           `json:"staff_notes,omitempty"`
	SubmittedAt             time.Time        `json:"submitted_at"`
	UpdatedAt               time.Time        `json:"updated_at"`
}

// NewOrderResponse maps an order row to its wire shape.
func NewOrderResponse(o *entity.Order) OrderResponse {
	files := o.Files
	if files == nil {
		files = []entity.FileRef{}
	}
	return OrderResponse{
		ID:                      o.ID,
		OrderID:                 o.OrderID,
		UserID:                  o.UserID,
		ClubID:                  o.ClubID,
		ProjectName:             o.ProjectName,
		EventDeadline:           o.EventDeadline,
		Material:                o.Material,
		Color:                   o.Color,
		ProvidingFilament:       o.ProvidingFilament,
		Instructions:            o.Instructions,
		Status:                  string(o.Status),
		Files:                   files,
		BatchID:                 o.BatchID,
		EstimatedCompletionTime: o.EstimatedCompletionTime,
		ActualCompletionTime:    o.ActualCompletionTime,
		FailureReason:           o.FailureReason,
		CancellationReason:      o.CancellationReason,
		StaffNotes:              o.StaffNotes,
		SubmittedAt:             o.SubmittedAt,
		UpdatedAt:               o.UpdatedAt,
	}
}

// NewOrderResponses maps a slice of order rows.
func NewOrderResponses(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return out
}
