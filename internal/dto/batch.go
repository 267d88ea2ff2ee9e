package dto

import (
	"time"

	"github.com/makerclub/printq/internal/entity"
)

// CreateBatchRequest groups orders into a new batch.
type CreateBatchRequest struct {
	Name                     string  `json:"name"`
	OrderIDs                 []int64 `json:"order_ids"`
	EstimatedDurationMinutes *int64  `json:"estimated_duration_minutes"`
}

// BatchResponse is the wire shape of one batch.
type BatchResponse struct {
	ID                       int64      `json:"id"`
	BatchNumber              string     `json:"batch_number"`
	Name                     string     `json:"name,omitempty"`
	Status                   string     `json:"status"`
	CreatedBy                int64      `json:"created_by"`
	EstimatedDurationMinutes *int64     `json:"estimated_duration_minutes,omitempty"`
	StartedAt                *time.Time `json:"started_at,omitempty"`
	CompletedAt              *time.Time `json:"completed_at,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// NewBatchResponse maps a batch row to its wire shape.
func NewBatchResponse(b *entity.Batch) BatchResponse {
	resp := BatchResponse{
		ID:          b.ID,
		BatchNumber: b.BatchNumber,
		Name:        b.Name,
		Status:      string(b.Status),
		CreatedBy:   b.CreatedBy,
		StartedAt:   b.StartedAt,
		CompletedAt: b.CompletedAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if b.EstimatedDuration != nil {
		minutes := int64(b.EstimatedDuration.Minutes())
		resp.EstimatedDurationMinutes = &minutes
	}
	return resp
}

// NewBatchResponses maps a slice of batch rows.
func NewBatchResponses(batches []entity.Batch) []BatchResponse {
	out := make([]BatchResponse, 0, len(batches))
	for i := range batches {
		out = append(out, NewBatchResponse(&batches[i]))
	}
	return out
}
