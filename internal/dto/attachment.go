package dto

import (
	"time"

	"github.com/makerclub/printq/internal/entity"
)

// FileResponse is the wire shape of one file's metadata.
type FileResponse struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size"`
	UploadedBy  int64     `json:"uploaded_by"`
	OrderID     *int64    `json:"order_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// NewFileResponse maps file metadata to its wire shape.
func NewFileResponse(f *entity.FileMetadata) FileResponse {
	return FileResponse{
		ID:          f.ID,
		FileName:    f.FileName,
		ContentType: f.ContentType,
		Size:        f.Size,
		UploadedBy:  f.UploadedBy,
		OrderID:     f.OrderID,
		CreatedAt:   f.CreatedAt,
		ExpiresAt:   f.ExpiresAt,
	}
}

// NewFileResponses maps a slice of file metadata rows.
func NewFileResponses(files []entity.FileMetadata) []FileResponse {
	out := make([]FileResponse, 0, len(files))
	for i := range files {
		out = append(out, NewFileResponse(&files[i]))
	}
	return out
}
