package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// FileMetadata binds an uploaded blob to its owning order.
type FileMetadata struct {
	bun.BaseModel `bun:"table:files"`

	ID          string `bun:"id,pk"`
	FileName    string `bun:"file_name,notnull"`
	ContentType string `bun:"content_type"`
	Size        int64  `bun:"size,notnull"`
	UploadedBy  int64  `bun:"uploaded_by,notnull"`
	OrderID     *int64 `bun:"order_id"`

	// StorageKey is the object-store key holding the bytes.
	StorageKey string `bun:"storage_key,notnull"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	// ExpiresAt is always CreatedAt + the retention window configured at
	// upload time.
	ExpiresAt time.Time `bun:"expires_at,notnull"`
}

// Expired reports whether the file is past its retention window at now.
func (f *FileMetadata) Expired(now time.Time) bool {
	return now.After(f.ExpiresAt)
}

// Ref converts the row into the snapshot embedded on order rows.
func (f *FileMetadata) Ref() FileRef {
	return FileRef{
		ID:          f.ID,
		FileName:    f.FileName,
		ContentType: f.ContentType,
		Size:        f.Size,
		UploadedBy:  f.UploadedBy,
		CreatedAt:   f.CreatedAt,
		ExpiresAt:   f.ExpiresAt,
	}
}
