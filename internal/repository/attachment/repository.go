package attachment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/makerclub/printq/internal/database"
	"github.com/makerclub/printq/internal/entity"
)

var repoTracer = otel.Tracer("github.com/makerclub/printq/repository/attachment")

// ErrNotFound is returned when a file metadata row is missing.
var ErrNotFound = errors.New("file not found")

// Store is the persistence surface the attachment manager depends on.
type Store interface {
	Create(ctx context.Context, file *entity.FileMetadata) error
	GetByID(ctx context.Context, id string) (*entity.FileMetadata, error)
	// Delete removes the metadata row. Deleting a missing id reports
	// deleted=false without an error, so callers can stay idempotent.
	Delete(ctx context.Context, id string) (deleted bool, err error)
	// AssignOrder stamps the owning order onto an uploaded file.
	AssignOrder(ctx context.Context, id string, orderID int64) error
	ListByOrder(ctx context.Context, orderID int64) ([]entity.FileMetadata, error)
}

// Repository encapsulates read/write access for file metadata.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create persists new file metadata.
func (r *Repository) Create(ctx context.Context, file *entity.FileMetadata) error {
	if file == nil {
		return errors.New("nil file")
	}
	ctx, span := repoTracer.Start(ctx, "AttachmentRepository.Create", trace.WithAttributes(attribute.String("file.id", file.ID)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(file).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches file metadata by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.FileMetadata, error) {
	ctx, span := repoTracer.Start(ctx, "AttachmentRepository.GetByID", trace.WithAttributes(attribute.String("file.id", id)))
	defer span.End()

	file := new(entity.FileMetadata)
	err := r.reader.NewSelect().Model(file).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return file, nil
}

// Delete removes the metadata row if present.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "AttachmentRepository.Delete", trace.WithAttributes(attribute.String("file.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.FileMetadata)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AssignOrder stamps the owning order id onto a file metadata row.
func (r *Repository) AssignOrder(ctx context.Context, id string, orderID int64) error {
	ctx, span := repoTracer.Start(ctx, "AttachmentRepository.AssignOrder", trace.WithAttributes(
		attribute.String("file.id", id),
		attribute.Int64("order.id", orderID),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.FileMetadata)(nil)).
		Set("order_id = ?", orderID).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByOrder returns the metadata rows attached to an order, oldest first.
func (r *Repository) ListByOrder(ctx context.Context, orderID int64) ([]entity.FileMetadata, error) {
	ctx, span := repoTracer.Start(ctx, "AttachmentRepository.ListByOrder", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	var files []entity.FileMetadata
	err := r.reader.NewSelect().Model(&files).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return files, nil
}
