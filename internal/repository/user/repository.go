package user

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

var repoTracer = otel.Tracer("github.com/makerclub/printq/repository/user")

// ErrNotFound is returned when a user is missing.
var ErrNotFound = errors.New("user not found")

// Store is the persistence surface for user quota bookkeeping.
type Store interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	// IncrementFilesUsed bumps the lifetime files counter by n as a single
	// atomic statement.
	IncrementFilesUsed(ctx context.Context, id int64, n int) error
}

// Repository encapsulates read/write access for users.
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

// GetByID fetches a user by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.GetByID", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	u := new(entity.User)
	err := r.reader.NewSelect().Model(u).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return u, nil
}

// IncrementFilesUsed bumps the files_used counter in the database, avoiding
// a read-modify-write race between concurrent uploads.
func (r *Repository) IncrementFilesUsed(ctx context.Context, id int64, n int) error {
	if n <= 0 {
		return nil
	}
	ctx, span := repoTracer.Start(ctx, "UserRepository.IncrementFilesUsed", trace.WithAttributes(
		attribute.Int64("user.id", id),
		attribute.Int("count", n),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.User)(nil)).
		Set("files_used = files_used + ?", n).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}
