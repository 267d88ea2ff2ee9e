package club

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/makerclub/printq/internal/database"
	"github.com/makerclub/printq/internal/entity"
)

var repoTracer = otel.Tracer("github.com/makerclub/printq/repository/club")

// ErrNotFound is returned when a club is missing.
var ErrNotFound = errors.New("club not found")

// Store is the read surface for club lookups.
type Store interface {
	GetByID(ctx context.Context, id int64) (*entity.Club, error)
}

// Repository encapsulates read access for clubs.
type Repository struct {
	reader *bun.DB
}

// NewRepository wires a repository backed by the reader connection.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{reader: conns.Reader}
}

// GetByID fetches a club by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Club, error) {
	ctx, span := repoTracer.Start(ctx, "ClubRepository.GetByID", trace.WithAttributes(attribute.Int64("club.id", id)))
	defer span.End()

	c := new(entity.Club)
	err := r.reader.NewSelect().Model(c).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return c, nil
}
