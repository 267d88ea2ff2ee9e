package sequence

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/makerclub/printq/internal/database"
	"github.com/makerclub/printq/internal/entity"
)

var repoTracer = otel.Tracer("github.com/makerclub/printq/repository/sequence")

// Store hands out monotonically increasing values per named scope.
type Store interface {
	// Next atomically bumps the counter for scope and returns the new
	// value. Two concurrent callers never observe the same value.
	Next(ctx context.Context, scope string) (int64, error)
}

// Repository implements Store with a single upsert-returning statement, so
// the increment is serialized by the database rather than a read-then-write
// in application code.
type Repository struct {
	writer *bun.DB
}

// NewRepository wires a repository backed by the writer connection.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer}
}

// Next bumps and returns the counter for scope.
func (r *Repository) Next(ctx context.Context, scope string) (int64, error) {
	if scope == "" {
		return 0, errors.New("empty sequence scope")
	}
	ctx, span := repoTracer.Start(ctx, "SequenceRepository.Next", trace.WithAttributes(attribute.String("sequence.scope", scope)))
	defer span.End()

	row := &entity.Sequence{Scope: scope, Value: 1}
	err := r.writer.NewInsert().Model(row).
		On("CONFLICT (scope) DO UPDATE").
		Set("value = sequences.value + 1").
		Returning("value").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		return 0, err
	}
	return row.Value, nil
}
