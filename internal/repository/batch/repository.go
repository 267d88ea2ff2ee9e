package batch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/makerclub/printq/internal/database"
	"github.com/makerclub/printq/internal/entity"
)

var repoTracer = otel.Tracer("github.com/makerclub/printq/repository/batch")

// ErrNotFound is returned when a batch is missing.
var ErrNotFound = errors.New("batch not found")

// ErrOrderMissing is returned when a member order id does not resolve.
var ErrOrderMissing = errors.New("batch member order not found")

// Store is the persistence surface the batch coordinator depends on.
type Store interface {
	// CreateWithOrders inserts the batch and links every member order in a
	// single transaction: either the batch and all links land, or nothing
	// does.
	CreateWithOrders(ctx context.Context, batch *entity.Batch, orderIDs []int64) error
	GetByID(ctx context.Context, id int64) (*entity.Batch, error)
	Update(ctx context.Context, batch *entity.Batch) error
	List(ctx context.Context, limit int) ([]entity.Batch, error)
}

// Repository encapsulates read/write access for batches.
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

// CreateWithOrders persists the batch and stamps batch_id onto each member
// order atomically.
func (r *Repository) CreateWithOrders(ctx context.Context, batch *entity.Batch, orderIDs []int64) error {
	if batch == nil {
		return errors.New("nil batch")
	}
	ctx, span := repoTracer.Start(ctx, "BatchRepository.CreateWithOrders", trace.WithAttributes(
		attribute.String("batch.number", batch.BatchNumber),
		attribute.Int("batch.orders", len(orderIDs)),
	))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(batch).Exec(ctx); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
		for _, orderID := range orderIDs {
			res, err := tx.NewUpdate().Model((*entity.Order)(nil)).
				Set("batch_id = ?", batch.ID).
				Set("updated_at = ?", time.Now().UTC()).
				Where("id = ?", orderID).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("link order %d: %w", orderID, err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return fmt.Errorf("%w: id %d", ErrOrderMissing, orderID)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction failed")
	}
	return err
}

// GetByID fetches a batch by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Batch, error) {
	ctx, span := repoTracer.Start(ctx, "BatchRepository.GetByID", trace.WithAttributes(attribute.Int64("batch.id", id)))
	defer span.End()

	batch := new(entity.Batch)
	err := r.reader.NewSelect().Model(batch).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return batch, nil
}

// Update rewrites an existing batch row.
func (r *Repository) Update(ctx context.Context, batch *entity.Batch) error {
	if batch == nil {
		return errors.New("nil batch")
	}
	ctx, span := repoTracer.Start(ctx, "BatchRepository.Update", trace.WithAttributes(attribute.Int64("batch.id", batch.ID)))
	defer span.End()

	res, err := r.writer.NewUpdate().Model(batch).WherePK().Exec(ctx)
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

// List returns batches, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]entity.Batch, error) {
	ctx, span := repoTracer.Start(ctx, "BatchRepository.List")
	defer span.End()

	var batches []entity.Batch
	q := r.reader.NewSelect().Model(&batches).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return batches, nil
}
