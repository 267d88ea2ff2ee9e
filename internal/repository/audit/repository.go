package audit

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/makerclub/printq/internal/database"
	"github.com/makerclub/printq/internal/entity"
)

var repoTracer = otel.Tracer("github.com/makerclub/printq/repository/audit")

// Filter narrows audit queries. Zero fields are ignored.
type Filter struct {
	ActorID    *int64
	EntityType string
	EntityID   string
	Action     string
	From       *time.Time
	To         *time.Time
}

// Store is the persistence surface of the audit trail. Entries are append
// only: there is no update or delete path.
type Store interface {
	Insert(ctx context.Context, entry *entity.AuditLog) error
	Query(ctx context.Context, filter Filter, limit int) ([]entity.AuditLog, error)
}

// Repository encapsulates access to audit log rows.
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

// Insert appends a new audit entry.
func (r *Repository) Insert(ctx context.Context, entry *entity.AuditLog) error {
	if entry == nil {
		return errors.New("nil audit entry")
	}
	ctx, span := repoTracer.Start(ctx, "AuditRepository.Insert", trace.WithAttributes(
		attribute.String("audit.action", entry.Action),
		attribute.String("audit.entity_type", entry.EntityType),
	))
	defer span.End()

	_, err := r.writer.NewInsert().Model(entry).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// Query returns matching entries sorted by time descending.
func (r *Repository) Query(ctx context.Context, filter Filter, limit int) ([]entity.AuditLog, error) {
	ctx, span := repoTracer.Start(ctx, "AuditRepository.Query")
	defer span.End()

	var entries []entity.AuditLog
	q := r.reader.NewSelect().Model(&entries).Order("created_at DESC")
	if filter.ActorID != nil {
		q = q.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return entries, nil
}
