package sysconfig

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

var repoTracer = otel.Tracer("github.com/makerclub/printq/repository/sysconfig")

// ErrNotFound is returned when no row exists for a key.
var ErrNotFound = errors.New("config key not found")

// Store is the persistence surface of the system configuration.
type Store interface {
	Get(ctx context.Context, key string) (*entity.SystemConfig, error)
	Upsert(ctx context.Context, row *entity.SystemConfig) error
	GetAll(ctx context.Context) ([]entity.SystemConfig, error)
}

// Repository encapsulates access to system_config rows.
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

// Get fetches a single config row by key.
func (r *Repository) Get(ctx context.Context, key string) (*entity.SystemConfig, error) {
	ctx, span := repoTracer.Start(ctx, "SysConfigRepository.Get", trace.WithAttributes(attribute.String("config.key", key)))
	defer span.End()

	row := new(entity.SystemConfig)
	err := r.reader.NewSelect().Model(row).Where("key = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return row, nil
}

// Upsert inserts or replaces a config row.
func (r *Repository) Upsert(ctx context.Context, row *entity.SystemConfig) error {
	if row == nil {
		return errors.New("nil config row")
	}
	ctx, span := repoTracer.Start(ctx, "SysConfigRepository.Upsert", trace.WithAttributes(attribute.String("config.key", row.Key)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(row).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("description = EXCLUDED.description").
		Set("updated_by = EXCLUDED.updated_by").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
	}
	return err
}

// GetAll returns every config row.
func (r *Repository) GetAll(ctx context.Context) ([]entity.SystemConfig, error) {
	ctx, span := repoTracer.Start(ctx, "SysConfigRepository.GetAll")
	defer span.End()

	var rows []entity.SystemConfig
	if err := r.reader.NewSelect().Model(&rows).Order("key ASC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}
