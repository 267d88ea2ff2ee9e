package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/makerclub/printq/internal/entity"
	"github.com/makerclub/printq/internal/identity"
	repo "github.com/makerclub/printq/internal/repository/batch"
	auditsvc "github.com/makerclub/printq/internal/service/audit"
	"github.com/makerclub/printq/internal/service/identifier"
	"github.com/makerclub/printq/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/makerclub/printq/service/batch")

// Service coordinates batches: staff-curated groups of orders printed in
// one run. Batch status is informational and never cascades to member
// orders; orders keep their own lifecycle.
type Service struct {
	batches repo.Store
	idgen   *identifier.Generator
	audit   *auditsvc.Service
	logger  *zap.Logger
	now     func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Batches repo.Store
	IDGen   *identifier.Generator
	Audit   *auditsvc.Service
	Logger  *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		batches: p.Batches,
		idgen:   p.IDGen,
		audit:   p.Audit,
		logger:  p.Logger,
		now:     time.Now,
	}
}

// CreateInput describes a new batch.
type CreateInput struct {
	Name              string
	OrderIDs          []int64
	EstimatedDuration *time.Duration
}

// Create allocates a batch number and links the member orders atomically.
func (s *Service) Create(ctx context.Context, principal identity.Principal, input CreateInput) (*entity.Batch, error) {
	ctx, span := serviceTracer.Start(ctx, "BatchService.Create", trace.WithAttributes(
		attribute.Int("batch.orders", len(input.OrderIDs)),
	))
	defer span.End()

	if !principal.CanManageBatches() {
		return nil, errorbank.PermissionDenied("only staff can manage batches")
	}
	if len(input.OrderIDs) == 0 {
		return nil, errorbank.BadRequest("a batch needs at least one order")
	}

	number, err := s.idgen.BatchNumber(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch number allocation failed")
		return nil, errorbank.Internal("failed to allocate batch number", errorbank.WithCause(err))
	}

	now := s.now().UTC()
	b := &entity.Batch{
		BatchNumber:       number,
		Name:              input.Name,
		Status:            entity.BatchCreated,
		CreatedBy:         principal.ID,
		EstimatedDuration: input.EstimatedDuration,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.batches.CreateWithOrders(ctx, b, input.OrderIDs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		if errors.Is(err, repo.ErrOrderMissing) {
			return nil, errorbank.BadRequest("one or more orders do not exist", errorbank.WithCause(err))
		}
		return nil, errorbank.Internal("failed to create batch", errorbank.WithCause(err))
	}

	s.audit.Record(ctx, auditsvc.Entry{
		ActorID:    principal.ID,
		Action:     auditsvc.ActionBatchCreated,
		EntityType: auditsvc.EntityBatch,
		EntityID:   b.BatchNumber,
		Details: map[string]any{
			"name":      b.Name,
			"order_ids": input.OrderIDs,
		},
	})
	return b, nil
}

// Start marks a batch as printing. Orders in it are untouched.
func (s *Service) Start(ctx context.Context, principal identity.Principal, id int64) (*entity.Batch, error) {
	return s.advance(ctx, principal, id, entity.BatchStarted)
}

// Complete marks a batch as finished. Orders in it are untouched.
func (s *Service) Complete(ctx context.Context, principal identity.Principal, id int64) (*entity.Batch, error) {
	return s.advance(ctx, principal, id, entity.BatchFinished)
}

// Approve marks a created batch as ready to print.
func (s *Service) Approve(ctx context.Context, principal identity.Principal, id int64) (*entity.Batch, error) {
	return s.advance(ctx, principal, id, entity.BatchApproved)
}

// batchOrder maps each status to its rank. A batch only moves forward.
var batchOrder = map[entity.BatchStatus]int{
	entity.BatchCreated:  0,
	entity.BatchApproved: 1,
	entity.BatchStarted:  2,
	entity.BatchFinished: 3,
}

func (s *Service) advance(ctx context.Context, principal identity.Principal, id int64, to entity.BatchStatus) (*entity.Batch, error) {
	ctx, span := serviceTracer.Start(ctx, "BatchService.Advance", trace.WithAttributes(
		attribute.Int64("batch.id", id),
		attribute.String("batch.to", string(to)),
	))
	defer span.End()

	if !principal.CanManageBatches() {
		return nil, errorbank.PermissionDenied("only staff can manage batches")
	}
	b, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if batchOrder[to] <= batchOrder[b.Status] {
		return nil, errorbank.IllegalTransition(
			fmt.Sprintf("batch cannot move from %s to %s", b.Status, to),
			errorbank.WithDetail("from", string(b.Status)),
			errorbank.WithDetail("to", string(to)),
		)
	}

	now := s.now().UTC()
	from := b.Status
	b.Status = to
	b.UpdatedAt = now
	switch to {
	case entity.BatchStarted:
		b.StartedAt = &now
	case entity.BatchFinished:
		b.CompletedAt = &now
	}
	if err := s.batches.Update(ctx, b); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, errorbank.Internal("failed to update batch", errorbank.WithCause(err))
	}

	action := auditsvc.ActionBatchStarted
	if to == entity.BatchFinished {
		action = auditsvc.ActionBatchCompleted
	}
	if to == entity.BatchApproved {
		action = auditsvc.ActionBatchApproved
	}
	s.audit.Record(ctx, auditsvc.Entry{
		ActorID:    principal.ID,
		Action:     action,
		EntityType: auditsvc.EntityBatch,
		EntityID:   b.BatchNumber,
		Details: map[string]any{
			"from": string(from),
			"to":   string(to),
		},
	})
	return b, nil
}

// Get returns one batch. Any staff member may read batches.
func (s *Service) Get(ctx context.Context, principal identity.Principal, id int64) (*entity.Batch, error) {
	if !principal.CanManageBatches() {
		return nil, errorbank.PermissionDenied("only staff can view batches")
	}
	return s.get(ctx, id)
}

// List returns batches, newest first.
func (s *Service) List(ctx context.Context, principal identity.Principal, limit int) ([]entity.Batch, error) {
	if !principal.CanManageBatches() {
		return nil, errorbank.PermissionDenied("only staff can view batches")
	}
	batches, err := s.batches.List(ctx, limit)
	if err != nil {
		return nil, errorbank.Internal("failed to list batches", errorbank.WithCause(err))
	}
	return batches, nil
}

func (s *Service) get(ctx context.Context, id int64) (*entity.Batch, error) {
	b, err := s.batches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("batch not found")
		}
		return nil, errorbank.Internal("failed to load batch", errorbank.WithCause(err))
	}
	return b, nil
}
