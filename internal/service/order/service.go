package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/makerclub/printq/internal/config"
	"github.com/makerclub/printq/internal/entity"
	"github.com/makerclub/printq/internal/identity"
	"github.com/makerclub/printq/internal/messaging"
	attachmentrepo "github.com/makerclub/printq/internal/repository/attachment"
	repo "github.com/makerclub/printq/internal/repository/order"
	userrepo "github.com/makerclub/printq/internal/repository/user"
	auditsvc "github.com/makerclub/printq/internal/service/audit"
	"github.com/makerclub/printq/internal/service/identifier"
	configsvc "github.com/makerclub/printq/internal/service/sysconfig"
	"github.com/makerclub/printq/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/makerclub/printq/service/order")

// Default material and color applied when a submission omits them.
const (
	DefaultMaterial = "PLA"
	DefaultColor    = "White"
)

// Service is the order lifecycle engine: it owns creation, the status
// state machine, administrative edits, and the audit entry each mutation
// must leave behind.
type Service struct {
	orders      repo.Store
	users       userrepo.Store
	attachments attachmentrepo.Store
	idgen       *identifier.Generator
	settings    *configsvc.Service
	audit       *auditsvc.Service
	logger      *zap.Logger
	publisher   messaging.Client
	messaging   messagingConfig
	now         func() time.Time
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders      repo.Store
	Users       userrepo.Store
	Attachments attachmentrepo.Store
	Generator   *identifier.Generator
	Settings    *configsvc.Service
	Audit       *auditsvc.Service
	Config      config.Config
	Logger      *zap.Logger
	Publisher   messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		orders:      p.Orders,
		users:       p.Users,
		attachments: p.Attachments,
		idgen:       p.Generator,
		settings:    p.Settings,
		audit:       p.Audit,
		logger:      p.Logger,
		publisher:   p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		now: time.Now,
	}
}

// CreateInput is a new print request submission.
type CreateInput struct {
	ClubID            *int64
	ProjectName       string
	EventDeadline     *time.Time
	Material          string
	Color             string
	ProvidingFilament bool
	Instructions      string
	FileIDs           []string
}

// Create validates and persists a new order in status submitted.
func (s *Service) Create(ctx context.Context, principal identity.Principal, input CreateInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create")
	defer span.End()

	if !principal.CanMutate() {
		return nil, errorbank.PermissionDenied("read-only principals cannot submit orders")
	}
	if input.ProjectName == "" {
		return nil, errorbank.BadRequest("project name is required")
	}
	if input.Material == "" {
		input.Material = DefaultMaterial
	}
	if input.Color == "" {
		input.Color = DefaultColor
	}

	refs, err := s.resolveFiles(ctx, principal, input.FileIDs)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &entity.Order{
		OrderID:           s.idgen.OrderID(ctx, input.ClubID),
		UserID:            principal.ID,
		ClubID:            input.ClubID,
		ProjectName:       input.ProjectName,
		EventDeadline:     input.EventDeadline,
		Material:          input.Material,
		Color:             input.Color,
		ProvidingFilament: input.ProvidingFilament,
		Instructions:      input.Instructions,
		Status:            entity.StatusSubmitted,
		Files:             refs,
		SubmittedAt:       now,
		UpdatedAt:         now,
	}
	span.SetAttributes(attribute.String("order.order_id", order.OrderID))

	if err := s.orders.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}

	for _, id := range input.FileIDs {
		if err := s.attachments.AssignOrder(ctx, id, order.ID); err != nil && s.logger != nil {
			s.logger.Warn("failed to bind file to order", zap.String("file_id", id), zap.Int64("order_id", order.ID), zap.Error(err))
		}
	}

	if n := len(refs); n > 0 {
		if err := s.users.IncrementFilesUsed(ctx, principal.ID, n); err != nil && s.logger != nil {
			s.logger.Warn("failed to bump file usage counter", zap.Int64("user_id", principal.ID), zap.Error(err))
		}
	}

	s.audit.Record(ctx, auditsvc.Entry{
		ActorID:    principal.ID,
		Action:     auditsvc.ActionOrderSubmitted,
		EntityType: auditsvc.EntityOrder,
		EntityID:   order.OrderID,
		Details: map[string]any{
			"project_name": order.ProjectName,
			"material":     order.Material,
			"files":        len(refs),
		},
	})

	s.publishEvent(ctx, auditsvc.ActionOrderSubmitted, order, "", "")
	return order, nil
}

// resolveFiles turns uploaded file ids into order file refs after checking
// the uploader's quota.
func (s *Service) resolveFiles(ctx context.Context, principal identity.Principal, fileIDs []string) ([]entity.FileRef, error) {
	if len(fileIDs) == 0 {
		return nil, nil
	}

	u, err := s.users.GetByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, errorbank.NotFound("uploader not found")
		}
		return nil, errorbank.Internal("failed to load uploader", errorbank.WithCause(err))
	}
	maxFiles := s.settings.MaxUploadFiles(ctx)
	if u.FilesUsed+len(fileIDs) > maxFiles {
		return nil, errorbank.QuotaExceeded(
			fmt.Sprintf("upload quota of %d files exceeded", maxFiles),
			errorbank.WithDetail("files_used", u.FilesUsed),
			errorbank.WithDetail("requested", len(fileIDs)),
		)
	}

	refs := make([]entity.FileRef, 0, len(fileIDs))
	for _, id := range fileIDs {
		meta, err := s.attachments.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, attachmentrepo.ErrNotFound) {
				return nil, errorbank.BadRequest("unknown file id", errorbank.WithDetail("file_id", id))
			}
			return nil, errorbank.Internal("failed to resolve file", errorbank.WithCause(err))
		}
		if meta.UploadedBy != principal.ID {
			return nil, errorbank.PermissionDenied(
				"cannot attach another user's file",
				errorbank.WithDetail("file_id", id),
			)
		}
		refs = append(refs, meta.Ref())
	}
	return refs, nil
}

// Transition moves an order through the lifecycle graph. Illegal edges are
// rejected with a distinct error and leave the order untouched.
func (s *Service) Transition(ctx context.Context, principal identity.Principal, id int64, next entity.OrderStatus, reason string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Transition", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.next_status", string(next)),
	))
	defer span.End()

	if !next.Valid() {
		return nil, errorbank.BadRequest(fmt.Sprintf("unknown status %q", next))
	}

	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Owners may cancel their own pending orders; everything else is staff.
	if next == entity.StatusCancelled && principal.CanCancelOwn(order) {
		// allowed
	} else if !principal.CanTransition(order) {
		return nil, errorbank.PermissionDenied("only staff may change order status")
	}

	prev := order.Status
	if !CanTransition(prev, next) {
		return nil, errorbank.IllegalTransition(
			fmt.Sprintf("cannot transition order from %s to %s", prev, next),
			errorbank.WithDetail("from", string(prev)),
			errorbank.WithDetail("to", string(next)),
		)
	}

	now := s.now().UTC()
	order.Status = next
	order.UpdatedAt = now
	switch next {
	case entity.StatusCancelled:
		order.CancellationReason = reason
	case entity.StatusFailed:
		order.FailureReason = reason
	case entity.StatusFinished:
		order.ActualCompletionTime = &now
	}

	if err := s.orders.Update(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update order", errorbank.WithCause(err))
	}

	s.audit.Record(ctx, auditsvc.Entry{
		ActorID:    principal.ID,
		Action:     auditsvc.ActionOrderStatusChanged,
		EntityType: auditsvc.EntityOrder,
		EntityID:   order.OrderID,
		Details: map[string]any{
			"from": string(prev),
			"to":   string(next),
		},
		Reason: reason,
	})

	s.publishEvent(ctx, auditsvc.ActionOrderStatusChanged, order, string(prev), reason)
	return order, nil
}

// UpdateInput is a partial administrative edit. Nil fields are untouched.
type UpdateInput struct {
	ProjectName             *string
	EventDeadline           *time.Time
	Material                *string
	Color                   *string
	Instructions            *string
	StaffNotes              *string
	EstimatedCompletionTime *time.Time
}

// Update patches order fields without a status change, auditing what
// changed.
func (s *Service) Update(ctx context.Context, principal identity.Principal, id int64, input UpdateInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	ownerEditable := principal.ID == order.UserID && order.Status == entity.StatusSubmitted
	if !principal.Staff() && !ownerEditable {
		return nil, errorbank.PermissionDenied("order can no longer be edited by its owner")
	}
	if input.StaffNotes != nil && !principal.Staff() {
		return nil, errorbank.PermissionDenied("staff notes are staff-only")
	}

	var changed []string
	if input.ProjectName != nil && *input.ProjectName != order.ProjectName {
		if *input.ProjectName == "" {
			return nil, errorbank.BadRequest("project name is required")
		}
		order.ProjectName = *input.ProjectName
		changed = append(changed, "project_name")
	}
	if input.EventDeadline != nil {
		order.EventDeadline = input.EventDeadline
		changed = append(changed, "event_deadline")
	}
	if input.Material != nil && *input.Material != order.Material {
		order.Material = *input.Material
		changed = append(changed, "material")
	}
	if input.Color != nil && *input.Color != order.Color {
		order.Color = *input.Color
		changed = append(changed, "color")
	}
	if input.Instructions != nil && *input.Instructions != order.Instructions {
		order.Instructions = *input.Instructions
		changed = append(changed, "instructions")
	}
	if input.StaffNotes != nil && *input.StaffNotes != order.StaffNotes {
		order.StaffNotes = *input.StaffNotes
		changed = append(changed, "staff_notes")
	}
	if input.EstimatedCompletionTime != nil {
		order.EstimatedCompletionTime = input.EstimatedCompletionTime
		changed = append(changed, "estimated_completion_time")
	}

	if len(changed) == 0 {
		return order, nil
	}

	order.UpdatedAt = s.now().UTC()
	if err := s.orders.Update(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update order", errorbank.WithCause(err))
	}

	s.audit.Record(ctx, auditsvc.Entry{
		ActorID:    principal.ID,
		Action:     auditsvc.ActionOrderUpdated,
		EntityType: auditsvc.EntityOrder,
		EntityID:   order.OrderID,
		Details:    map[string]any{"fields": changed},
	})
	return order, nil
}

// Get retrieves an order by primary key, enforcing ownership for
// non-staff callers.
func (s *Service) Get(ctx context.Context, principal identity.Principal, id int64) (*entity.Order, error) {
	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanViewOrder(order) {
		return nil, errorbank.PermissionDenied("cannot view another user's order")
	}
	return order, nil
}

// GetByOrderID retrieves an order by its human-readable identifier.
func (s *Service) GetByOrderID(ctx context.Context, principal identity.Principal, orderID string) (*entity.Order, error) {
	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	if !principal.CanViewOrder(order) {
		return nil, errorbank.PermissionDenied("cannot view another user's order")
	}
	return order, nil
}

// List returns orders visible to the principal, newest submissions first.
// Non-staff callers are always scoped to their own orders.
func (s *Service) List(ctx context.Context, principal identity.Principal, filter repo.Filter) ([]entity.Order, error) {
	if !principal.Staff() {
		uid := principal.ID
		filter.UserID = &uid
	}
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

func (s *Service) get(ctx context.Context, id int64) (*entity.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	return order, nil
}

// publishEvent emits an order event after the durable write. Failures are
// logged, never propagated: notification delivery is best-effort.
func (s *Service) publishEvent(ctx context.Context, eventType string, order *entity.Order, prevStatus, reason string) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := Event{
		Type:           eventType,
		ID:             order.ID,
		OrderID:        order.OrderID,
		UserID:         order.UserID,
		Status:         string(order.Status),
		PreviousStatus: prevStatus,
		ProjectName:    order.ProjectName,
		Reason:         reason,
		OccurredAt:     s.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal order event", zap.Error(err))
		}
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%d", order.ID)), payload); err != nil {
		if s.logger != nil {
			s.logger.Error("publish order event", zap.Error(err))
		}
	}
}

// Event is emitted when an order is created or changes status.
type Event struct {
	Type           string    `json:"type"`
	ID             int64     `json:"id"`
	OrderID        string    `json:"order_id"`
	UserID         int64     `json:"user_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	ProjectName    string    `json:"project_name"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
