package audit

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/makerclub/printq/internal/entity"
	repo "github.com/makerclub/printq/internal/repository/audit"
	"github.com/makerclub/printq/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/makerclub/printq/service/audit")

// Action names recorded by the core services. Tests assert against these.
const (
	ActionOrderSubmitted     = "order_submitted"
	ActionOrderStatusChanged = "order_status_changed"
	ActionOrderUpdated       = "order_updated"
	ActionFileUploaded       = "file_uploaded"
	ActionFileDownloaded     = "file_downloaded"
	ActionFileDeleted        = "file_deleted"
	ActionBatchCreated       = "batch_created"
	ActionBatchApproved      = "batch_approved"
	ActionBatchStarted       = "batch_started"
	ActionBatchCompleted     = "batch_completed"
	ActionConfigUpdated      = "config_updated"
	ActionSweepCompleted     = "retention_sweep_completed"
	ActionSweepFailed        = "retention_sweep_failed"
)

// Entity types referenced by audit entries.
const (
	EntityOrder  = "order"
	EntityFile   = "file"
	EntityBatch  = "batch"
	EntityConfig = "system_config"
	EntitySweep  = "retention_sweep"
)

// SystemActor marks entries written by scheduled jobs rather than a person.
const SystemActor int64 = 0

// Entry is one state-changing action to be appended to the trail.
type Entry struct {
	ActorID    int64
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
	Reason     string
}

// Service appends to and queries the audit trail.
type Service struct {
	store  repo.Store
	logger *zap.Logger
}

// NewService wires a new audit Service.
func NewService(store repo.Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Record appends an entry. Failures are logged and swallowed: the audit
// trail is best-effort durable and must never roll back the operation it
// describes.
func (s *Service) Record(ctx context.Context, e Entry) {
	ctx, span := serviceTracer.Start(ctx, "AuditService.Record", trace.WithAttributes(
		attribute.String("audit.action", e.Action),
		attribute.String("audit.entity_id", e.EntityID),
	))
	defer span.End()

	entry := &entity.AuditLog{
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    e.Details,
		Reason:     e.Reason,
	}
	if err := s.store.Insert(ctx, entry); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		if s.logger != nil {
			s.logger.Error("audit write failed",
				zap.String("action", e.Action),
				zap.String("entity_id", e.EntityID),
				zap.Error(err),
			)
		}
	}
}

// Query returns matching entries sorted by time descending.
func (s *Service) Query(ctx context.Context, filter repo.Filter, limit int) ([]entity.AuditLog, error) {
	ctx, span := serviceTracer.Start(ctx, "AuditService.Query")
	defer span.End()

	entries, err := s.store.Query(ctx, filter, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to query audit trail", errorbank.WithCause(err))
	}
	return entries, nil
}
