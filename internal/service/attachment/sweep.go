package attachment

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	repo "github.com/makerclub/printq/internal/repository/attachment"
	auditsvc "github.com/makerclub/printq/internal/service/audit"
)

// SweepResult summarizes one retention sweep pass.
type SweepResult struct {
	OrdersScanned int
	FilesRemoved  int
	BytesFreed    int64
}

// Sweep removes attachments from orders submitted before the retention
// cutoff, whatever their current status. Progress made before a failure
// is kept; the pass is safe to re-run at any time.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	ctx, span := serviceTracer.Start(ctx, "AttachmentService.Sweep")
	defer span.End()

	var result SweepResult
	cutoff := s.now().UTC().AddDate(0, 0, -s.settings.RetentionDays(ctx))

	orders, err := s.orders.ListSubmittedBefore(ctx, cutoff)
	if err != nil {
		return result, s.sweepFailed(ctx, result, err)
	}

	for _, order := range orders {
		result.OrdersScanned++
		if len(order.Files) == 0 {
			continue
		}

		for _, ref := range order.Files {
			meta, err := s.files.GetByID(ctx, ref.ID)
			if errors.Is(err, repo.ErrNotFound) {
				continue
			}
			if err != nil {
				return result, s.sweepFailed(ctx, result, err)
			}
			if err := s.removeFile(ctx, meta); err != nil {
				return result, s.sweepFailed(ctx, result, err)
			}
			result.FilesRemoved++
			result.BytesFreed += meta.Size

			s.audit.Record(ctx, auditsvc.Entry{
				ActorID:    auditsvc.SystemActor,
				Action:     auditsvc.ActionFileDeleted,
				EntityType: auditsvc.EntityFile,
				EntityID:   meta.ID,
				Details: map[string]any{
					"file_name": meta.FileName,
					"reason":    "retention_expired",
					"order_id":  order.OrderID,
				},
			})
		}

		if err := s.orders.UpdateFiles(ctx, order.ID, nil); err != nil {
			return result, s.sweepFailed(ctx, result, err)
		}
	}

	span.SetAttributes(
		attribute.Int("sweep.orders_scanned", result.OrdersScanned),
		attribute.Int("sweep.files_removed", result.FilesRemoved),
		attribute.Int64("sweep.bytes_freed", result.BytesFreed),
	)
	s.audit.Record(ctx, auditsvc.Entry{
		ActorID:    auditsvc.SystemActor,
		Action:     auditsvc.ActionSweepCompleted,
		EntityType: auditsvc.EntitySweep,
		EntityID:   cutoff.Format("2006-01-02"),
		Details: map[string]any{
			"cutoff":         cutoff,
			"orders_scanned": result.OrdersScanned,
			"files_removed":  result.FilesRemoved,
			"bytes_freed":    result.BytesFreed,
		},
	})
	if s.logger != nil {
		s.logger.Info("retention sweep completed",
			zap.Int("orders_scanned", result.OrdersScanned),
			zap.Int("files_removed", result.FilesRemoved),
			zap.Int64("bytes_freed", result.BytesFreed),
		)
	}
	return result, nil
}

// sweepFailed records the failure alongside any partial progress and
// hands the original error back to the scheduler.
func (s *Service) sweepFailed(ctx context.Context, result SweepResult, err error) error {
	if s.logger != nil {
		s.logger.Error("retention sweep failed",
			zap.Int("orders_scanned", result.OrdersScanned),
			zap.Int("files_removed", result.FilesRemoved),
			zap.Error(err),
		)
	}
	s.audit.Record(ctx, auditsvc.Entry{
		ActorID:    auditsvc.SystemActor,
		Action:     auditsvc.ActionSweepFailed,
		EntityType: auditsvc.EntitySweep,
		EntityID:   s.now().UTC().Format("2006-01-02"),
		Details: map[string]any{
			"error":          err.Error(),
			"orders_scanned": result.OrdersScanned,
			"files_removed":  result.FilesRemoved,
		},
	})
	return err
}
