package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/makerclub/printq/internal/entity"
	"github.com/makerclub/printq/internal/identity"
	"github.com/makerclub/printq/internal/objectstore"
	repo "github.com/makerclub/printq/internal/repository/attachment"
	orderrepo "github.com/makerclub/printq/internal/repository/order"
	userrepo "github.com/makerclub/printq/internal/repository/user"
	auditsvc "github.com/makerclub/printq/internal/service/audit"
	configsvc "github.com/makerclub/printq/internal/service/sysconfig"
	"github.com/makerclub/printq/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/makerclub/printq/service/attachment")

// Service is the attachment manager: it couples uploaded blobs to orders,
// enforces the upload policy, and expires files past the retention window.
type Service struct {
	files    repo.Store
	orders   orderrepo.Store
	users    userrepo.Store
	blobs    objectstore.Store
	settings *configsvc.Service
	audit    *auditsvc.Service
	logger   *zap.Logger
	now      func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Files    repo.Store
	Orders   orderrepo.Store
	Users    userrepo.Store
	Blobs    objectstore.Store
	Settings *configsvc.Service
	Audit    *auditsvc.Service
	Logger   *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		files:    p.Files,
		orders:   p.Orders,
		users:    p.Users,
		blobs:    p.Blobs,
		settings: p.Settings,
		audit:    p.Audit,
		logger:   p.Logger,
		now:      time.Now,
	}
}

// UploadInput describes one incoming file.
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
	OrderID     *int64
}

// Upload validates and stores a file, returning its metadata. When an
// order id is given the file is appended to that order's file list.
func (s *Service) Upload(ctx context.Context, principal identity.Principal, input UploadInput) (*entity.FileMetadata, error) {
	ctx, span := serviceTracer.Start(ctx, "AttachmentService.Upload", trace.WithAttributes(
		attribute.String("file.name", input.FileName),
		attribute.Int64("file.size", input.Size),
	))
	defer span.End()

	if !principal.CanMutate() {
		return nil, errorbank.PermissionDenied("read-only principals cannot upload files")
	}
	if input.FileName == "" || input.Body == nil {
		return nil, errorbank.BadRequest("file name and content are required")
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(input.FileName)), ".")
	if !extAllowed(ext, s.settings.AllowedExtensions(ctx)) {
		return nil, errorbank.BadRequest(
			fmt.Sprintf("file type %q is not allowed", ext),
			errorbank.WithDetail("extension", ext),
		)
	}
	if maxSize := s.settings.MaxFileSizeBytes(ctx); input.Size > maxSize {
		return nil, errorbank.BadRequest(
			fmt.Sprintf("file exceeds maximum size of %d bytes", maxSize),
			errorbank.WithDetail("size", input.Size),
		)
	}

	u, err := s.users.GetByID(ctx, principal.ID)
	if err != nil && !errors.Is(err, userrepo.ErrNotFound) {
		return nil, errorbank.Internal("failed to load uploader", errorbank.WithCause(err))
	}
	if u != nil {
		if max := s.settings.MaxUploadFiles(ctx); u.FilesUsed >= max {
			return nil, errorbank.QuotaExceeded(fmt.Sprintf("upload quota of %d files exhausted", max))
		}
	}

	var order *entity.Order
	if input.OrderID != nil {
		order, err = s.orders.GetByID(ctx, *input.OrderID)
		if err != nil {
			if errors.Is(err, orderrepo.ErrNotFound) {
				return nil, errorbank.NotFound("order not found")
			}
			return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
		}
		if !principal.Staff() && principal.ID != order.UserID {
			return nil, errorbank.PermissionDenied("cannot attach files to another user's order")
		}
	}

	now := s.now().UTC()
	id := uuid.NewString()
	key := s.storageKey(principal.ID, input.OrderID, id, input.FileName)

	if err := s.blobs.Put(ctx, key, input.Body, input.Size, input.ContentType); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "blob write failed")
		return nil, errorbank.Internal("failed to store file", errorbank.WithCause(err))
	}

	retention := s.settings.RetentionDays(ctx)
	meta := &entity.FileMetadata{
		ID:          id,
		FileName:    input.FileName,
		ContentType: input.ContentType,
		Size:        input.Size,
		UploadedBy:  principal.ID,
		OrderID:     input.OrderID,
		StorageKey:  key,
		CreatedAt:   now,
		ExpiresAt:   now.AddDate(0, 0, retention),
	}
	if err := s.files.Create(ctx, meta); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		// Best effort: do not leave an orphaned blob behind.
		if delErr := s.blobs.Delete(ctx, key); delErr != nil && s.logger != nil {
			s.logger.Warn("failed to clean up blob after metadata error", zap.String("key", key), zap.Error(delErr))
		}
		return nil, errorbank.Internal("failed to store file metadata", errorbank.WithCause(err))
	}

	if order != nil {
		if err := s.orders.UpdateFiles(ctx, order.ID, append(order.Files, meta.Ref())); err != nil && s.logger != nil {
			s.logger.Warn("failed to append file to order list", zap.Int64("order_id", order.ID), zap.Error(err))
		}
	}

	s.audit.Record(ctx, auditsvc.Entry{
		ActorID:    principal.ID,
		Action:     auditsvc.ActionFileUploaded,
		EntityType: auditsvc.EntityFile,
		EntityID:   meta.ID,
		Details: map[string]any{
			"file_name": meta.FileName,
			"size":      meta.Size,
		},
	})
	return meta, nil
}

// GetMetadata returns file metadata regardless of expiry.
func (s *Service) GetMetadata(ctx context.Context, principal identity.Principal, id string) (*entity.FileMetadata, error) {
	meta, err := s.getOwned(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// Download streams a file's bytes. Files past their retention window
// produce an expired error, distinct from not-found.
func (s *Service) Download(ctx context.Context, principal identity.Principal, id string) (io.ReadCloser, *entity.FileMetadata, error) {
	ctx, span := serviceTracer.Start(ctx, "AttachmentService.Download", trace.WithAttributes(attribute.String("file.id", id)))
	defer span.End()

	meta, err := s.getOwned(ctx, principal, id)
	if err != nil {
		return nil, nil, err
	}
	if meta.Expired(s.now().UTC()) {
		return nil, nil, errorbank.Expired(
			"file is past its retention window and is no longer available",
			errorbank.WithDetail("expired_at", meta.ExpiresAt),
		)
	}

	body, _, err := s.blobs.Get(ctx, meta.StorageKey)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return nil, nil, errorbank.NotFound("file content not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "blob read failed")
		return nil, nil, errorbank.Internal("failed to read file", errorbank.WithCause(err))
	}

	s.audit.Record(ctx, auditsvc.Entry{
		ActorID:    principal.ID,
		Action:     auditsvc.ActionFileDownloaded,
		EntityType: auditsvc.EntityFile,
		EntityID:   meta.ID,
		Details:    map[string]any{"file_name": meta.FileName},
	})
	return body, meta, nil
}

// Delete removes a file's blob and metadata, and detaches it from its
// order when linked. Deleting an absent id is a quiet no-op, so retries
// are safe and leave no duplicate audit entries.
func (s *Service) Delete(ctx context.Context, principal identity.Principal, id string) error {
	ctx, span := serviceTracer.Start(ctx, "AttachmentService.Delete", trace.WithAttributes(attribute.String("file.id", id)))
	defer span.End()

	meta, err := s.files.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errorbank.Internal("failed to load file", errorbank.WithCause(err))
	}
	if !principal.Staff() && principal.ID != meta.UploadedBy {
		return errorbank.PermissionDenied("cannot delete another user's file")
	}

	if err := s.removeFile(ctx, meta); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}

	s.audit.Record(ctx, auditsvc.Entry{
		ActorID:    principal.ID,
		Action:     auditsvc.ActionFileDeleted,
		EntityType: auditsvc.EntityFile,
		EntityID:   meta.ID,
		Details:    map[string]any{"file_name": meta.FileName},
	})
	return nil
}

// ListByOrder returns the metadata of files attached to an order.
func (s *Service) ListByOrder(ctx context.Context, principal identity.Principal, orderID int64) ([]entity.FileMetadata, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	if !principal.CanViewOrder(order) {
		return nil, errorbank.PermissionDenied("cannot view another user's order")
	}
	files, err := s.files.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, errorbank.Internal("failed to list files", errorbank.WithCause(err))
	}
	return files, nil
}

// removeFile deletes blob then metadata, and prunes the owning order's
// denormalized file list. Each step is individually idempotent.
func (s *Service) removeFile(ctx context.Context, meta *entity.FileMetadata) error {
	if err := s.blobs.Delete(ctx, meta.StorageKey); err != nil {
		return errorbank.Internal("failed to delete file content", errorbank.WithCause(err))
	}
	if _, err := s.files.Delete(ctx, meta.ID); err != nil {
		return errorbank.Internal("failed to delete file metadata", errorbank.WithCause(err))
	}
	if meta.OrderID == nil {
		return nil
	}

	order, err := s.orders.GetByID(ctx, *meta.OrderID)
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return nil
		}
		return errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	kept := order.Files[:0:0]
	for _, ref := range order.Files {
		if ref.ID != meta.ID {
			kept = append(kept, ref)
		}
	}
	if len(kept) == len(order.Files) {
		return nil
	}
	if err := s.orders.UpdateFiles(ctx, order.ID, kept); err != nil {
		return errorbank.Internal("failed to prune order file list", errorbank.WithCause(err))
	}
	return nil
}

func (s *Service) getOwned(ctx context.Context, principal identity.Principal, id string) (*entity.FileMetadata, error) {
	meta, err := s.files.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("file not found")
		}
		return nil, errorbank.Internal("failed to load file", errorbank.WithCause(err))
	}
	if !principal.Staff() && principal.ID != meta.UploadedBy {
		return nil, errorbank.PermissionDenied("cannot access another user's file")
	}
	return meta, nil
}

// storageKey namespaces blobs by uploader and order, with a random file id
// segment so concurrent uploads of the same name never collide.
func (s *Service) storageKey(uploaderID int64, orderID *int64, fileID, fileName string) string {
	scope := "unassigned"
	if orderID != nil {
		scope = fmt.Sprintf("order-%d", *orderID)
	}
	return path.Join("uploads", fmt.Sprintf("%d", uploaderID), scope, fileID+"-"+safeFileName(fileName))
}

func safeFileName(name string) string {
	name = path.Base(filepath.ToSlash(name))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		return "upload"
	}
	return name
}

func extAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}
