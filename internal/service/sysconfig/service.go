package sysconfig

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

	"github.com/makerclub/printq/internal/cache"
	"github.com/makerclub/printq/internal/config"
	"github.com/makerclub/printq/internal/entity"
	"github.com/makerclub/printq/internal/identity"
	repo "github.com/makerclub/printq/internal/repository/sysconfig"
	auditsvc "github.com/makerclub/printq/internal/service/audit"
	"github.com/makerclub/printq/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/makerclub/printq/service/sysconfig")

// Well-known setting keys.
const (
	KeyRetentionDays     = "retention_days"
	KeyMaxUploadFiles    = "max_upload_files"
	KeyMaxFileSizeBytes  = "max_file_size_bytes"
	KeyAllowedExtensions = "allowed_file_extensions"
)

// Hard-coded fallbacks used when a row is absent or malformed.
const (
	DefaultRetentionDays    = 30
	DefaultMaxUploadFiles   = 10
	DefaultMaxFileSizeBytes = int64(50 << 20)
)

// DefaultAllowedExtensions is the model-file allow-list used when no row
// overrides it.
var DefaultAllowedExtensions = []string{"stl", "obj", "3mf", "gcode"}

// Service reads and writes key/value system settings, caching reads.
type Service struct {
	store    repo.Store
	cache    cache.Store
	cacheTTL time.Duration
	audit    *auditsvc.Service
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store  repo.Store
	Cache  cache.Store
	Config config.Config
	Audit  *auditsvc.Service
	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:    p.Store,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.DefaultTTL,
		audit:    p.Audit,
		logger:   p.Logger,
	}
}

// Get returns the raw JSON value for key, falling back to the hard-coded
// default when no row exists. Unknown keys without a row yield NotFound.
func (s *Service) Get(ctx context.Context, key string) (json.RawMessage, error) {
	ctx, span := serviceTracer.Start(ctx, "SysConfigService.Get", trace.WithAttributes(attribute.String("config.key", key)))
	defer span.End()

	if raw, err := s.getFromCache(ctx, key); err == nil {
		return raw, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		if s.logger != nil {
			s.logger.Warn("config cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	row, err := s.store.Get(ctx, key)
	if errors.Is(err, repo.ErrNotFound) {
		if raw, ok := defaultValue(key); ok {
			return raw, nil
		}
		return nil, errorbank.NotFound(fmt.Sprintf("no setting for key %q", key))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load setting", errorbank.WithCause(err))
	}

	s.storeInCache(ctx, key, row.Value)
	return row.Value, nil
}

// Set upserts a setting, records an audit entry, and invalidates the cache.
func (s *Service) Set(ctx context.Context, actor identity.Principal, key string, value json.RawMessage, description string) error {
	if !actor.CanEditConfig() {
		return errorbank.PermissionDenied("only superadmins can change system settings")
	}
	if key == "" {
		return errorbank.BadRequest("setting key is required")
	}
	if !json.Valid(value) {
		return errorbank.BadRequest("setting value must be valid JSON", errorbank.WithDetail("key", key))
	}
	ctx, span := serviceTracer.Start(ctx, "SysConfigService.Set", trace.WithAttributes(attribute.String("config.key", key)))
	defer span.End()

	row := &entity.SystemConfig{
		Key:         key,
		Value:       value,
		Description: description,
		UpdatedBy:   actor.ID,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.store.Upsert(ctx, row); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to store setting", errorbank.WithCause(err))
	}

	if err := s.cache.Delete(ctx, s.cacheKey(key)); err != nil && s.logger != nil {
		s.logger.Warn("config cache invalidation failed", zap.String("key", key), zap.Error(err))
	}

	s.audit.Record(ctx, auditsvc.Entry{
		ActorID:    actor.ID,
		Action:     auditsvc.ActionConfigUpdated,
		EntityType: auditsvc.EntityConfig,
		EntityID:   key,
		Details:    map[string]any{"value": json.RawMessage(value)},
	})
	return nil
}

// GetAll returns every stored setting row.
func (s *Service) GetAll(ctx context.Context) ([]entity.SystemConfig, error) {
	rows, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, errorbank.Internal("failed to list settings", errorbank.WithCause(err))
	}
	return rows, nil
}

// RetentionDays returns the file retention window, defaulting when the row
// is absent or not a positive number.
func (s *Service) RetentionDays(ctx context.Context) int {
	n := s.intSetting(ctx, KeyRetentionDays, DefaultRetentionDays)
	if n <= 0 {
		return DefaultRetentionDays
	}
	return n
}

// MaxUploadFiles returns the per-user lifetime file quota.
func (s *Service) MaxUploadFiles(ctx context.Context) int {
	n := s.intSetting(ctx, KeyMaxUploadFiles, DefaultMaxUploadFiles)
	if n <= 0 {
		return DefaultMaxUploadFiles
	}
	return n
}

// MaxFileSizeBytes returns the upload size ceiling.
func (s *Service) MaxFileSizeBytes(ctx context.Context) int64 {
	raw, err := s.Get(ctx, KeyMaxFileSizeBytes)
	if err != nil {
		return DefaultMaxFileSizeBytes
	}
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil || v <= 0 {
		return DefaultMaxFileSizeBytes
	}
	return v
}

// AllowedExtensions returns the lower-case model-file extension allow-list.
func (s *Service) AllowedExtensions(ctx context.Context) []string {
	raw, err := s.Get(ctx, KeyAllowedExtensions)
	if err != nil {
		return DefaultAllowedExtensions
	}
	var exts []string
	if err := json.Unmarshal(raw, &exts); err != nil || len(exts) == 0 {
		return DefaultAllowedExtensions
	}
	return exts
}

func (s *Service) intSetting(ctx context.Context, key string, fallback int) int {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return fallback
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		if s.logger != nil {
			s.logger.Warn("malformed setting; using default", zap.String("key", key))
		}
		return fallback
	}
	return v
}

func (s *Service) cacheKey(key string) string {
	return "sysconfig:" + key
}

func (s *Service) getFromCache(ctx context.Context, key string) (json.RawMessage, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	return s.cache.Get(ctx, s.cacheKey(key))
}

func (s *Service) storeInCache(ctx context.Context, key string, raw json.RawMessage) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(key), raw, s.cacheTTL); err != nil && s.logger != nil {
		s.logger.Warn("config cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func defaultValue(key string) (json.RawMessage, bool) {
	var v any
	switch key {
	case KeyRetentionDays:
		v = DefaultRetentionDays
	case KeyMaxUploadFiles:
		v = DefaultMaxUploadFiles
	case KeyMaxFileSizeBytes:
		v = DefaultMaxFileSizeBytes
	case KeyAllowedExtensions:
		v = DefaultAllowedExtensions
	default:
		return nil, false
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return raw, true
}
