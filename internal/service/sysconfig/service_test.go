package sysconfig

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/makerclub/printq/internal/cache"
	"github.com/makerclub/printq/internal/config"
	"github.com/makerclub/printq/internal/identity"
	auditrepo "github.com/makerclub/printq/internal/repository/audit"
	repo "github.com/makerclub/printq/internal/repository/sysconfig"
	auditsvc "github.com/makerclub/printq/internal/service/audit"
	"github.com/makerclub/printq/pkg/errorbank"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

var superadmin = identity.Principal{ID: 1, Email: "root@club.test", Role: identity.RoleSuperAdmin}

func newService(t *testing.T) (*Service, *auditrepo.Memory) {
	t.Helper()
	audits := auditrepo.NewMemory()
	logger := zap.NewNop()
	svc := NewService(Params{
		Store:  repo.NewMemory(),
		Cache:  newMemoryCache(),
		Config: config.Config{},
		Audit:  auditsvc.NewService(audits, logger),
		Logger: logger,
	})
	return svc, audits
}

func TestGetFallsBackToDefaults(t *testing.T) {
	svc, _ := newService(t)

	if got := svc.RetentionDays(context.Background()); got != DefaultRetentionDays {
		t.Errorf("retention = %d, want %d", got, DefaultRetentionDays)
	}
	if got := svc.MaxUploadFiles(context.Background()); got != DefaultMaxUploadFiles {
		t.Errorf("quota = %d, want %d", got, DefaultMaxUploadFiles)
	}
	if got := svc.MaxFileSizeBytes(context.Background()); got != DefaultMaxFileSizeBytes {
		t.Errorf("max size = %d, want %d", got, DefaultMaxFileSizeBytes)
	}
	if got := svc.AllowedExtensions(context.Background()); len(got) != len(DefaultAllowedExtensions) {
		t.Errorf("extensions = %v, want %v", got, DefaultAllowedExtensions)
	}
}

func TestGetUnknownKeyIsNotFound(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Get(context.Background(), "no_such_setting")
	if !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestSetThenGetRoundtrip(t *testing.T) {
	svc, audits := newService(t)

	if err := svc.Set(context.Background(), superadmin, KeyRetentionDays, json.RawMessage(`14`), "shorter window"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := svc.RetentionDays(context.Background()); got != 14 {
		t.Errorf("retention = %d, want 14", got)
	}

	logs, err := audits.Query(context.Background(), auditrepo.Filter{Action: auditsvc.ActionConfigUpdated}, 0)
	if err != nil {
		t.Fatalf("query audit trail: %v", err)
	}
	if len(logs) != 1 || logs[0].EntityID != KeyRetentionDays {
		t.Fatalf("audit entries = %+v, want one for %s", logs, KeyRetentionDays)
	}
}

func TestSetRequiresSuperAdmin(t *testing.T) {
	svc, _ := newService(t)

	adminOnly := identity.Principal{ID: 2, Role: identity.RoleAdmin}
	err := svc.Set(context.Background(), adminOnly, KeyRetentionDays, json.RawMessage(`7`), "")
	if !errorbank.IsKind(err, errorbank.KindPermissionDenied) {
		t.Fatalf("err = %v, want permission denied", err)
	}
}

func TestSetRejectsInvalidJSON(t *testing.T) {
	svc, _ := newService(t)

	err := svc.Set(context.Background(), superadmin, KeyRetentionDays, json.RawMessage(`{not json`), "")
	if !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Fatalf("err = %v, want bad request", err)
	}
}

func TestMalformedValueFallsBackToDefault(t *testing.T) {
	svc, _ := newService(t)

	if err := svc.Set(context.Background(), superadmin, KeyRetentionDays, json.RawMessage(`"not-a-number"`), ""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := svc.RetentionDays(context.Background()); got != DefaultRetentionDays {
		t.Errorf("retention = %d, want default %d for malformed value", got, DefaultRetentionDays)
	}
}

func TestNonPositiveSettingsFallBack(t *testing.T) {
	svc, _ := newService(t)

	if err := svc.Set(context.Background(), superadmin, KeyMaxUploadFiles, json.RawMessage(`-3`), ""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := svc.MaxUploadFiles(context.Background()); got != DefaultMaxUploadFiles {
		t.Errorf("quota = %d, want default %d for negative value", got, DefaultMaxUploadFiles)
	}
}

func TestGetAllReturnsStoredRows(t *testing.T) {
	svc, _ := newService(t)

	if err := svc.Set(context.Background(), superadmin, KeyRetentionDays, json.RawMessage(`7`), ""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := svc.Set(context.Background(), superadmin, KeyMaxUploadFiles, json.RawMessage(`5`), ""); err != nil {
		t.Fatalf("Set: %v", err)
	}

	rows, err := svc.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
}
