package attachment

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/makerclub/printq/internal/cache"
	"github.com/makerclub/printq/internal/config"
	"github.com/makerclub/printq/internal/entity"
	"github.com/makerclub/printq/internal/identity"
	"github.com/makerclub/printq/internal/objectstore"
	attachmentrepo "github.com/makerclub/printq/internal/repository/attachment"
	auditrepo "github.com/makerclub/printq/internal/repository/audit"
	orderrepo "github.com/makerclub/printq/internal/repository/order"
	sysconfigrepo "github.com/makerclub/printq/internal/repository/sysconfig"
	userrepo "github.com/makerclub/printq/internal/repository/user"
	auditsvc "github.com/makerclub/printq/internal/service/audit"
	configsvc "github.com/makerclub/printq/internal/service/sysconfig"
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

type fixture struct {
	svc    *Service
	files  *attachmentrepo.Memory
	orders *orderrepo.Memory
	blobs  *objectstore.Memory
	audits *auditrepo.Memory
	clock  *time.Time
}

func newFixture(t *testing.T, users ...entity.User) *fixture {
	t.Helper()

	files := attachmentrepo.NewMemory()
	orders := orderrepo.NewMemory()
	blobs := objectstore.NewMemory()
	audits := auditrepo.NewMemory()
	logger := zap.NewNop()

	auditSvc := auditsvc.NewService(audits, logger)
	settings := configsvc.NewService(configsvc.Params{
		Store:  sysconfigrepo.NewMemory(),
		Cache:  newMemoryCache(),
		Config: config.Config{},
		Audit:  auditSvc,
		Logger: logger,
	})

	svc := NewService(Params{
		Files:    files,
		Orders:   orders,
		Users:    userrepo.NewMemory(users...),
		Blobs:    blobs,
		Settings: settings,
		Audit:    auditSvc,
		Logger:   logger,
	})

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &fixture{svc: svc, files: files, orders: orders, blobs: blobs, audits: audits, clock: &now}
}

func (f *fixture) auditCount(t *testing.T, action string) int {
	t.Helper()
	logs, err := f.audits.Query(context.Background(), auditrepo.Filter{Action: action}, 0)
	if err != nil {
		t.Fatalf("query audit trail: %v", err)
	}
	return len(logs)
}

var (
	uploader = identity.Principal{ID: 7, Email: "member@club.test", Role: identity.RoleUser}
	staff    = identity.Principal{ID: 1, Email: "admin@club.test", Role: identity.RoleAdmin}
)

func stlUpload(name string, size int) UploadInput {
	return UploadInput{
		FileName:    name,
		ContentType: "model/stl",
		Size:        int64(size),
		Body:        bytes.NewReader(bytes.Repeat([]byte("a"), size)),
	}
}

func TestUploadRoundtrip(t *testing.T) {
	f := newFixture(t, entity.User{ID: 7, Role: "USER"})

	meta, err := f.svc.Upload(context.Background(), uploader, stlUpload("part.stl", 1024))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if meta.ID == "" {
		t.Fatal("expected a generated file id")
	}
	wantExpiry := f.clock.AddDate(0, 0, configsvc.DefaultRetentionDays)
	if !meta.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expires at = %v, want %v", meta.ExpiresAt, wantExpiry)
	}

	body, got, err := f.svc.Download(context.Background(), uploader, meta.ID)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(data) != 1024 || got.FileName != "part.stl" {
		t.Errorf("downloaded %d bytes of %q, want 1024 of part.stl", len(data), got.FileName)
	}

	if n := f.auditCount(t, auditsvc.ActionFileUploaded); n != 1 {
		t.Errorf("upload audit entries = %d, want 1", n)
	}
	if n := f.auditCount(t, auditsvc.ActionFileDownloaded); n != 1 {
		t.Errorf("download audit entries = %d, want 1", n)
	}
}

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	f := newFixture(t, entity.User{ID: 7, Role: "USER"})

	_, err := f.svc.Upload(context.Background(), uploader, stlUpload("malware.exe", 10))
	if !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Fatalf("err = %v, want bad request", err)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	f := newFixture(t, entity.User{ID: 7, Role: "USER"})

	input := stlUpload("huge.stl", 10)
	input.Size = configsvc.DefaultMaxFileSizeBytes + 1
	_, err := f.svc.Upload(context.Background(), uploader, input)
	if !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Fatalf("err = %v, want bad request", err)
	}
}

func TestUploadEnforcesQuota(t *testing.T) {
	f := newFixture(t, entity.User{ID: 7, Role: "USER", FilesUsed: configsvc.DefaultMaxUploadFiles})

	_, err := f.svc.Upload(context.Background(), uploader, stlUpload("part.stl", 10))
	if !errorbank.IsKind(err, errorbank.KindQuotaExceeded) {
		t.Fatalf("err = %v, want quota exceeded", err)
	}
}

func TestDownloadExpiredFileIsDistinctFromMissing(t *testing.T) {
	f := newFixture(t, entity.User{ID: 7, Role: "USER"})

	meta, err := f.svc.Upload(context.Background(), uploader, stlUpload("part.stl", 10))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	*f.clock = f.clock.AddDate(0, 0, configsvc.DefaultRetentionDays+1)
	_, _, err = f.svc.Download(context.Background(), uploader, meta.ID)
	if !errorbank.IsKind(err, errorbank.KindExpired) {
		t.Fatalf("err = %v, want expired", err)
	}

	// Metadata stays readable past expiry.
	if _, err := f.svc.GetMetadata(context.Background(), uploader, meta.ID); err != nil {
		t.Fatalf("GetMetadata after expiry: %v", err)
	}

	_, _, err = f.svc.Download(context.Background(), uploader, "no-such-id")
	if !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestDownloadDeniesOtherUsersFile(t *testing.T) {
	f := newFixture(t, entity.User{ID: 7, Role: "USER"})

	meta, err := f.svc.Upload(context.Background(), uploader, stlUpload("part.stl", 10))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	other := identity.Principal{ID: 8, Role: identity.RoleUser}
	_, _, err = f.svc.Download(context.Background(), other, meta.ID)
	if !errorbank.IsKind(err, errorbank.KindPermissionDenied) {
		t.Fatalf("err = %v, want permission denied", err)
	}
}

func TestUploadDeniesAttachingToOtherUsersOrder(t *testing.T) {
	f := newFixture(t, entity.User{ID: 7, Role: "USER"}, entity.User{ID: 8, Role: "USER"})

	order := &entity.Order{OrderID: "#RC24001", UserID: 7, ProjectName: "P", Status: entity.StatusSubmitted, SubmittedAt: *f.clock}
	if err := f.orders.Create(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}

	stranger := identity.Principal{ID: 8, Role: identity.RoleUser}
	input := stlUpload("sneaky.stl", 10)
	input.OrderID = &order.ID
	if _, err := f.svc.Upload(context.Background(), stranger, input); !errorbank.IsKind(err, errorbank.KindPermissionDenied) {
		t.Fatalf("err = %v, want permission denied", err)
	}

	kept, err := f.orders.GetByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if len(kept.Files) != 0 {
		t.Fatalf("order files = %d, want 0 after denied upload", len(kept.Files))
	}

	// Staff may attach on a member's behalf.
	input = stlUpload("approved.stl", 10)
	input.OrderID = &order.ID
	if _, err := f.svc.Upload(context.Background(), staff, input); err != nil {
		t.Fatalf("staff Upload: %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	f := newFixture(t, entity.User{ID: 7, Role: "USER"})

	meta, err := f.svc.Upload(context.Background(), uploader, stlUpload("part.stl", 10))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := f.svc.Delete(context.Background(), uploader, meta.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := f.svc.Delete(context.Background(), uploader, meta.ID); err != nil {
		t.Fatalf("repeat Delete: %v", err)
	}

	// Only the delete that removed something leaves a trail.
	if n := f.auditCount(t, auditsvc.ActionFileDeleted); n != 1 {
		t.Errorf("delete audit entries = %d, want 1", n)
	}
	if _, err := f.blobs.Stat(context.Background(), meta.StorageKey); err == nil {
		t.Error("blob should be gone after delete")
	}
}

func TestDeletePrunesOrderFileList(t *testing.T) {
	f := newFixture(t, entity.User{ID: 7, Role: "USER"})

	order := &entity.Order{OrderID: "#RC24001", UserID: 7, ProjectName: "P", Status: entity.StatusSubmitted, SubmittedAt: *f.clock}
	if err := f.orders.Create(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}

	input := stlUpload("part.stl", 10)
	input.OrderID = &order.ID
	meta, err := f.svc.Upload(context.Background(), uploader, input)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	linked, err := f.orders.GetByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if len(linked.Files) != 1 {
		t.Fatalf("order files = %d, want 1 after upload", len(linked.Files))
	}

	if err := f.svc.Delete(context.Background(), uploader, meta.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	pruned, err := f.orders.GetByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if len(pruned.Files) != 0 {
		t.Fatalf("order files = %d, want 0 after delete", len(pruned.Files))
	}
}

func TestListByOrder(t *testing.T) {
	f := newFixture(t, entity.User{ID: 7, Role: "USER"})

	order := &entity.Order{OrderID: "#RC24001", UserID: 7, ProjectName: "P", Status: entity.StatusSubmitted, SubmittedAt: *f.clock}
	if err := f.orders.Create(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	for _, name := range []string{"a.stl", "b.stl"} {
		input := stlUpload(name, 10)
		input.OrderID = &order.ID
		if _, err := f.svc.Upload(context.Background(), uploader, input); err != nil {
			t.Fatalf("Upload %s: %v", name, err)
		}
	}

	files, err := f.svc.ListByOrder(context.Background(), staff, order.ID)
	if err != nil {
		t.Fatalf("ListByOrder: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %d, want 2", len(files))
	}
}

func TestUploadKeysNeverCollide(t *testing.T) {
	f := newFixture(t, entity.User{ID: 7, Role: "USER"})

	first, err := f.svc.Upload(context.Background(), uploader, stlUpload("part.stl", 10))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	second, err := f.svc.Upload(context.Background(), uploader, stlUpload("part.stl", 10))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if first.StorageKey == second.StorageKey {
		t.Fatalf("same storage key for two uploads: %q", first.StorageKey)
	}
	if !strings.HasPrefix(first.StorageKey, "uploads/7/") {
		t.Errorf("storage key %q not namespaced by uploader", first.StorageKey)
	}
}
