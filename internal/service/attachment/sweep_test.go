package attachment

import (
	"context"
	"testing"

	"github.com/makerclub/printq/internal/entity"
	auditrepo "github.com/makerclub/printq/internal/repository/audit"
	auditsvc "github.com/makerclub/printq/internal/service/audit"
	configsvc "github.com/makerclub/printq/internal/service/sysconfig"
)

func TestSweepRemovesExpiredAttachments(t *testing.T) {
	f := newFixture(t, entity.User{ID: 7, Role: "USER"})

	order := &entity.Order{OrderID: "#RC24001", UserID: 7, ProjectName: "P", Status: entity.StatusSubmitted, SubmittedAt: *f.clock}
	if err := f.orders.Create(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	for _, name := range []string{"a.stl", "b.stl"} {
		input := stlUpload(name, 100)
		input.OrderID = &order.ID
		if _, err := f.svc.Upload(context.Background(), uploader, input); err != nil {
			t.Fatalf("Upload %s: %v", name, err)
		}
	}

	*f.clock = f.clock.AddDate(0, 0, configsvc.DefaultRetentionDays+1)
	result, err := f.svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if result.FilesRemoved != 2 {
		t.Errorf("files removed = %d, want 2", result.FilesRemoved)
	}
	if result.BytesFreed != 200 {
		t.Errorf("bytes freed = %d, want 200", result.BytesFreed)
	}

	swept, err := f.orders.GetByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if len(swept.Files) != 0 {
		t.Errorf("order files = %d, want 0 after sweep", len(swept.Files))
	}
	if keys, _ := f.blobs.List(context.Background(), "uploads/"); len(keys) != 0 {
		t.Errorf("blobs remaining = %d, want 0", len(keys))
	}

	// One entry per deleted file plus the sweep summary.
	if n := f.auditCount(t, auditsvc.ActionFileDeleted); n != 2 {
		t.Errorf("per-file audit entries = %d, want 2", n)
	}
	if n := f.auditCount(t, auditsvc.ActionSweepCompleted); n != 1 {
		t.Errorf("summary audit entries = %d, want 1", n)
	}

	systemEntries, err := f.audits.Query(context.Background(), auditrepo.Filter{
		ActorID: ptr(auditsvc.SystemActor),
		Action:  auditsvc.ActionFileDeleted,
	}, 0)
	if err != nil {
		t.Fatalf("query audit trail: %v", err)
	}
	if len(systemEntries) != 2 {
		t.Errorf("system-actor delete entries = %d, want 2", len(systemEntries))
	}
}

func TestSweepLeavesRecentOrdersAlone(t *testing.T) {
	f := newFixture(t, entity.User{ID: 7, Role: "USER"})

	order := &entity.Order{OrderID: "#RC24001", UserID: 7, ProjectName: "P", Status: entity.StatusSubmitted, SubmittedAt: *f.clock}
	if err := f.orders.Create(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	input := stlUpload("a.stl", 100)
	input.OrderID = &order.ID
	if _, err := f.svc.Upload(context.Background(), uploader, input); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	result, err := f.svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if result.FilesRemoved != 0 {
		t.Errorf("files removed = %d, want 0", result.FilesRemoved)
	}

	kept, err := f.orders.GetByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if len(kept.Files) != 1 {
		t.Errorf("order files = %d, want 1", len(kept.Files))
	}
}

func TestSweepIsSafeToRerun(t *testing.T) {
	f := newFixture(t, entity.User{ID: 7, Role: "USER"})

	order := &entity.Order{OrderID: "#RC24001", UserID: 7, ProjectName: "P", Status: entity.StatusSubmitted, SubmittedAt: *f.clock}
	if err := f.orders.Create(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	input := stlUpload("a.stl", 100)
	input.OrderID = &order.ID
	if _, err := f.svc.Upload(context.Background(), uploader, input); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	*f.clock = f.clock.AddDate(0, 0, configsvc.DefaultRetentionDays+1)
	if _, err := f.svc.Sweep(context.Background()); err != nil {
		t.Fatalf("first Sweep: %v", err)
	}
	second, err := f.svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	if second.FilesRemoved != 0 {
		t.Errorf("second sweep removed %d files, want 0", second.FilesRemoved)
	}
}

func ptr[T any](v T) *T { return &v }
