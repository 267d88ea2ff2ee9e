package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/makerclub/printq/internal/entity"
	repo "github.com/makerclub/printq/internal/repository/audit"
)

func TestRecordAppendsEntry(t *testing.T) {
	store := repo.NewMemory()
	svc := NewService(store, zap.NewNop())

	svc.Record(context.Background(), Entry{
		ActorID:    7,
		Action:     ActionOrderSubmitted,
		EntityType: EntityOrder,
		EntityID:   "#RC24001",
		Details:    map[string]any{"project_name": "Chassis"},
	})

	logs, err := svc.Query(context.Background(), repo.Filter{EntityID: "#RC24001"}, 0)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("entries = %d, want 1", len(logs))
	}
	if logs[0].Action != ActionOrderSubmitted || logs[0].ActorID != 7 {
		t.Errorf("entry = %+v", logs[0])
	}
	if logs[0].CreatedAt.IsZero() {
		t.Error("recorded entry has no timestamp")
	}

	// Time-range filters must see recorded entries.
	from := logs[0].CreatedAt.Add(-time.Minute)
	ranged, err := svc.Query(context.Background(), repo.Filter{From: &from}, 0)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(ranged) != 1 {
		t.Fatalf("ranged entries = %d, want 1", len(ranged))
	}
}

type failingStore struct{}

func (failingStore) Insert(context.Context, *entity.AuditLog) error {
	return errors.New("audit table unavailable")
}

func (failingStore) Query(context.Context, repo.Filter, int) ([]entity.AuditLog, error) {
	return nil, errors.New("audit table unavailable")
}

func TestRecordIsBestEffort(t *testing.T) {
	svc := NewService(failingStore{}, zap.NewNop())

	// A failing store must not panic or propagate; the primary operation
	// already committed.
	svc.Record(context.Background(), Entry{
		ActorID:    7,
		Action:     ActionOrderSubmitted,
		EntityType: EntityOrder,
		EntityID:   "#RC24001",
	})
}

func TestQueryFiltersAndOrdering(t *testing.T) {
	store := repo.NewMemory()
	svc := NewService(store, zap.NewNop())

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	seed := []entity.AuditLog{
		{ActorID: 1, Action: ActionOrderSubmitted, EntityType: EntityOrder, EntityID: "#RC24001", CreatedAt: base},
		{ActorID: 1, Action: ActionOrderStatusChanged, EntityType: EntityOrder, EntityID: "#RC24001", CreatedAt: base.Add(time.Hour)},
		{ActorID: 2, Action: ActionFileUploaded, EntityType: EntityFile, EntityID: "f1", CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range seed {
		entry := seed[i]
		if err := store.Insert(context.Background(), &entry); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	orderLogs, err := svc.Query(context.Background(), repo.Filter{EntityType: EntityOrder}, 0)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(orderLogs) != 2 {
		t.Fatalf("order entries = %d, want 2", len(orderLogs))
	}
	if !orderLogs[0].CreatedAt.After(orderLogs[1].CreatedAt) {
		t.Error("entries not in descending time order")
	}

	actor := int64(2)
	actorLogs, err := svc.Query(context.Background(), repo.Filter{ActorID: &actor}, 0)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(actorLogs) != 1 || actorLogs[0].EntityID != "f1" {
		t.Fatalf("actor entries = %+v, want the file upload", actorLogs)
	}

	from := base.Add(30 * time.Minute)
	rangeLogs, err := svc.Query(context.Background(), repo.Filter{From: &from}, 0)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rangeLogs) != 2 {
		t.Fatalf("range entries = %d, want 2", len(rangeLogs))
	}

	limited, err := svc.Query(context.Background(), repo.Filter{}, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(limited) != 1 || limited[0].EntityID != "f1" {
		t.Fatalf("limited = %+v, want only the newest entry", limited)
	}
}
