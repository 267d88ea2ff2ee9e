package identifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/makerclub/printq/internal/entity"
	clubrepo "github.com/makerclub/printq/internal/repository/club"
	seqrepo "github.com/makerclub/printq/internal/repository/sequence"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestOrderIDSequencesPerClubAndYear(t *testing.T) {
	clubs := clubrepo.NewMemory(entity.Club{ID: 1, Name: "Robotics Club", Code: "RC"})
	gen := NewGenerator(clubs, seqrepo.NewMemory(), zap.NewNop()).
		WithClock(fixedClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))

	clubID := int64(1)
	first := gen.OrderID(context.Background(), &clubID)
	if first != "#RC24001" {
		t.Fatalf("first id = %q, want #RC24001", first)
	}
	second := gen.OrderID(context.Background(), &clubID)
	if second != "#RC24002" {
		t.Fatalf("second id = %q, want #RC24002", second)
	}
}

func TestOrderIDYearResetsSequence(t *testing.T) {
	clubs := clubrepo.NewMemory(entity.Club{ID: 1, Name: "Robotics Club", Code: "RC"})
	gen := NewGenerator(clubs, seqrepo.NewMemory(), zap.NewNop()).
		WithClock(fixedClock(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)))

	clubID := int64(1)
	if got := gen.OrderID(context.Background(), &clubID); got != "#RC24001" {
		t.Fatalf("id = %q, want #RC24001", got)
	}

	gen.WithClock(fixedClock(time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)))
	if got := gen.OrderID(context.Background(), &clubID); got != "#RC25001" {
		t.Fatalf("id after year change = %q, want #RC25001", got)
	}
}

func TestOrderIDWithoutClubUsesGenericCode(t *testing.T) {
	gen := NewGenerator(clubrepo.NewMemory(), seqrepo.NewMemory(), zap.NewNop()).
		WithClock(fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))

	if got := gen.OrderID(context.Background(), nil); got != "#GEN24001" {
		t.Fatalf("id = %q, want #GEN24001", got)
	}
}

func TestOrderIDUnknownClubFallsBackToGeneric(t *testing.T) {
	gen := NewGenerator(clubrepo.NewMemory(), seqrepo.NewMemory(), zap.NewNop()).
		WithClock(fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))

	missing := int64(99)
	if got := gen.OrderID(context.Background(), &missing); got != "#GEN24001" {
		t.Fatalf("id = %q, want #GEN24001", got)
	}
}

type failingSequences struct{}

func (failingSequences) Next(context.Context, string) (int64, error) {
	return 0, errors.New("sequence table unavailable")
}

func TestOrderIDFallsBackWhenSequencingFails(t *testing.T) {
	gen := NewGenerator(clubrepo.NewMemory(), failingSequences{}, zap.NewNop())

	got := gen.OrderID(context.Background(), nil)
	if !strings.HasPrefix(got, "#FALLBACK-") {
		t.Fatalf("id = %q, want #FALLBACK- prefix", got)
	}
}

func TestBatchNumber(t *testing.T) {
	gen := NewGenerator(clubrepo.NewMemory(), seqrepo.NewMemory(), zap.NewNop()).
		WithClock(fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))

	first, err := gen.BatchNumber(context.Background())
	if err != nil {
		t.Fatalf("BatchNumber: %v", err)
	}
	if first != "BATCH-24-001" {
		t.Fatalf("first = %q, want BATCH-24-001", first)
	}
	second, err := gen.BatchNumber(context.Background())
	if err != nil {
		t.Fatalf("BatchNumber: %v", err)
	}
	if second != "BATCH-24-002" {
		t.Fatalf("second = %q, want BATCH-24-002", second)
	}
}

func TestBatchNumberPropagatesSequenceError(t *testing.T) {
	gen := NewGenerator(clubrepo.NewMemory(), failingSequences{}, zap.NewNop())
	if _, err := gen.BatchNumber(context.Background()); err == nil {
		t.Fatal("expected error from failing sequence store")
	}
}
