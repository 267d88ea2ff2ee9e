package order

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/makerclub/printq/internal/messaging"
	ordersvc "github.com/makerclub/printq/internal/service/order"
)

type captureNotifier struct {
	events []ordersvc.Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event ordersvc.Event) error {
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, event)
	return nil
}

func TestHandleDeliversEvent(t *testing.T) {
	sink := &captureNotifier{}
	h := NewHandler(sink, zap.NewNop())

	event := ordersvc.Event{
		Type:       "order_status_changed",
		ID:         1,
		OrderID:    "#RC24001",
		UserID:     7,
		Status:     "approved",
		OccurredAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if err := h.Handle(context.Background(), messaging.Message{Topic: "printq.order-events", Value: payload}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sink.events) != 1 || sink.events[0].OrderID != "#RC24001" {
		t.Fatalf("delivered = %+v", sink.events)
	}
}

func TestHandleDropsUndecodablePayload(t *testing.T) {
	sink := &captureNotifier{}
	h := NewHandler(sink, zap.NewNop())

	err := h.Handle(context.Background(), messaging.Message{Topic: "printq.order-events", Value: []byte("{broken")})
	if err != nil {
		t.Fatalf("Handle should drop bad payloads, got %v", err)
	}
	if len(sink.events) != 0 {
		t.Fatal("no event should have been delivered")
	}
}

func TestHandlePropagatesDeliveryFailure(t *testing.T) {
	sink := &captureNotifier{err: errors.New("smtp down")}
	h := NewHandler(sink, zap.NewNop())

	payload, _ := json.Marshal(ordersvc.Event{OrderID: "#RC24001"})
	if err := h.Handle(context.Background(), messaging.Message{Value: payload}); err == nil {
		t.Fatal("expected delivery failure to propagate for retry")
	}
}
