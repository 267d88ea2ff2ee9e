package order

import (
	"context"
	"encoding/json"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/makerclub/printq/internal/config"
	"github.com/makerclub/printq/internal/messaging"
	"github.com/makerclub/printq/internal/notifier"
	ordersvc "github.com/makerclub/printq/internal/service/order"
	"github.com/makerclub/printq/internal/worker"
)

// Handler consumes order lifecycle events and fans them out to the
// notifier. Undecodable payloads are dropped with a warning rather than
// retried forever.
type Handler struct {
	notifier notifier.Notifier
	logger   *zap.Logger
}

// NewHandler constructs the order event handler.
func NewHandler(n notifier.Notifier, logger *zap.Logger) *Handler {
	return &Handler{notifier: n, logger: logger}
}

// Handle decodes one event and delivers the notification.
func (h *Handler) Handle(ctx context.Context, msg messaging.Message) error {
	var event ordersvc.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Warn("dropping undecodable order event",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return nil
	}
	if err := h.notifier.Notify(ctx, event); err != nil {
		h.logger.Error("notification delivery failed",
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Module registers the handler with the worker engine.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Provide(fx.Annotate(
		func(h *Handler, cfg config.Config) worker.HandlerRegistration {
			return worker.HandlerRegistration{
				Topic:   cfg.Messaging.Kafka.Topic,
				Handler: h.Handle,
			}
		},
		fx.ResultTags(`group:"worker.handlers"`),
	)),
)
