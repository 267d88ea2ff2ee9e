package notifier

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	ordersvc "github.com/makerclub/printq/internal/service/order"
)

// Notifier delivers order event notifications to users. The log
// implementation is the default; mail or chat integrations satisfy the
// same interface.
type Notifier interface {
	Notify(ctx context.Context, event ordersvc.Event) error
}

// LogNotifier writes each notification to the structured log. It stands
// in until an outbound channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier wires a notifier that logs deliveries.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify records the notification. It never fails.
func (n *LogNotifier) Notify(_ context.Context, event ordersvc.Event) error {
	n.logger.Info("order notification",
		zap.String("type", event.Type),
		zap.String("order_id", event.OrderID),
		zap.Int64("user_id", event.UserID),
		zap.String("status", event.Status),
		zap.String("previous_status", event.PreviousStatus),
		zap.String("project_name", event.ProjectName),
		zap.String("reason", event.Reason),
	)
	return nil
}

// Module provides the notifier to Fx.
var Module = fx.Provide(
	fx.Annotate(NewLogNotifier, fx.As(new(Notifier))),
)
