package sweep

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/makerclub/printq/internal/config"
	attachmentsvc "github.com/makerclub/printq/internal/service/attachment"
)

// Scheduler runs the retention sweep on a fixed interval. One pass runs
// immediately at startup so a long-stopped instance catches up.
type Scheduler struct {
	attachments *attachmentsvc.Service
	logger      *zap.Logger
	cfg         config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler constructs the sweep scheduler.
func NewScheduler(attachments *attachmentsvc.Service, logger *zap.Logger, cfg config.Config) *Scheduler {
	return &Scheduler{
		attachments: attachments,
		logger:      logger,
		cfg:         cfg,
	}
}

// Module wires the scheduler into the Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewScheduler),
	fx.Invoke(func(lc fx.Lifecycle, s *Scheduler) {
		lc.Append(fx.Hook{
			OnStart: s.start,
			OnStop:  s.stop,
		})
	}),
)

func (s *Scheduler) start(context.Context) error {
	if !s.cfg.Sweep.Enabled {
		s.logger.Info("retention sweep disabled")
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(runCtx)
	}()

	s.logger.Info("retention sweep scheduled", zap.Duration("interval", s.cfg.Sweep.Interval))
	return nil
}

func (s *Scheduler) stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.cfg.Sweep.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	result, err := s.attachments.Sweep(ctx)
	if err != nil {
		// The sweep records its own failure entry; the next tick retries.
		s.logger.Error("retention sweep pass failed", zap.Error(err))
		return
	}
	s.logger.Debug("retention sweep pass done",
		zap.Int("orders_scanned", result.OrdersScanned),
		zap.Int("files_removed", result.FilesRemoved),
	)
}
