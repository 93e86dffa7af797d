package holdsweeper

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SlotBookingService/internal/integrations/notification"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/ledger"
)

const (
	actionExpired   = "expired"
	actionCompleted = "completed"
	actionFailed    = "failed"

	// maxBatchesPerRun ограничивает один проход, если строки постоянно падают с ошибкой
	maxBatchesPerRun = 10
)

// Config настройки воркера
type Config struct {
	Interval  time.Duration
	BatchSize uint64
}

// Sweeper фоновый воркер: отменяет ожидающие бронирования с истёкшим холдом
// и завершает подтверждённые бронирования, время которых прошло
type Sweeper struct {
	ledger   Ledger
	notifier Notifier
	metrics  Metrics
	logger   Logger
	cfg      Config
}

// New создает новый экземпляр воркера
func New(ledger Ledger, notifier Notifier, metrics Metrics, logger Logger, cfg Config) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}

	return &Sweeper{
		ledger:   ledger,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// Run выполняет проходы по таймеру до отмены контекста
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("HoldSweeper: started with interval %s, batch size %d", s.cfg.Interval, s.cfg.BatchSize)

	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("HoldSweeper: stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce один проход: сначала истёкшие холды, затем завершённые бронирования
func (s *Sweeper) RunOnce(ctx context.Context) {
	expired := s.drain(ctx, actionExpired, s.ledger.ExpireHolds, notification.EventBookingExpired)
	completed := s.drain(ctx, actionCompleted, s.ledger.CompleteFinished, notification.EventBookingCompleted)

	if expired > 0 || completed > 0 {
		s.logger.Info("HoldSweeper: expired %d holds, completed %d bookings", expired, completed)
	}
}

// drain обрабатывает пачки, пока очередная пачка заполнена целиком
func (s *Sweeper) drain(
	ctx context.Context,
	action string,
	sweep func(ctx context.Context, limit uint64) (*ledger.SweepResult, error),
	event string,
) int {
	var total int

	for i := 0; i < maxBatchesPerRun; i++ {
		if ctx.Err() != nil {
			return total
		}

		result, err := sweep(ctx, s.cfg.BatchSize)
		if err != nil {
			s.logger.Error("HoldSweeper: %s batch failed: %v", action, err)
			return total
		}

		for _, b := range result.Processed {
			s.notifier.Notify(ctx, event, b)
		}

		s.metrics.AddSweeperProcessed(action, len(result.Processed))
		s.metrics.AddSweeperProcessed(actionFailed, result.Failed)
		total += len(result.Processed)

		if result.Failed > 0 {
			s.logger.Warn("HoldSweeper: %d bookings failed during %s batch", result.Failed, action)
		}

		if uint64(len(result.Processed)+result.Failed) < s.cfg.BatchSize {
			return total
		}
	}

	return total
}
