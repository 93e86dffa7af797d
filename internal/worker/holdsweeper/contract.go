package holdsweeper

import (
	"context"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/ledger"
)

// Ledger журнал занятости слотов
type Ledger interface {
	ExpireHolds(ctx context.Context, limit uint64) (*ledger.SweepResult, error)
	CompleteFinished(ctx context.Context, limit uint64) (*ledger.SweepResult, error)
}

// Notifier отправка уведомлений о бронированиях
type Notifier interface {
	Notify(ctx context.Context, event string, booking *domain.Booking)
}

// Metrics счётчики обработанных бронирований
type Metrics interface {
	AddSweeperProcessed(action string, n int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
