package cancel_booking

import (
	"context"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/ledger"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

// Ledger журнал занятости слотов
type Ledger interface {
	Cancel(ctx context.Context, id int64, req ledger.TransitionRequest) (*domain.Booking, error)
}

// Notifier отправка уведомлений о бронированиях
type Notifier interface {
	Notify(ctx context.Context, event string, booking *domain.Booking)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
