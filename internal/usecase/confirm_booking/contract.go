package confirm_booking

import (
	"context"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/ledger"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/promotion"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

// Ledger журнал занятости слотов
type Ledger interface {
	Confirm(ctx context.Context, id int64, req ledger.ConfirmRequest) (*domain.Booking, error)
}

// PromotionService учёт использований акций
type PromotionService interface {
	RecordUsage(ctx context.Context, req promotion.RecordUsageRequest) error
}

// Notifier отправка уведомлений о бронированиях
type Notifier interface {
	Notify(ctx context.Context, event string, booking *domain.Booking)
}

// Metrics счётчики подтверждений
type Metrics interface {
	IncPromotionUsage(result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
