package ledger

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SlotBookingService/internal/infra/storage/booking"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	FindActiveOverlapping(ctx context.Context, tenantID, listingID int64, date time.Time, slots []domain.Slot) ([]*domain.Booking, error)
	ListActiveOnDate(ctx context.Context, tenantID, listingID int64, date time.Time) ([]*domain.Booking, error)
	TransitionStatus(ctx context.Context, id int64, from []domain.BookingStatus, change domain.StatusChange, patch bookingRepo.StatusPatch) (bool, error)
	ListExpiredHolds(ctx context.Context, now time.Time, limit uint64) ([]int64, error)
	ListFinished(ctx context.Context, now time.Time, limit uint64) ([]int64, error)
}

// Locker захват набора ключей целиком (Redis или в памяти процесса)
type Locker interface {
	Acquire(ctx context.Context, keys []string, ttl time.Duration) (func(), error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счётчики ledger
type Metrics interface {
	IncSlotConflict(stage string)
	IncBookingTransition(to, actor string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
