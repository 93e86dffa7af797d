package get_availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
)

// ListingClient интерфейс клиента сервиса листингов
type ListingClient interface {
	GetListing(ctx context.Context, tenantID, listingID int64) (*domain.Listing, error)
}

// Ledger журнал занятости слотов
type Ledger interface {
	Availability(ctx context.Context, listing *domain.Listing, date time.Time) ([]domain.SlotAvailability, error)
}

// PricingService расчёт цен слотов по правилам
type PricingService interface {
	QuoteSlots(ctx context.Context, listing *domain.Listing, date time.Time, slots []domain.Slot, now time.Time, occupancy *int) ([]domain.PriceLine, error)
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
