package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/integrations/userservice"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/ledger"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/promotion"
	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	SetPaymentOrderToken(ctx context.Context, id int64, token string) error
}

// ListingClient интерфейс клиента каталога листингов
type ListingClient interface {
	GetListing(ctx context.Context, tenantID, listingID int64) (*domain.Listing, error)
}

// UserServiceClient интерфейс клиента для UserService
type UserServiceClient interface {
	GetCustomerWithGracefulDegradation(ctx context.Context, userID int64) (*userservice.Customer, error)
}

// Ledger журнал занятости слотов
type Ledger interface {
	CheckAndReserve(ctx context.Context, req ledger.ReserveRequest) (*domain.Booking, error)
	Release(ctx context.Context, id int64, req ledger.TransitionRequest) (*domain.Booking, error)
	Availability(ctx context.Context, listing *domain.Listing, date time.Time) ([]domain.SlotAvailability, error)
}

// PricingService расчёт цен слотов
type PricingService interface {
	QuoteSlots(ctx context.Context, listing *domain.Listing, date time.Time, slots []domain.Slot, now time.Time, occupancy *int) ([]domain.PriceLine, error)
}

// PromotionService подбор скидки
type PromotionService interface {
	SelectBestPromotion(ctx context.Context, req promotion.SelectRequest) (*promotion.Selection, error)
}

// PaymentClient интерфейс клиента платёжного сервиса
type PaymentClient interface {
	Authorize(ctx context.Context, amount money.Amount, currency, reference string) (string, error)
}

// Notifier отправка уведомлений о бронированиях
type Notifier interface {
	Notify(ctx context.Context, event string, booking *domain.Booking)
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
