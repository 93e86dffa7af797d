package create_booking

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
)

// Request модель запроса на создание бронирования
type Request struct {
	Principal  domain.Principal
	TenantID   int64
	ListingID  int64
	Date       time.Time // дата бронирования (без времени)
	SlotIDs    []string  // "HH:MM-HH:MM"
	Customer   CustomerInfo
	CouponCode *string
}

// CustomerInfo контакты клиента из запроса; пустые поля берутся из профиля UserService
type CustomerInfo struct {
	Name   string
	Mobile string
	Email  string
}

// Response модель ответа с созданным бронированием
type Response struct {
	Booking *models.BookingResponse
	// PromotionRejection причина, по которой промокод не применён (бронирование создаётся без скидки)
	PromotionRejection *string
}

// Config настройки оформления бронирования
type Config struct {
	HoldTTL           time.Duration
	DefaultTaxPercent decimal.Decimal
}
