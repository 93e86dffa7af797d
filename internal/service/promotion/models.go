package promotion

import (
	"time"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
)

// Order заказ-кандидат, к которому подбирается скидка
type Order struct {
	TenantID     int64
	UserID       int64
	UserCategory string
	ListingID    int64
	ListingType  string
	SlotCount    int
	// Subtotal сумма после правил ценообразования, до налога
	Subtotal money.Amount
}

// SelectRequest запрос подбора скидки. Code == nil означает поиск автоматической акции.
type SelectRequest struct {
	Code  *string
	Order Order
	Now   time.Time
}

// Selection выбранная акция и рассчитанная скидка
type Selection struct {
	Promotion *domain.Promotion
	Discount  money.Amount
}

// RecordUsageRequest запись об использовании акции при подтверждении бронирования
type RecordUsageRequest struct {
	PromotionID int64
	UserID      int64
	BookingID   int64
	Discount    money.Amount
	UsedAt      time.Time
}
