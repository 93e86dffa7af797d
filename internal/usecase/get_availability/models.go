package get_availability

import (
	"time"

	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	UserID    int64
	TenantID  int64
	ListingID int64
	Date      time.Time
}

// Response слоты листинга на дату
type Response struct {
	Date      time.Time
	TenantID  int64
	ListingID int64
	Currency  string
	Occupancy int
	Slots     []Slot
}

// Slot слот с доступностью и ценой на момент запроса
type Slot struct {
	ID              string
	StartTime       string
	EndTime         string
	DurationMinutes int
	Available       bool
	BasePrice       money.Amount
	Price           money.Amount
}
