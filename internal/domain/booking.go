package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// Actor инициатор перехода статуса
type Actor string

const (
	ActorUser    Actor = "user"
	ActorAdmin   Actor = "admin"
	ActorSystem  Actor = "system"
	ActorPayment Actor = "payment"
)

// CustomerSnapshot копия данных клиента на момент бронирования
type CustomerSnapshot struct {
	Name     string
	Mobile   string
	Email    string
	Category string
}

// PriceLine цена одного слота после применения правил
type PriceLine struct {
	SlotID       string
	BasePrice    money.Amount
	FinalPrice   money.Amount
	AppliedRules []AppliedRule
	Warnings     []string
}

// PricingBreakdown расчёт стоимости бронирования
type PricingBreakdown struct {
	Currency   string
	Lines      []PriceLine
	Subtotal   money.Amount
	Discount   money.Amount
	TaxPercent decimal.Decimal
	Tax        money.Amount
	Total      money.Amount
}

// Priced reports whether the breakdown was calculated: every booked slot has a price line
func (p PricingBreakdown) Priced() bool {
	return len(p.Lines) > 0
}

// IsFree reports a calculated breakdown with nothing to pay
func (p PricingBreakdown) IsFree() bool {
	return p.Priced() && p.Total == 0
}

// PromotionSnapshot копия применённой промо-акции
type PromotionSnapshot struct {
	PromotionID  int64
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
}

// StatusChange запись в истории статусов. Записи только добавляются.
type StatusChange struct {
	Status   BookingStatus
	Actor    Actor
	ActorID  *int64
	Reason   string
	Metadata map[string]string
	At       time.Time
}

// Booking represents a slot booking. A pending booking is the provisional
// reservation (hold) of its slots.
type Booking struct {
	ID          int64
	Reference   string
	TenantID    int64
	ListingID   int64
	UserID      int64
	BookingDate time.Time
	SlotIDs     []string
	Status      BookingStatus

	Customer  CustomerSnapshot
	Pricing   PricingBreakdown
	Promotion *PromotionSnapshot
	History   []StatusChange

	HoldExpiresAt     *time.Time
	PaymentOrderToken *string
	PaymentReference  *string
	AdminNotes        *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the booking still occupies its slots
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled
}

// IsPending returns true if the booking is a provisional hold
func (b *Booking) IsPending() bool {
	return b.Status == StatusPending
}

// IsTerminal returns true for cancelled and completed bookings
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCancelled || b.Status == StatusCompleted
}

// CanBeCancelled returns true if the booking can be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// HoldExpired returns true if the pending hold lapsed at the given moment
func (b *Booking) HoldExpired(now time.Time) bool {
	return b.Status == StatusPending && b.HoldExpiresAt != nil && !now.Before(*b.HoldExpiresAt)
}

// OccupiesSlots returns true if the booking blocks its slots at the given moment.
// An expired hold is treated as released even before the sweeper cancels it.
func (b *Booking) OccupiesSlots(now time.Time) bool {
	if !b.IsActive() {
		return false
	}
	return !b.HoldExpired(now)
}

// EndsAt returns the end of the latest booked slot
func (b *Booking) EndsAt() (time.Time, error) {
	var latest int
	for _, id := range b.SlotIDs {
		slot, err := ParseSlotID(id)
		if err != nil {
			return time.Time{}, err
		}
		if end := slot.End.MustMinutes(); end > latest {
			latest = end
		}
	}
	y, m, d := b.BookingDate.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, b.BookingDate.Location()).Add(time.Duration(latest) * time.Minute), nil
}

// AppendHistory добавляет запись о переходе статуса
func (b *Booking) AppendHistory(change StatusChange) {
	b.History = append(b.History, change)
}

// BookingFilter фильтр выборки бронирований
type BookingFilter struct {
	TenantID  *int64
	ListingID *int64
	UserID    *int64
	Date      *time.Time
	Statuses  []BookingStatus
	Limit     uint64
}
