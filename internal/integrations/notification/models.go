package notification

import (
	"time"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
)

// События жизненного цикла бронирования
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingExpired   = "booking.expired"
	EventBookingCompleted = "booking.completed"
)

const (
	resultSent   = "sent"
	resultFailed = "failed"
	resultLogged = "logged"
)

// BookingEvent сообщение о бронировании для сервиса уведомлений
type BookingEvent struct {
	Event      string    `json:"event"`
	BookingID  int64     `json:"bookingId"`
	Reference  string    `json:"reference"`
	TenantID   int64     `json:"tenantId"`
	ListingID  int64     `json:"listingId"`
	UserID     int64     `json:"userId"`
	Date       string    `json:"date"`
	SlotIDs    []string  `json:"slotIds"`
	Status     string    `json:"status"`
	Total      int64     `json:"total"`
	Currency   string    `json:"currency"`
	Customer   Customer  `json:"customer"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Customer контакты получателя
type Customer struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile,omitempty"`
	Email  string `json:"email,omitempty"`
}

func newBookingEvent(event string, b *domain.Booking, now time.Time) BookingEvent {
	customer := Customer{
		Name:   b.Customer.Name,
		Mobile: b.Customer.Mobile,
		Email:  b.Customer.Email,
	}
	return BookingEvent{
		Event:      event,
		BookingID:  b.ID,
		Reference:  b.Reference,
		TenantID:   b.TenantID,
		ListingID:  b.ListingID,
		UserID:     b.UserID,
		Date:       b.BookingDate.Format(domain.DateFormat),
		SlotIDs:    b.SlotIDs,
		Status:     string(b.Status),
		Total:      int64(b.Pricing.Total),
		Currency:   b.Pricing.Currency,
		Customer:   customer,
		OccurredAt: now,
	}
}
