package confirm_booking

import (
	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
)

// Request подтверждение бронирования администратором или владельцем
type Request struct {
	Principal domain.Principal
	BookingID int64
	Reason    string
}

// PaymentRequest подтверждение по успешной оплате
type PaymentRequest struct {
	BookingID        int64
	PaymentReference string
}

// Response результат подтверждения. AlreadyConfirmed = повторный вызов, состояние не менялось.
type Response struct {
	Booking          *models.BookingResponse
	AlreadyConfirmed bool
}
