package cancel_booking

import (
	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
)

// Request отмена пользователем или администратором
type Request struct {
	Principal domain.Principal
	BookingID int64
	Reason    string
}

// PaymentFailureRequest отмена после неуспешной оплаты
type PaymentFailureRequest struct {
	BookingID        int64
	PaymentReference string
	Reason           string
}

// Response отменённое бронирование
type Response struct {
	Booking *models.BookingResponse
}
