package payment_callback

import "github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"

// Request подписанный callback платёжного сервиса
type Request struct {
	Payload   []byte
	Signature string
}

// Response результат обработки callback
type Response struct {
	Booking          *models.BookingResponse
	AlreadyConfirmed bool
}
