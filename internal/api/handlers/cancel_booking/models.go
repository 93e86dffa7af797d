package cancel_booking

import "github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"

// CancelBookingRequest HTTP request model; тело опционально
type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// CancelBookingResponse HTTP response model
type CancelBookingResponse struct {
	Booking *models.BookingResponse `json:"booking"`
}
