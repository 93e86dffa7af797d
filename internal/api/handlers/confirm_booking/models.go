package confirm_booking

import "github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"

// ConfirmBookingRequest HTTP request model; тело опционально
type ConfirmBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ConfirmBookingResponse HTTP response model
type ConfirmBookingResponse struct {
	Booking          *models.BookingResponse `json:"booking"`
	AlreadyConfirmed bool                    `json:"alreadyConfirmed"`
}
