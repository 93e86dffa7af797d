package update_admin_notes

import (
	"context"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
)

type BookingService interface {
	UpdateAdminNotes(ctx context.Context, principal domain.Principal, id int64, req *models.UpdateAdminNotesRequest) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
