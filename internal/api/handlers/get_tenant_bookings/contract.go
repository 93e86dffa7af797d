package get_tenant_bookings

import (
	"context"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
)

type BookingService interface {
	GetTenantBookings(ctx context.Context, principal domain.Principal, req *models.GetTenantBookingsRequest) (*models.BookingListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
