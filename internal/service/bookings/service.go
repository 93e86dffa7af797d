package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SlotBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Service сервис чтения бронирований и административных заметок
type Service struct {
	bookingRepo BookingRepository
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(bookingRepo BookingRepository, logger Logger) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// GetByID получает бронирование по ID.
// Видеть бронирование может владелец или администратор тенанта.
func (s *Service) GetByID(ctx context.Context, principal domain.Principal, id int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%d", id, principal.UserID)

	booking, err := s.get(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	if !principal.CanAccessBooking(booking) {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", principal.UserID, id)
		return nil, ErrAccessDenied
	}

	s.logger.Info("GetByID: successfully fetched booking id=%d", id)
	return models.FromDomainBooking(booking), nil
}

// GetUserBookings история бронирований текущего пользователя, опционально по статусу
func (s *Service) GetUserBookings(ctx context.Context, principal domain.Principal, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUserBookings: fetching bookings for user=%d, status=%v", principal.UserID, req.Status)

	filter := domain.BookingFilter{
		UserID: &principal.UserID,
		Limit:  listLimit(req.Limit),
	}
	if req.Status != nil {
		status, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetUserBookings: invalid status=%s for user=%d", *req.Status, principal.UserID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		filter.Statuses = []domain.BookingStatus{status}
	}

	bookings, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%d: %v", principal.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserBookings: successfully fetched %d bookings for user=%d", len(bookings), principal.UserID)
	return models.FromDomainBookingList(bookings), nil
}

// GetTenantBookings бронирования тенанта с фильтрами по листингу, дате и статусу.
// Доступно только администраторам тенанта.
func (s *Service) GetTenantBookings(ctx context.Context, principal domain.Principal, req *models.GetTenantBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetTenantBookings: fetching bookings for tenant=%d by user=%d", req.TenantID, principal.UserID)

	if !principal.CanManageTenant(req.TenantID) {
		s.logger.Warn("GetTenantBookings: user=%d is not an admin of tenant=%d", principal.UserID, req.TenantID)
		return nil, ErrAccessDenied
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetTenantBookings: invalid filter for tenant=%d: %v", req.TenantID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	filter.Limit = listLimit(req.Limit)

	bookings, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("GetTenantBookings: repository error for tenant=%d: %v", req.TenantID, err)
		return nil, fmt.Errorf("%w: GetTenantBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetTenantBookings: successfully fetched %d bookings for tenant=%d", len(bookings), req.TenantID)
	return models.FromDomainBookingList(bookings), nil
}

// UpdateAdminNotes меняет заметки администратора.
// Заметки можно менять в любом статусе, включая отменённые и завершённые бронирования.
func (s *Service) UpdateAdminNotes(ctx context.Context, principal domain.Principal, id int64, req *models.UpdateAdminNotesRequest) (*models.BookingResponse, error) {
	s.logger.Info("UpdateAdminNotes: booking id=%d by user=%d", id, principal.UserID)

	notes := strings.TrimSpace(req.Notes)
	if len(notes) > domain.MaxAdminNotesLength {
		return nil, fmt.Errorf("%w: notes exceed %d characters", ErrInvalidInput, domain.MaxAdminNotesLength)
	}

	booking, err := s.get(ctx, "UpdateAdminNotes", id)
	if err != nil {
		return nil, err
	}

	if !principal.CanManageTenant(booking.TenantID) {
		s.logger.Warn("UpdateAdminNotes: user=%d is not an admin of tenant=%d", principal.UserID, booking.TenantID)
		return nil, ErrAccessDenied
	}

	if err := s.bookingRepo.SetAdminNotes(ctx, id, notes); err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("UpdateAdminNotes: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: UpdateAdminNotes - repository error: %v", ErrInternal, err)
	}
	booking.AdminNotes = &notes

	s.logger.Info("UpdateAdminNotes: successfully updated notes of booking id=%d", id)
	return models.FromDomainBooking(booking), nil
}

func (s *Service) get(ctx context.Context, op string, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%d not found", op, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return booking, nil
}

func listLimit(limit int) uint64 {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return uint64(limit)
	}
}
