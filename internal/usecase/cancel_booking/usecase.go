package cancel_booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SlotBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SlotBookingService/internal/integrations/notification"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/ledger"
)

const (
	defaultUserReason    = "cancelled by user"
	defaultAdminReason   = "cancelled by admin"
	defaultPaymentReason = "payment failed"
)

// UseCase use case отмены бронирования: pending/confirmed → cancelled, слоты освобождаются
type UseCase struct {
	bookingRepo BookingRepository
	ledger      Ledger
	notifier    Notifier
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(bookingRepo BookingRepository, ledger Ledger, notifier Notifier, logger Logger) *UseCase {
	return &UseCase{
		bookingRepo: bookingRepo,
		ledger:      ledger,
		notifier:    notifier,
		logger:      logger,
	}
}

// Execute отмена владельцем или администратором тенанта
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CancelBooking: booking id=%d by user=%d", req.BookingID, req.Principal.UserID)

	reason := strings.TrimSpace(req.Reason)
	if len(reason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: reason exceeds %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	booking, err := uc.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			uc.logger.Warn("CancelBooking: booking id=%d not found", req.BookingID)
			return nil, ErrBookingNotFound
		}
		uc.logger.Error("CancelBooking: failed to get booking id=%d: %v", req.BookingID, err)
		return nil, fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
	}

	if !req.Principal.CanAccessBooking(booking) {
		uc.logger.Warn("CancelBooking: access denied for user=%d to booking id=%d", req.Principal.UserID, req.BookingID)
		return nil, ErrAccessDenied
	}

	actor := domain.ActorUser
	if booking.UserID != req.Principal.UserID {
		actor = domain.ActorAdmin
	}
	if reason == "" {
		reason = defaultUserReason
		if actor == domain.ActorAdmin {
			reason = defaultAdminReason
		}
	}

	return uc.cancel(ctx, booking.ID, ledger.TransitionRequest{
		Actor:   actor,
		ActorID: &req.Principal.UserID,
		Reason:  reason,
	})
}

// CancelForPayment отмена после неуспешной оплаты или отказа платёжного сервиса
func (uc *UseCase) CancelForPayment(ctx context.Context, req *PaymentFailureRequest) (*Response, error) {
	uc.logger.Info("CancelBooking: payment %s failed for booking id=%d", req.PaymentReference, req.BookingID)

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = defaultPaymentReason
	}

	return uc.cancel(ctx, req.BookingID, ledger.TransitionRequest{
		Actor:    domain.ActorPayment,
		Reason:   reason,
		Metadata: map[string]string{"paymentReference": req.PaymentReference},
	})
}

func (uc *UseCase) cancel(ctx context.Context, id int64, req ledger.TransitionRequest) (*Response, error) {
	booking, err := uc.ledger.Cancel(ctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrAlreadyReleased):
			uc.logger.Info("CancelBooking: booking id=%d already cancelled", id)
			return nil, ErrAlreadyCancelled
		case errors.Is(err, ledger.ErrInvalidTransition):
			uc.logger.Warn("CancelBooking: booking id=%d cannot be cancelled: %v", id, err)
			return nil, ErrCannotCancel
		case errors.Is(err, ledger.ErrNotFound):
			return nil, ErrBookingNotFound
		default:
			uc.logger.Error("CancelBooking: failed to cancel booking id=%d: %v", id, err)
			return nil, fmt.Errorf("%w: failed to cancel: %v", ErrInternal, err)
		}
	}

	uc.notifier.Notify(ctx, notification.EventBookingCancelled, booking)

	uc.logger.Info("CancelBooking: successfully cancelled booking id=%d by %s", id, req.Actor)
	return &Response{Booking: models.FromDomainBooking(booking)}, nil
}
