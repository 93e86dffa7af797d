package payment_callback

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SlotBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SlotBookingService/internal/integrations/payment"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SlotBookingService/internal/usecase/cancel_booking"
	"github.com/m04kA/SMC-SlotBookingService/internal/usecase/confirm_booking"
)

// UseCase обработка результата оплаты: успех подтверждает бронирование, отказ отменяет его
type UseCase struct {
	paymentClient PaymentClient
	bookingRepo   BookingRepository
	confirmer     Confirmer
	canceller     Canceller
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	paymentClient PaymentClient,
	bookingRepo BookingRepository,
	confirmer Confirmer,
	canceller Canceller,
	logger Logger,
) *UseCase {
	return &UseCase{
		paymentClient: paymentClient,
		bookingRepo:   bookingRepo,
		confirmer:     confirmer,
		canceller:     canceller,
		logger:        logger,
	}
}

// Execute выполняет use case. Повторная доставка того же callback безопасна.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if len(req.Payload) == 0 || req.Signature == "" {
		return nil, fmt.Errorf("%w: payload and signature are required", ErrInvalidInput)
	}

	result, err := uc.paymentClient.VerifyCallback(ctx, req.Payload, req.Signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			uc.logger.Warn("PaymentCallback: signature rejected")
			return nil, ErrInvalidSignature
		}
		uc.logger.Error("PaymentCallback: failed to verify callback: %v", err)
		return nil, fmt.Errorf("%w: failed to verify callback: %v", ErrInternal, err)
	}

	uc.logger.Info("PaymentCallback: booking=%s payment=%s success=%t",
		result.BookingReference, result.PaymentReference, result.Success)

	booking, err := uc.bookingRepo.GetByReference(ctx, result.BookingReference)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			uc.logger.Warn("PaymentCallback: booking %s not found", result.BookingReference)
			return nil, ErrBookingNotFound
		}
		uc.logger.Error("PaymentCallback: failed to get booking %s: %v", result.BookingReference, err)
		return nil, fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
	}

	if !result.Success {
		if booking.Status == domain.StatusConfirmed || booking.Status == domain.StatusCompleted {
			uc.logger.Warn("PaymentCallback: failed payment %s for %s booking id=%d ignored",
				result.PaymentReference, booking.Status, booking.ID)
			return &Response{Booking: models.FromDomainBooking(booking), AlreadyConfirmed: true}, nil
		}
		return nil, uc.fail(ctx, booking.ID, result)
	}

	resp, err := uc.confirmer.ConfirmPaid(ctx, &confirm_booking.PaymentRequest{
		BookingID:        booking.ID,
		PaymentReference: result.PaymentReference,
	})
	if err != nil {
		switch {
		case errors.Is(err, confirm_booking.ErrHoldExpired):
			// TODO: инициировать возврат средств, когда платёжный сервис начнёт принимать refund-запросы
			uc.logger.Warn("PaymentCallback: payment %s arrived after hold of booking id=%d expired",
				result.PaymentReference, booking.ID)
			return nil, ErrHoldExpired
		case errors.Is(err, confirm_booking.ErrAlreadyCancelled):
			uc.logger.Warn("PaymentCallback: payment %s for cancelled booking id=%d",
				result.PaymentReference, booking.ID)
			return nil, ErrHoldExpired
		default:
			return nil, fmt.Errorf("%w: failed to confirm: %v", ErrInternal, err)
		}
	}

	uc.logger.Info("PaymentCallback: booking id=%d confirmed by payment %s", booking.ID, result.PaymentReference)
	return &Response{Booking: resp.Booking, AlreadyConfirmed: resp.AlreadyConfirmed}, nil
}

// fail отменяет бронирование и освобождает слоты
func (uc *UseCase) fail(ctx context.Context, bookingID int64, result *payment.CallbackResult) error {
	reason := "payment failed"
	if result.Reason != "" {
		reason = "payment failed: " + result.Reason
	}

	_, err := uc.canceller.CancelForPayment(ctx, &cancel_booking.PaymentFailureRequest{
		BookingID:        bookingID,
		PaymentReference: result.PaymentReference,
		Reason:           reason,
	})
	switch {
	case err == nil:
	case errors.Is(err, cancel_booking.ErrAlreadyCancelled):
		uc.logger.Info("PaymentCallback: booking id=%d already cancelled", bookingID)
	default:
		return fmt.Errorf("%w: failed to cancel: %v", ErrInternal, err)
	}

	return fmt.Errorf("%w: %s", ErrPaymentVerificationFailed, reason)
}
