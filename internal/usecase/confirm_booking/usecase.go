package confirm_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SlotBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SlotBookingService/internal/integrations/notification"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/ledger"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/promotion"
)

const usageCapExceeded = "cap_exceeded_on_confirm"

// UseCase use case подтверждения бронирования: pending → confirmed
type UseCase struct {
	bookingRepo BookingRepository
	ledger      Ledger
	promotions  PromotionService
	notifier    Notifier
	metrics     Metrics
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	ledger Ledger,
	promotions PromotionService,
	notifier Notifier,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo: bookingRepo,
		ledger:      ledger,
		promotions:  promotions,
		notifier:    notifier,
		metrics:     metrics,
		logger:      logger,
	}
}

// Execute подтверждение через API. Администратор тенанта подтверждает в обход TTL холда,
// владелец может подтвердить только рассчитанное бронирование с нулевой суммой.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ConfirmBooking: booking id=%d by user=%d", req.BookingID, req.Principal.UserID)

	booking, err := uc.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			uc.logger.Warn("ConfirmBooking: booking id=%d not found", req.BookingID)
			return nil, ErrBookingNotFound
		}
		uc.logger.Error("ConfirmBooking: failed to get booking id=%d: %v", req.BookingID, err)
		return nil, fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
	}

	override := req.Principal.CanManageTenant(booking.TenantID)
	if !override {
		if booking.UserID != req.Principal.UserID || !booking.Pricing.IsFree() {
			uc.logger.Warn("ConfirmBooking: user=%d cannot confirm booking id=%d", req.Principal.UserID, req.BookingID)
			return nil, ErrAccessDenied
		}
	}

	return uc.confirm(ctx, booking.ID, ledger.ConfirmRequest{
		TransitionRequest: ledger.TransitionRequest{
			Actor:   req.Principal.Actor(),
			ActorID: &req.Principal.UserID,
			Reason:  req.Reason,
		},
		Override: override,
	})
}

// ConfirmPaid подтверждение по успешной оплате. TTL холда проверяется.
func (uc *UseCase) ConfirmPaid(ctx context.Context, req *PaymentRequest) (*Response, error) {
	uc.logger.Info("ConfirmBooking: payment %s for booking id=%d", req.PaymentReference, req.BookingID)

	reference := req.PaymentReference
	return uc.confirm(ctx, req.BookingID, ledger.ConfirmRequest{
		TransitionRequest: ledger.TransitionRequest{
			Actor:    domain.ActorPayment,
			Reason:   "payment succeeded",
			Metadata: map[string]string{"paymentReference": reference},
		},
		PaymentReference: &reference,
	})
}

func (uc *UseCase) confirm(ctx context.Context, id int64, req ledger.ConfirmRequest) (*Response, error) {
	booking, err := uc.ledger.Confirm(ctx, id, req)
	switch {
	case err == nil:
	case errors.Is(err, ledger.ErrAlreadyConfirmed):
		uc.logger.Info("ConfirmBooking: booking id=%d already confirmed", id)
		return &Response{Booking: models.FromDomainBooking(booking), AlreadyConfirmed: true}, nil
	case errors.Is(err, ledger.ErrHoldExpired):
		uc.logger.Warn("ConfirmBooking: hold of booking id=%d expired", id)
		uc.notifier.Notify(ctx, notification.EventBookingExpired, booking)
		return nil, ErrHoldExpired
	case errors.Is(err, ledger.ErrAlreadyReleased):
		uc.logger.Warn("ConfirmBooking: booking id=%d already cancelled", id)
		return nil, ErrAlreadyCancelled
	case errors.Is(err, ledger.ErrNotFound):
		return nil, ErrBookingNotFound
	default:
		uc.logger.Error("ConfirmBooking: failed to confirm booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: failed to confirm: %v", ErrInternal, err)
	}

	uc.recordPromotionUsage(ctx, booking)
	uc.notifier.Notify(ctx, notification.EventBookingConfirmed, booking)

	uc.logger.Info("ConfirmBooking: successfully confirmed booking id=%d", id)
	return &Response{Booking: models.FromDomainBooking(booking)}, nil
}

// recordPromotionUsage записывает использование акции. Бронирование уже подтверждено,
// поэтому превышение лимита здесь только логируется и учитывается в метриках.
func (uc *UseCase) recordPromotionUsage(ctx context.Context, booking *domain.Booking) {
	if booking.Promotion == nil {
		return
	}

	err := uc.promotions.RecordUsage(ctx, promotion.RecordUsageRequest{
		PromotionID: booking.Promotion.PromotionID,
		UserID:      booking.UserID,
		BookingID:   booking.ID,
		Discount:    booking.Pricing.Discount,
		UsedAt:      confirmedAt(booking),
	})
	switch {
	case err == nil:
	case errors.Is(err, promotion.ErrUsageLimitReached):
		uc.metrics.IncPromotionUsage(usageCapExceeded)
		uc.logger.Warn("ConfirmBooking: promotion=%d cap reached while confirming booking id=%d, discount kept",
			booking.Promotion.PromotionID, booking.ID)
	default:
		uc.logger.Error("ConfirmBooking: failed to record usage of promotion=%d for booking id=%d: %v",
			booking.Promotion.PromotionID, booking.ID, err)
	}
}

func confirmedAt(b *domain.Booking) time.Time {
	for i := len(b.History) - 1; i >= 0; i-- {
		if b.History[i].Status == domain.StatusConfirmed {
			return b.History[i].At
		}
	}
	return b.UpdatedAt
}
