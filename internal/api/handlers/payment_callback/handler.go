package payment_callback

import (
	"errors"
	"io"
	"net/http"

	"github.com/m04kA/SMC-SlotBookingService/internal/api/handlers"
	paymentCallback "github.com/m04kA/SMC-SlotBookingService/internal/usecase/payment_callback"
)

// HeaderSignature подпись тела callback, выставляется платёжным сервисом
const HeaderSignature = "X-Payment-Signature"

const maxPayloadBytes = 64 << 10

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidSignature   = "некорректная подпись"
	msgNotFound           = "бронирование не найдено"
	msgHoldExpired        = "время на оплату истекло, слоты освобождены"
	msgPaymentFailed      = "оплата не прошла, бронирование отменено"
)

type Handler struct {
	useCase PaymentCallbackUseCase
	logger  Logger
}

func NewHandler(useCase PaymentCallbackUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/payments/callback
// Подпись проверяется по сырому телу, поэтому JSON здесь не декодируется
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		h.logger.Warn("POST /payments/callback - Failed to read body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &paymentCallback.Request{
		Payload:   payload,
		Signature: r.Header.Get(HeaderSignature),
	})
	if err != nil {
		switch {
		case errors.Is(err, paymentCallback.ErrInvalidInput):
			h.logger.Warn("POST /payments/callback - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		case errors.Is(err, paymentCallback.ErrInvalidSignature):
			h.logger.Warn("POST /payments/callback - Invalid signature")
			handlers.RespondUnauthorized(w, msgInvalidSignature)

		case errors.Is(err, paymentCallback.ErrBookingNotFound):
			h.logger.Warn("POST /payments/callback - Booking not found: %v", err)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, paymentCallback.ErrHoldExpired):
			h.logger.Warn("POST /payments/callback - Hold expired: %v", err)
			handlers.RespondError(w, http.StatusGone, msgHoldExpired)

		case errors.Is(err, paymentCallback.ErrPaymentVerificationFailed):
			h.logger.Warn("POST /payments/callback - Payment failed: %v", err)
			handlers.RespondError(w, http.StatusPaymentRequired, msgPaymentFailed)

		default:
			h.logger.Error("POST /payments/callback - Failed to process callback: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /payments/callback - Callback processed: booking_id=%d, already_confirmed=%t",
		result.Booking.ID, result.AlreadyConfirmed)
	handlers.RespondJSON(w, http.StatusOK, result.Booking)
}
