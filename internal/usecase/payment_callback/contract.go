package payment_callback

import (
	"context"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/integrations/payment"
	"github.com/m04kA/SMC-SlotBookingService/internal/usecase/cancel_booking"
	"github.com/m04kA/SMC-SlotBookingService/internal/usecase/confirm_booking"
)

// PaymentClient проверка подписи callback платёжного сервиса
type PaymentClient interface {
	VerifyCallback(ctx context.Context, payload []byte, signature string) (*payment.CallbackResult, error)
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
}

// Confirmer подтверждение оплаченного бронирования
type Confirmer interface {
	ConfirmPaid(ctx context.Context, req *confirm_booking.PaymentRequest) (*confirm_booking.Response, error)
}

// Canceller отмена бронирования после неуспешной оплаты
type Canceller interface {
	CancelForPayment(ctx context.Context, req *cancel_booking.PaymentFailureRequest) (*cancel_booking.Response, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
