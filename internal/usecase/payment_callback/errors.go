package payment_callback

import "errors"

var (
	// ErrInvalidSignature callback не прошёл проверку подписи
	ErrInvalidSignature = errors.New("payment_callback: invalid signature")

	// ErrBookingNotFound бронирование с указанным reference не найдено
	ErrBookingNotFound = errors.New("payment_callback: booking not found")

	// ErrPaymentVerificationFailed оплата не прошла, бронирование отменено
	ErrPaymentVerificationFailed = errors.New("payment_callback: payment verification failed")

	// ErrHoldExpired оплата пришла после истечения холда
	ErrHoldExpired = errors.New("payment_callback: hold expired")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("payment_callback: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("payment_callback: internal error")
)
