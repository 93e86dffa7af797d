package confirm_booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("confirm_booking: booking not found")

	// ErrAccessDenied подтверждать может администратор тенанта, владелец только бесплатное бронирование
	ErrAccessDenied = errors.New("confirm_booking: access denied")

	// ErrHoldExpired холд истёк, слоты освобождены
	ErrHoldExpired = errors.New("confirm_booking: hold expired")

	// ErrAlreadyCancelled бронирование уже отменено
	ErrAlreadyCancelled = errors.New("confirm_booking: booking already cancelled")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("confirm_booking: internal error")
)
