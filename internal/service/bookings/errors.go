package bookings

import "errors"

var (
	// ErrBookingNotFound бронирование не найдено
	ErrBookingNotFound = errors.New("bookings: booking not found")

	// ErrAccessDenied бронирование чужое, а пользователь не администратор его тенанта
	ErrAccessDenied = errors.New("bookings: access denied")

	// ErrInvalidInput некорректный фильтр или заметка
	ErrInvalidInput = errors.New("bookings: invalid input data")

	// ErrInternal внутренняя ошибка сервиса
	ErrInternal = errors.New("bookings: internal error")
)
