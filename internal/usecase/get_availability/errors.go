package get_availability

import "errors"

var (
	// ErrListingNotFound возвращается, когда листинг не найден у тенанта
	ErrListingNotFound = errors.New("get_availability: listing not found")

	// ErrInvalidDate возвращается, когда дата в прошлом
	ErrInvalidDate = errors.New("get_availability: invalid date")

	// ErrDateTooFarInFuture дата дальше, чем разрешено бронировать заранее
	ErrDateTooFarInFuture = errors.New("get_availability: date is too far in the future")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_availability: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_availability: internal error")
)
