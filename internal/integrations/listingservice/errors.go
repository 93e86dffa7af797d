package listingservice

import "errors"

var (
	// ErrListingNotFound возвращается, когда листинг не найден у тенанта
	ErrListingNotFound = errors.New("listing not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("listingservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("listingservice client: invalid response")
)
