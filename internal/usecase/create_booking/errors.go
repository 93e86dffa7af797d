package create_booking

import "errors"

var (
	// ErrListingNotFound возвращается, когда листинг не найден у тенанта
	ErrListingNotFound = errors.New("create_booking: listing not found")

	// ErrCustomerRequired возвращается, когда имя клиента не передано и профиль недоступен
	ErrCustomerRequired = errors.New("create_booking: customer name is required")

	// ErrPaymentDeclined платёжный сервис отказал в создании заказа
	ErrPaymentDeclined = errors.New("create_booking: payment authorization declined")

	// ErrPersistence не удалось сохранить бронирование; холд снят, запрос можно повторить
	ErrPersistence = errors.New("create_booking: persistence failure")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
