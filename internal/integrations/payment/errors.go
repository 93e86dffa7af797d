package payment

import "errors"

var (
	// ErrAuthorizationDeclined платёжный сервис отказал в создании заказа
	ErrAuthorizationDeclined = errors.New("payment: authorization declined")

	// ErrInvalidSignature подпись callback не прошла проверку
	ErrInvalidSignature = errors.New("payment: invalid callback signature")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("payment client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("payment client: invalid response")
)
