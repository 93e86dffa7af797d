package pricing

import "errors"

var (
	// ErrRuleNotFound возвращается, когда правило не найдено
	ErrRuleNotFound = errors.New("pricing: rule not found")

	// ErrListingNotFound возвращается, когда листинг не найден у тенанта
	ErrListingNotFound = errors.New("pricing: listing not found")

	// ErrAccessDenied возвращается, когда у пользователя нет прав администратора тенанта
	ErrAccessDenied = errors.New("pricing: access denied")

	// ErrInvalidInput возвращается при некорректном правиле
	ErrInvalidInput = errors.New("pricing: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("pricing: internal error")
)
