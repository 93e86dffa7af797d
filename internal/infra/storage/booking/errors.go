package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.repository: booking not found")

	// ErrSlotTaken возвращается при нарушении уникальности активного слота
	// (tenant_id, listing_id, booking_date, slot_id)
	ErrSlotTaken = errors.New("booking.repository: slot already taken")

	// ErrSerialization конфликт сериализации транзакции (40001), запрос можно повторить
	ErrSerialization = errors.New("booking.repository: serialization failure")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")

	// ErrEncode возвращается при ошибке сериализации jsonb полей
	ErrEncode = errors.New("booking.repository: failed to encode json")
)
