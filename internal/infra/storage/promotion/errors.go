package promotion

import "errors"

var (
	// ErrPromotionNotFound возвращается, когда промо-акция не найдена
	ErrPromotionNotFound = errors.New("promotion.repository: promotion not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("promotion.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("promotion.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("promotion.repository: failed to scan row")
)
