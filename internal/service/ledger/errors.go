package ledger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation запрос на резервирование некорректен
	ErrValidation = errors.New("ledger: validation failed")

	// ErrNotFound бронирование не найдено
	ErrNotFound = errors.New("ledger: booking not found")

	// ErrSlotConflict один или несколько слотов уже заняты
	ErrSlotConflict = errors.New("ledger: slots already taken")

	// ErrAlreadyReleased холд уже снят (бронирование отменено)
	ErrAlreadyReleased = errors.New("ledger: reservation already released")

	// ErrAlreadyConfirmed бронирование уже подтверждено
	ErrAlreadyConfirmed = errors.New("ledger: booking already confirmed")

	// ErrHoldExpired холд истёк до подтверждения
	ErrHoldExpired = errors.New("ledger: hold expired")

	// ErrInvalidTransition переход из текущего статуса запрещён
	ErrInvalidTransition = errors.New("ledger: invalid status transition")

	// ErrPricing расчёт стоимости холда не удался, холд не создан
	ErrPricing = errors.New("ledger: pricing failed")

	// ErrInternal внутренняя ошибка (хранилище недоступно и т.п.)
	ErrInternal = errors.New("ledger: internal error")
)

// SlotConflictError перечисляет занятые слоты
type SlotConflictError struct {
	SlotIDs []string
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("%v: %s", ErrSlotConflict, strings.Join(e.SlotIDs, ", "))
}

func (e *SlotConflictError) Unwrap() error {
	return ErrSlotConflict
}
