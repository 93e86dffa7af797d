package ledger

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
)

// ReserveRequest запрос на резервирование слотов
type ReserveRequest struct {
	Listing  *domain.Listing
	Date     time.Time
	SlotIDs  []string
	UserID   int64
	Customer domain.CustomerSnapshot
	HoldTTL  time.Duration // 0 = значение по умолчанию
	Actor    domain.Actor
	ActorID  *int64
	// Price заполняет расчёт стоимости и акцию холда до его сохранения.
	// Вызывается под блокировкой слотов; nil = бронирование без цены.
	Price PriceFunc
}

// PriceFunc считает стоимость бронирования, заполняя booking.Pricing и booking.Promotion
type PriceFunc func(ctx context.Context, booking *domain.Booking) error

// TransitionRequest кто и почему меняет статус
type TransitionRequest struct {
	Actor    domain.Actor
	ActorID  *int64
	Reason   string
	Metadata map[string]string
}

// ConfirmRequest запрос на подтверждение бронирования
type ConfirmRequest struct {
	TransitionRequest
	PaymentReference *string
	// Override подтверждение администратором, TTL холда не проверяется
	Override bool
}

// SweepResult итог обработки пачки бронирований фоновым воркером
type SweepResult struct {
	Processed []*domain.Booking
	Failed    int
}

// Config настройки ledger
type Config struct {
	DefaultHoldTTL time.Duration
	LockTTL        time.Duration
}

const (
	reasonHoldExpired = "hold expired"
	reasonCompleted   = "slot time passed"
)
