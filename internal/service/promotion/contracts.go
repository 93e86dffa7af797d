package promotion

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
)

// PromotionRepository интерфейс репозитория промо-акций
type PromotionRepository interface {
	GetByCode(ctx context.Context, code string, tenantID int64) (*domain.Promotion, error)
	GetByID(ctx context.Context, id int64) (*domain.Promotion, error)
	ListAutomatic(ctx context.Context, tenantID int64, now time.Time) ([]*domain.Promotion, error)
	CountUserUsages(ctx context.Context, promotionID, userID int64) (int, error)
	CountActiveHolds(ctx context.Context, promotionID int64, now time.Time) (int, error)
	InsertUsage(ctx context.Context, usage *domain.PromotionUsage) (bool, error)
	IncrementUsedCount(ctx context.Context, promotionID int64) (bool, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счётчики промо-акций
type Metrics interface {
	IncPromotionRejected(reason string)
	IncPromotionUsage(result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
