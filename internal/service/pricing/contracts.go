package pricing

import (
	"context"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
)

// RuleRepository интерфейс репозитория правил ценообразования
type RuleRepository interface {
	Create(ctx context.Context, rule *domain.PricingRule) (*domain.PricingRule, error)
	ListByListing(ctx context.Context, tenantID, listingID int64, onlyActive bool) ([]domain.PricingRule, error)
	Deactivate(ctx context.Context, tenantID, listingID, id int64) error
}

// ListingClient интерфейс клиента сервиса листингов
type ListingClient interface {
	GetListing(ctx context.Context, tenantID, listingID int64) (*domain.Listing, error)
}

// Metrics счётчик предупреждений конфигурации цен
type Metrics interface {
	IncPricingWarning(listingID int64)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
