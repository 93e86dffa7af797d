package list_pricing_rules

import (
	"context"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/pricing/models"
)

type PricingService interface {
	ListRules(ctx context.Context, principal domain.Principal, tenantID, listingID int64, includeInactive bool) (*models.RuleListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
