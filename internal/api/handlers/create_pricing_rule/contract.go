package create_pricing_rule

import (
	"context"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/pricing/models"
)

type PricingService interface {
	CreateRule(ctx context.Context, principal domain.Principal, tenantID, listingID int64, req *models.CreateRuleRequest) (*models.RuleResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
