package deactivate_pricing_rule

import (
	"context"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
)

type PricingService interface {
	DeactivateRule(ctx context.Context, principal domain.Principal, tenantID, listingID, ruleID int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
