package deactivate_pricing_rule

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SlotBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-SlotBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/pricing"
)

const (
	msgInvalidID       = "некорректный ID"
	msgMissingUserID   = "отсутствует ID пользователя"
	msgForbidden       = "доступ запрещен"
	msgListingNotFound = "площадка не найдена"
	msgRuleNotFound    = "правило не найдено"
)

type Handler struct {
	service PricingService
	logger  Logger
}

func NewHandler(service PricingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle DELETE /api/v1/tenants/{tenantId}/listings/{listingId}/pricing-rules/{ruleId}
// Правило не удаляется, а деактивируется
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var ids [3]int64
	for i, key := range []string{"tenantId", "listingId", "ruleId"} {
		id, err := handlers.ParseID(vars[key])
		if err != nil {
			h.logger.Warn("DELETE /pricing-rules/{id} - Invalid %s: %v", key, err)
			handlers.RespondBadRequest(w, msgInvalidID)
			return
		}
		ids[i] = id
	}
	tenantID, listingID, ruleID := ids[0], ids[1], ids[2]

	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.logger.Warn("DELETE /pricing-rules/{id} - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	if err := h.service.DeactivateRule(r.Context(), principal, tenantID, listingID, ruleID); err != nil {
		switch {
		case errors.Is(err, pricing.ErrAccessDenied):
			h.logger.Warn("DELETE /pricing-rules/{id} - Access denied: tenant_id=%d, user_id=%d", tenantID, principal.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, pricing.ErrListingNotFound):
			h.logger.Warn("DELETE /pricing-rules/{id} - Listing not found: listing_id=%d", listingID)
			handlers.RespondNotFound(w, msgListingNotFound)

		case errors.Is(err, pricing.ErrRuleNotFound):
			h.logger.Warn("DELETE /pricing-rules/{id} - Rule not found: rule_id=%d", ruleID)
			handlers.RespondNotFound(w, msgRuleNotFound)

		default:
			h.logger.Error("DELETE /pricing-rules/{id} - Failed to deactivate rule: rule_id=%d, error=%v", ruleID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /pricing-rules/{id} - Rule deactivated: rule_id=%d, user_id=%d", ruleID, principal.UserID)
	w.WriteHeader(http.StatusNoContent)
}
