package create_pricing_rule

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SlotBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-SlotBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/pricing"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/pricing/models"
)

const (
	msgInvalidTenantID    = "некорректный ID тенанта"
	msgInvalidListingID   = "некорректный ID площадки"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidRule        = "некорректное правило ценообразования"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgForbidden          = "доступ запрещен"
	msgListingNotFound    = "площадка не найдена"
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

// Handle POST /api/v1/tenants/{tenantId}/listings/{listingId}/pricing-rules
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	tenantID, err := handlers.ParseID(vars["tenantId"])
	if err != nil {
		h.logger.Warn("POST /pricing-rules - Invalid tenant ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTenantID)
		return
	}
	listingID, err := handlers.ParseID(vars["listingId"])
	if err != nil {
		h.logger.Warn("POST /pricing-rules - Invalid listing ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidListingID)
		return
	}

	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.logger.Warn("POST /pricing-rules - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req models.CreateRuleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /pricing-rules - Invalid request body: %v", err)
		handlers.RespondErrorDetails(w, http.StatusBadRequest, msgInvalidRequestBody, err.Error())
		return
	}

	rule, err := h.service.CreateRule(r.Context(), principal, tenantID, listingID, &req)
	if err != nil {
		switch {
		case errors.Is(err, pricing.ErrAccessDenied):
			h.logger.Warn("POST /pricing-rules - Access denied: tenant_id=%d, user_id=%d", tenantID, principal.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, pricing.ErrListingNotFound):
			h.logger.Warn("POST /pricing-rules - Listing not found: tenant_id=%d, listing_id=%d", tenantID, listingID)
			handlers.RespondNotFound(w, msgListingNotFound)

		case errors.Is(err, pricing.ErrInvalidInput):
			h.logger.Warn("POST /pricing-rules - Invalid rule: %v", err)
			handlers.RespondErrorDetails(w, http.StatusBadRequest, msgInvalidRule, err.Error())

		default:
			h.logger.Error("POST /pricing-rules - Failed to create rule: listing_id=%d, error=%v", listingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /pricing-rules - Rule created: rule_id=%d, listing_id=%d, type=%s", rule.ID, listingID, rule.Type)
	handlers.RespondJSON(w, http.StatusCreated, rule)
}
