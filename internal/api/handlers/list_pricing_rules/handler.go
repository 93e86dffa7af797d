package list_pricing_rules

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SlotBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-SlotBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/pricing"
)

const (
	msgInvalidTenantID  = "некорректный ID тенанта"
	msgInvalidListingID = "некорректный ID площадки"
	msgInvalidFlag      = "некорректный параметр includeInactive"
	msgMissingUserID    = "отсутствует ID пользователя"
	msgForbidden        = "доступ запрещен"
	msgListingNotFound  = "площадка не найдена"
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

// Handle GET /api/v1/tenants/{tenantId}/listings/{listingId}/pricing-rules?includeInactive=true
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	tenantID, err := handlers.ParseID(vars["tenantId"])
	if err != nil {
		h.logger.Warn("GET /pricing-rules - Invalid tenant ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTenantID)
		return
	}
	listingID, err := handlers.ParseID(vars["listingId"])
	if err != nil {
		h.logger.Warn("GET /pricing-rules - Invalid listing ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidListingID)
		return
	}

	var includeInactive bool
	if raw := r.URL.Query().Get("includeInactive"); raw != "" {
		includeInactive, err = strconv.ParseBool(raw)
		if err != nil {
			h.logger.Warn("GET /pricing-rules - Invalid includeInactive: %v", err)
			handlers.RespondBadRequest(w, msgInvalidFlag)
			return
		}
	}

	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.logger.Warn("GET /pricing-rules - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	result, err := h.service.ListRules(r.Context(), principal, tenantID, listingID, includeInactive)
	if err != nil {
		switch {
		case errors.Is(err, pricing.ErrAccessDenied):
			h.logger.Warn("GET /pricing-rules - Access denied: tenant_id=%d, user_id=%d", tenantID, principal.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, pricing.ErrListingNotFound):
			h.logger.Warn("GET /pricing-rules - Listing not found: tenant_id=%d, listing_id=%d", tenantID, listingID)
			handlers.RespondNotFound(w, msgListingNotFound)

		default:
			h.logger.Error("GET /pricing-rules - Failed to list rules: listing_id=%d, error=%v", listingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /pricing-rules - Rules retrieved: listing_id=%d, count=%d", listingID, len(result.Rules))
	handlers.RespondJSON(w, http.StatusOK, result)
}
