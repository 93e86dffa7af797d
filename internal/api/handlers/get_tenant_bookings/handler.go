package get_tenant_bookings

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SlotBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-SlotBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
)

const (
	msgInvalidTenantID  = "некорректный ID тенанта"
	msgInvalidListingID = "некорректный ID площадки"
	msgInvalidLimit     = "некорректный limit"
	msgInvalidFilter    = "некорректный фильтр: проверьте дату (YYYY-MM-DD) и статус"
	msgMissingUserID    = "отсутствует ID пользователя"
	msgForbidden        = "доступ запрещен"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/tenants/{tenantId}/bookings
// Query params: listingId, date (YYYY-MM-DD), status, limit; все опциональны
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, err := handlers.ParseID(mux.Vars(r)["tenantId"])
	if err != nil {
		h.logger.Warn("GET /tenants/{id}/bookings - Invalid tenant ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTenantID)
		return
	}

	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.logger.Warn("GET /tenants/{id}/bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	query := r.URL.Query()
	serviceReq := &models.GetTenantBookingsRequest{TenantID: tenantID}

	if raw := query.Get("listingId"); raw != "" {
		listingID, err := handlers.ParseID(raw)
		if err != nil {
			h.logger.Warn("GET /tenants/{id}/bookings - Invalid listing ID: %v", err)
			handlers.RespondBadRequest(w, msgInvalidListingID)
			return
		}
		serviceReq.ListingID = &listingID
	}
	if date := query.Get("date"); date != "" {
		serviceReq.Date = &date
	}
	if status := query.Get("status"); status != "" {
		serviceReq.Status = &status
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			h.logger.Warn("GET /tenants/{id}/bookings - Invalid limit: %v", err)
			handlers.RespondBadRequest(w, msgInvalidLimit)
			return
		}
		serviceReq.Limit = limit
	}

	result, err := h.service.GetTenantBookings(r.Context(), principal, serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("GET /tenants/{id}/bookings - Access denied: tenant_id=%d, user_id=%d", tenantID, principal.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /tenants/{id}/bookings - Invalid filter: %v", err)
			handlers.RespondBadRequest(w, msgInvalidFilter)

		default:
			h.logger.Error("GET /tenants/{id}/bookings - Failed to get bookings: tenant_id=%d, error=%v", tenantID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /tenants/{id}/bookings - Bookings retrieved successfully: tenant_id=%d, count=%d",
		tenantID, len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, result)
}
