package get_availability

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SlotBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-SlotBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	getAvailability "github.com/m04kA/SMC-SlotBookingService/internal/usecase/get_availability"
)

const (
	msgInvalidTenantID  = "некорректный ID тенанта"
	msgInvalidListingID = "некорректный ID площадки"
	msgMissingDate      = "параметр date обязателен"
	msgInvalidDate      = "некорректная дата, ожидается YYYY-MM-DD"
	msgPastDate         = "нельзя получить слоты на прошедшую дату"
	msgDateTooFar       = "дата слишком далеко в будущем"
	msgNotFound         = "площадка не найдена"
)

type Handler struct {
	useCase GetAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/tenants/{tenantId}/listings/{listingId}/availability?date=YYYY-MM-DD
// Публичный роут: пользователь опционален
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	tenantID, err := handlers.ParseID(vars["tenantId"])
	if err != nil {
		h.logger.Warn("GET /tenants/{id}/listings/{id}/availability - Invalid tenant ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTenantID)
		return
	}

	listingID, err := handlers.ParseID(vars["listingId"])
	if err != nil {
		h.logger.Warn("GET /tenants/{id}/listings/{id}/availability - Invalid listing ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidListingID)
		return
	}

	rawDate := r.URL.Query().Get("date")
	if rawDate == "" {
		h.logger.Warn("GET /tenants/{id}/listings/{id}/availability - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}
	date, err := domain.ParseDate(rawDate)
	if err != nil {
		h.logger.Warn("GET /tenants/{id}/listings/{id}/availability - Invalid date %q: %v", rawDate, err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	var userID int64
	if principal, ok := middleware.GetPrincipal(r.Context()); ok {
		userID = principal.UserID
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailability.Request{
		UserID:    userID,
		TenantID:  tenantID,
		ListingID: listingID,
		Date:      date,
	})
	if err != nil {
		switch {
		case errors.Is(err, getAvailability.ErrListingNotFound):
			h.logger.Warn("GET /tenants/{id}/listings/{id}/availability - Listing not found: tenant_id=%d, listing_id=%d", tenantID, listingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, getAvailability.ErrInvalidDate):
			h.logger.Warn("GET /tenants/{id}/listings/{id}/availability - Past date: %s", rawDate)
			handlers.RespondBadRequest(w, msgPastDate)

		case errors.Is(err, getAvailability.ErrDateTooFarInFuture):
			h.logger.Warn("GET /tenants/{id}/listings/{id}/availability - Date too far: %s", rawDate)
			handlers.RespondBadRequest(w, msgDateTooFar)

		case errors.Is(err, getAvailability.ErrInvalidInput):
			h.logger.Warn("GET /tenants/{id}/listings/{id}/availability - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDate)

		default:
			h.logger.Error("GET /tenants/{id}/listings/{id}/availability - Failed to get availability: listing_id=%d, error=%v", listingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /tenants/{id}/listings/{id}/availability - Availability retrieved: listing_id=%d, date=%s, slots=%d",
		listingID, rawDate, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
