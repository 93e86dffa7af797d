package create_booking

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SlotBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-SlotBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/ledger"
	createBooking "github.com/m04kA/SMC-SlotBookingService/internal/usecase/create_booking"
)

const (
	msgInvalidTenantID    = "некорректный ID тенанта"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты бронирования, ожидается YYYY-MM-DD"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgSlotsTaken         = "выбранные слоты уже заняты"
	msgInvalidSlots       = "выбранные слоты недоступны для бронирования"
	msgListingNotFound    = "площадка не найдена"
	msgCustomerRequired   = "укажите имя клиента"
	msgPaymentDeclined    = "платёжный сервис отклонил заказ"
	msgTemporaryFailure   = "не удалось сохранить бронирование, попробуйте ещё раз"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/tenants/{tenantId}/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, err := handlers.ParseID(mux.Vars(r)["tenantId"])
	if err != nil {
		h.logger.Warn("POST /tenants/{id}/bookings - Invalid tenant ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTenantID)
		return
	}

	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.logger.Warn("POST /tenants/{id}/bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /tenants/{id}/bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(principal, tenantID)
	if err != nil {
		h.logger.Warn("POST /tenants/{id}/bookings - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		var conflict *ledger.SlotConflictError
		switch {
		case errors.As(err, &conflict):
			h.logger.Warn("POST /tenants/{id}/bookings - Slots taken: listing_id=%d, slots=%v", req.ListingID, conflict.SlotIDs)
			handlers.RespondErrorDetails(w, http.StatusConflict, msgSlotsTaken, SlotConflictDetails{SlotIDs: conflict.SlotIDs})

		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /tenants/{id}/bookings - Invalid slots: listing_id=%d, error=%v", req.ListingID, err)
			handlers.RespondErrorDetails(w, http.StatusBadRequest, msgInvalidSlots, err.Error())

		case errors.Is(err, createBooking.ErrListingNotFound):
			h.logger.Warn("POST /tenants/{id}/bookings - Listing not found: tenant_id=%d, listing_id=%d", tenantID, req.ListingID)
			handlers.RespondNotFound(w, msgListingNotFound)

		case errors.Is(err, createBooking.ErrCustomerRequired):
			h.logger.Warn("POST /tenants/{id}/bookings - Customer name missing: user_id=%d", principal.UserID)
			handlers.RespondBadRequest(w, msgCustomerRequired)

		case errors.Is(err, createBooking.ErrPaymentDeclined):
			h.logger.Warn("POST /tenants/{id}/bookings - Payment declined: user_id=%d", principal.UserID)
			handlers.RespondError(w, http.StatusPaymentRequired, msgPaymentDeclined)

		case errors.Is(err, createBooking.ErrPersistence):
			h.logger.Error("POST /tenants/{id}/bookings - Persistence failure: listing_id=%d, error=%v", req.ListingID, err)
			handlers.RespondError(w, http.StatusServiceUnavailable, msgTemporaryFailure)

		default:
			h.logger.Error("POST /tenants/{id}/bookings - Failed to create booking: user_id=%d, listing_id=%d, error=%v",
				principal.UserID, req.ListingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /tenants/{id}/bookings - Booking created successfully: booking_id=%d, user_id=%d, listing_id=%d",
		result.Booking.ID, principal.UserID, req.ListingID)
	handlers.RespondJSON(w, http.StatusCreated, CreateBookingResponse{
		Booking:            result.Booking,
		PromotionRejection: result.PromotionRejection,
	})
}
