package confirm_booking

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
	confirmBooking "github.com/m04kA/SMC-SlotBookingService/internal/usecase/confirm_booking"
	"github.com/m04kA/SMC-SlotBookingService/pkg/logger"
)

type fakeUseCase struct {
	got  *confirmBooking.Request
	resp *confirmBooking.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *confirmBooking.Request) (*confirmBooking.Response, error) {
	f.got = req
	return f.resp, f.err
}

func serve(uc *fakeUseCase, bookingID string, body io.Reader) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/"+bookingID+"/confirm", body)
	r = mux.SetURLVars(r, map[string]string{"bookingId": bookingID})
	r = r.WithContext(middleware.WithPrincipal(r.Context(), domain.Principal{UserID: 7, Role: domain.RoleTenantAdmin}))

	w := httptest.NewRecorder()
	NewHandler(uc, logger.NewNop()).Handle(w, r)
	return w
}

func TestHandle_Confirmed(t *testing.T) {
	uc := &fakeUseCase{resp: &confirmBooking.Response{Booking: &models.BookingResponse{ID: 5, Status: "confirmed"}}}

	w := serve(uc, "5", strings.NewReader(`{"reason":"paid at desk"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(5), uc.got.BookingID)
	assert.Equal(t, "paid at desk", uc.got.Reason)

	var body ConfirmBookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "confirmed", body.Booking.Status)
	assert.False(t, body.AlreadyConfirmed)
}

func TestHandle_EmptyBody(t *testing.T) {
	uc := &fakeUseCase{resp: &confirmBooking.Response{Booking: &models.BookingResponse{ID: 5}, AlreadyConfirmed: true}}

	w := serve(uc, "5", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, uc.got.Reason)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		bookingID  string
		err        error
		wantStatus int
	}{
		{name: "bad id", bookingID: "abc", wantStatus: http.StatusBadRequest},
		{name: "not found", bookingID: "5", err: confirmBooking.ErrBookingNotFound, wantStatus: http.StatusNotFound},
		{name: "forbidden", bookingID: "5", err: confirmBooking.ErrAccessDenied, wantStatus: http.StatusForbidden},
		{name: "hold expired", bookingID: "5", err: confirmBooking.ErrHoldExpired, wantStatus: http.StatusGone},
		{name: "cancelled", bookingID: "5", err: confirmBooking.ErrAlreadyCancelled, wantStatus: http.StatusConflict},
		{name: "internal", bookingID: "5", err: confirmBooking.ErrInternal, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(&fakeUseCase{err: tt.err}, tt.bookingID, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
