package get_user_bookings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SlotBookingService/pkg/logger"
)

type fakeService struct {
	got *models.GetUserBookingsRequest
	err error
}

func (f *fakeService) GetUserBookings(_ context.Context, _ domain.Principal, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.BookingListResponse{Bookings: []models.BookingResponse{{ID: 1}}}, nil
}

func serve(svc *fakeService, target string, withPrincipal bool) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	if withPrincipal {
		r = r.WithContext(middleware.WithPrincipal(r.Context(), domain.Principal{UserID: 100}))
	}

	w := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(w, r)
	return w
}

func TestHandle(t *testing.T) {
	svc := &fakeService{}

	w := serve(svc, "/api/v1/users/me/bookings?status=pending&limit=5", true)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.got.Status)
	assert.Equal(t, "pending", *svc.got.Status)
	assert.Equal(t, 5, svc.got.Limit)
}

func TestHandle_Errors(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, serve(&fakeService{}, "/x", false).Code)
	assert.Equal(t, http.StatusBadRequest, serve(&fakeService{}, "/x?limit=many", true).Code)
	assert.Equal(t, http.StatusBadRequest, serve(&fakeService{err: bookings.ErrInvalidInput}, "/x?status=odd", true).Code)
	assert.Equal(t, http.StatusInternalServerError, serve(&fakeService{err: bookings.ErrInternal}, "/x", true).Code)
}
