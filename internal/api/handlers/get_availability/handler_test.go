package get_availability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	getAvailability "github.com/m04kA/SMC-SlotBookingService/internal/usecase/get_availability"
	"github.com/m04kA/SMC-SlotBookingService/pkg/logger"
)

type fakeUseCase struct {
	got *getAvailability.Request
	err error
}

func (f *fakeUseCase) Execute(_ context.Context, req *getAvailability.Request) (*getAvailability.Response, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &getAvailability.Response{
		Date:      req.Date,
		TenantID:  req.TenantID,
		ListingID: req.ListingID,
		Currency:  "INR",
		Occupancy: 50,
		Slots: []getAvailability.Slot{
			{ID: "09:00-10:00", StartTime: "09:00", EndTime: "10:00", DurationMinutes: 60, Available: true, BasePrice: 50000, Price: 60000},
			{ID: "10:00-11:00", StartTime: "10:00", EndTime: "11:00", DurationMinutes: 60, Available: false, BasePrice: 50000, Price: 60000},
		},
	}, nil
}

func serve(uc *fakeUseCase, query string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/tenants/1/listings/2/availability"+query, nil)
	r = mux.SetURLVars(r, map[string]string{"tenantId": "1", "listingId": "2"})

	w := httptest.NewRecorder()
	NewHandler(uc, logger.NewNop()).Handle(w, r)
	return w
}

func TestHandle(t *testing.T) {
	uc := &fakeUseCase{}

	w := serve(uc, "?date=2025-06-02")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), uc.got.UserID)
	assert.Equal(t, "2025-06-02", uc.got.Date.Format("2006-01-02"))

	var body AvailabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2025-06-02", body.Date)
	assert.Equal(t, 50, body.Occupancy)
	require.Len(t, body.Slots, 2)
	assert.Equal(t, "500.00", body.Slots[0].BasePrice)
	assert.Equal(t, "600.00", body.Slots[0].Price)
	assert.False(t, body.Slots[1].Available)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		err        error
		wantStatus int
	}{
		{name: "missing date", query: "", wantStatus: http.StatusBadRequest},
		{name: "bad date", query: "?date=02.06.2025", wantStatus: http.StatusBadRequest},
		{name: "not found", query: "?date=2025-06-02", err: getAvailability.ErrListingNotFound, wantStatus: http.StatusNotFound},
		{name: "past date", query: "?date=2025-06-02", err: getAvailability.ErrInvalidDate, wantStatus: http.StatusBadRequest},
		{name: "too far", query: "?date=2025-06-02", err: getAvailability.ErrDateTooFarInFuture, wantStatus: http.StatusBadRequest},
		{name: "internal", query: "?date=2025-06-02", err: getAvailability.ErrInternal, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, serve(&fakeUseCase{err: tt.err}, tt.query).Code)
		})
	}
}
