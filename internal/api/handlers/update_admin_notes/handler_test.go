package update_admin_notes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SlotBookingService/pkg/logger"
)

type fakeService struct {
	notes string
	err   error
}

func (f *fakeService) UpdateAdminNotes(_ context.Context, _ domain.Principal, id int64, req *models.UpdateAdminNotesRequest) (*models.BookingResponse, error) {
	f.notes = req.Notes
	if f.err != nil {
		return nil, f.err
	}
	return &models.BookingResponse{ID: id}, nil
}

func serve(svc *fakeService, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPatch, "/api/v1/bookings/4/admin-notes", strings.NewReader(body))
	r = mux.SetURLVars(r, map[string]string{"bookingId": "4"})
	r = r.WithContext(middleware.WithPrincipal(r.Context(), domain.Principal{UserID: 7, Role: domain.RoleTenantAdmin}))

	w := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(w, r)
	return w
}

func TestHandle(t *testing.T) {
	svc := &fakeService{}

	w := serve(svc, `{"notes":"VIP guest"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "VIP guest", svc.notes)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "too long", body: `{"notes":"` + strings.Repeat("a", domain.MaxAdminNotesLength+1) + `"}`, wantStatus: http.StatusBadRequest},
		{name: "empty body", body: "", wantStatus: http.StatusBadRequest},
		{name: "not found", body: `{"notes":"x"}`, err: bookings.ErrBookingNotFound, wantStatus: http.StatusNotFound},
		{name: "forbidden", body: `{"notes":"x"}`, err: bookings.ErrAccessDenied, wantStatus: http.StatusForbidden},
		{name: "internal", body: `{"notes":"x"}`, err: bookings.ErrInternal, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, serve(&fakeService{err: tt.err}, tt.body).Code)
		})
	}
}
