package deactivate_pricing_rule

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-SlotBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/pricing"
	"github.com/m04kA/SMC-SlotBookingService/pkg/logger"
)

type fakeService struct {
	ruleID int64
	err    error
}

func (f *fakeService) DeactivateRule(_ context.Context, _ domain.Principal, _, _, ruleID int64) error {
	f.ruleID = ruleID
	return f.err
}

func serve(svc *fakeService, ruleID string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodDelete, "/api/v1/tenants/1/listings/2/pricing-rules/"+ruleID, nil)
	r = mux.SetURLVars(r, map[string]string{"tenantId": "1", "listingId": "2", "ruleId": ruleID})
	r = r.WithContext(middleware.WithPrincipal(r.Context(), domain.Principal{UserID: 7, Role: domain.RoleTenantAdmin}))

	w := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(w, r)
	return w
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name       string
		ruleID     string
		err        error
		wantStatus int
	}{
		{name: "deactivated", ruleID: "3", wantStatus: http.StatusNoContent},
		{name: "bad id", ruleID: "-1", wantStatus: http.StatusBadRequest},
		{name: "forbidden", ruleID: "3", err: pricing.ErrAccessDenied, wantStatus: http.StatusForbidden},
		{name: "rule not found", ruleID: "3", err: pricing.ErrRuleNotFound, wantStatus: http.StatusNotFound},
		{name: "listing not found", ruleID: "3", err: pricing.ErrListingNotFound, wantStatus: http.StatusNotFound},
		{name: "internal", ruleID: "3", err: pricing.ErrInternal, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, serve(&fakeService{err: tt.err}, tt.ruleID).Code)
		})
	}
}
