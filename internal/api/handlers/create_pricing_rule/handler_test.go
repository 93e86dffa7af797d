package create_pricing_rule

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
	"github.com/m04kA/SMC-SlotBookingService/internal/service/pricing"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/pricing/models"
	"github.com/m04kA/SMC-SlotBookingService/pkg/logger"
)

const weekendRule = `{
	"name": "Weekend surcharge",
	"type": "weekend",
	"conditions": {"daysOfWeek": [0, 6]},
	"modifier": {"kind": "percentage", "operation": "add", "value": "20"},
	"priority": 10
}`

type fakeService struct {
	got *models.CreateRuleRequest
	err error
}

func (f *fakeService) CreateRule(_ context.Context, _ domain.Principal, tenantID, listingID int64, req *models.CreateRuleRequest) (*models.RuleResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.RuleResponse{ID: 1, TenantID: tenantID, ListingID: listingID, Name: req.Name, Type: req.Type, Active: true}, nil
}

func serve(svc *fakeService, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/tenants/1/listings/2/pricing-rules", strings.NewReader(body))
	r = mux.SetURLVars(r, map[string]string{"tenantId": "1", "listingId": "2"})
	r = r.WithContext(middleware.WithPrincipal(r.Context(), domain.Principal{UserID: 7, Role: domain.RoleTenantAdmin}))

	w := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(w, r)
	return w
}

func TestHandle_Created(t *testing.T) {
	svc := &fakeService{}

	w := serve(svc, weekendRule)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.got)
	assert.Equal(t, "weekend", svc.got.Type)
	assert.Equal(t, []int{0, 6}, svc.got.Conditions.DaysOfWeek)
	assert.Equal(t, "20", svc.got.Modifier.Value.String())
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "unknown type", body: `{"name":"x","type":"lunar","modifier":{"kind":"flat","operation":"add","value":"1"}}`, wantStatus: http.StatusBadRequest},
		{name: "forbidden", body: weekendRule, err: pricing.ErrAccessDenied, wantStatus: http.StatusForbidden},
		{name: "listing not found", body: weekendRule, err: pricing.ErrListingNotFound, wantStatus: http.StatusNotFound},
		{name: "invalid rule", body: weekendRule, err: pricing.ErrInvalidInput, wantStatus: http.StatusBadRequest},
		{name: "internal", body: weekendRule, err: pricing.ErrInternal, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, serve(&fakeService{err: tt.err}, tt.body).Code)
		})
	}
}
