package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	listingClient "github.com/m04kA/SMC-SlotBookingService/internal/integrations/listingservice"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/pricing/models"
	"github.com/m04kA/SMC-SlotBookingService/pkg/logger"
	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
	"github.com/m04kA/SMC-SlotBookingService/pkg/ptr"
)

type fakeRuleRepo struct {
	rules   []domain.PricingRule
	created []*domain.PricingRule
}

func (r *fakeRuleRepo) Create(_ context.Context, rule *domain.PricingRule) (*domain.PricingRule, error) {
	rule.ID = int64(len(r.created) + 1)
	r.created = append(r.created, rule)
	return rule, nil
}

func (r *fakeRuleRepo) ListByListing(_ context.Context, _, _ int64, _ bool) ([]domain.PricingRule, error) {
	return r.rules, nil
}

func (r *fakeRuleRepo) Deactivate(_ context.Context, _, _, _ int64) error {
	return nil
}

type fakeListings struct{}

func (fakeListings) GetListing(_ context.Context, tenantID, listingID int64) (*domain.Listing, error) {
	if tenantID != 7 || listingID != 10 {
		return nil, listingClient.ErrListingNotFound
	}
	return &domain.Listing{ID: 10, TenantID: 7, BasePrice: 50000, Currency: "INR", Active: true}, nil
}

type countingMetrics struct {
	warnings int
}

func (m *countingMetrics) IncPricingWarning(int64) {
	m.warnings++
}

func tenantAdmin() domain.Principal {
	return domain.Principal{UserID: 1, TenantID: ptr.Ptr(int64(7)), Role: domain.RoleTenantAdmin}
}

func TestQuoteSlots_ReportsWarnings(t *testing.T) {
	repo := &fakeRuleRepo{rules: []domain.PricingRule{
		newRule(1, 10, weekend, domain.ModifierFlat, domain.OperationSubtract, "600"),
	}}
	m := &countingMetrics{}
	svc := NewService(repo, fakeListings{}, m, logger.NewNop())

	priceOverride := money.Amount(80000)
	listing := &domain.Listing{
		ID: 10, TenantID: 7, BasePrice: 50000, Currency: "INR", Active: true,
		Window: domain.AvailabilityWindow{Overrides: map[string]domain.SlotOverride{
			"19:00-20:00": {Active: true, PriceOverride: &priceOverride},
		}},
	}
	slots := []domain.Slot{{Start: "18:00", End: "19:00"}, {Start: "19:00", End: "20:00"}}

	lines, err := svc.QuoteSlots(context.Background(), listing, saturday, slots, evalTime, nil)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, money.Zero, lines[0].FinalPrice)
	assert.Equal(t, []string{WarningNegativePrice}, lines[0].Warnings)
	assert.Equal(t, money.Amount(80000), lines[1].BasePrice)
	assert.Equal(t, money.Amount(20000), lines[1].FinalPrice)
	assert.Equal(t, 1, m.warnings)
}

func TestCreateRule(t *testing.T) {
	repo := &fakeRuleRepo{}
	svc := NewService(repo, fakeListings{}, &countingMetrics{}, logger.NewNop())

	req := &models.CreateRuleRequest{
		Name: "Weekend evenings",
		Type: "weekend",
		Conditions: models.ConditionsDTO{
			DaysOfWeek: []int{0, 6},
			TimeRange:  &models.TimeRangeDTO{Start: "18:00", End: "22:00"},
		},
		Modifier: models.ModifierDTO{Kind: "percentage", Operation: "add", Value: decimal.NewFromInt(20)},
		Priority: 10,
	}

	t.Run("created by tenant admin", func(t *testing.T) {
		resp, err := svc.CreateRule(context.Background(), tenantAdmin(), 7, 10, req)
		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.ID)
		assert.True(t, resp.Active)
		assert.Equal(t, []int{0, 6}, resp.Conditions.DaysOfWeek)
		assert.Equal(t, []time.Weekday{time.Sunday, time.Saturday}, repo.created[0].Conditions.DaysOfWeek)
	})

	t.Run("customer is denied", func(t *testing.T) {
		_, err := svc.CreateRule(context.Background(), domain.Principal{UserID: 2, Role: domain.RoleCustomer}, 7, 10, req)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("other tenant listing", func(t *testing.T) {
		_, err := svc.CreateRule(context.Background(), domain.Principal{UserID: 3, Role: domain.RolePlatformAdmin}, 7, 11, req)
		assert.ErrorIs(t, err, ErrListingNotFound)
	})

	t.Run("conditions do not match type", func(t *testing.T) {
		bad := *req
		bad.Type = "holiday"
		_, err := svc.CreateRule(context.Background(), tenantAdmin(), 7, 10, &bad)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
