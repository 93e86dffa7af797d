package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
	"github.com/m04kA/SMC-SlotBookingService/pkg/ptr"
)

var (
	created  = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	saturday = time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	evalTime = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	weekend  = domain.RuleConditions{DaysOfWeek: []time.Weekday{time.Saturday, time.Sunday}}
)

func newRule(id int64, priority int, cond domain.RuleConditions, kind domain.ModifierKind, op domain.Operation, value string) domain.PricingRule {
	return domain.PricingRule{
		ID:         id,
		TenantID:   7,
		ListingID:  10,
		Name:       "rule",
		Type:       domain.RuleWeekend,
		Conditions: cond,
		Modifier:   domain.Modifier{Kind: kind, Operation: op, Value: decimal.RequireFromString(value)},
		Priority:   priority,
		Active:     true,
		CreatedAt:  created,
	}
}

func target(date time.Time) PriceTarget {
	return PriceTarget{
		Date:           date,
		Slot:           domain.Slot{Start: "18:00", End: "19:00"},
		EvaluationTime: evalTime,
	}
}

func TestEvaluatePrice_WeekendSurcharge(t *testing.T) {
	rules := []domain.PricingRule{
		newRule(1, 10, weekend, domain.ModifierPercentage, domain.OperationAdd, "20"),
	}

	got := EvaluatePrice(50000, rules, target(saturday), money.INR)

	assert.Equal(t, money.Amount(60000), got.FinalPrice)
	require.Len(t, got.AppliedRules, 1)
	assert.Equal(t, money.Amount(50000), got.AppliedRules[0].PriceBefore)
	assert.Equal(t, money.Amount(60000), got.AppliedRules[0].PriceAfter)
	assert.Empty(t, got.Warnings)
}

func TestEvaluatePrice_SetThenPercentage(t *testing.T) {
	rules := []domain.PricingRule{
		newRule(2, 5, weekend, domain.ModifierPercentage, domain.OperationAdd, "10"),
		newRule(1, 10, weekend, domain.ModifierFlat, domain.OperationSet, "400"),
	}

	got := EvaluatePrice(50000, rules, target(saturday), money.INR)

	assert.Equal(t, money.Amount(44000), got.FinalPrice)
	require.Len(t, got.AppliedRules, 2)
	assert.Equal(t, int64(1), got.AppliedRules[0].RuleID)
	assert.Equal(t, money.Amount(40000), got.AppliedRules[0].PriceAfter)
	assert.Equal(t, int64(2), got.AppliedRules[1].RuleID)
}

func TestEvaluatePrice_NoMatchingRules(t *testing.T) {
	rules := []domain.PricingRule{
		newRule(1, 10, weekend, domain.ModifierPercentage, domain.OperationAdd, "20"),
	}
	tuesday := time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC)

	got := EvaluatePrice(50000, rules, target(tuesday), money.INR)

	assert.Equal(t, money.Amount(50000), got.FinalPrice)
	assert.Empty(t, got.AppliedRules)
}

func TestEvaluatePrice_InactiveRuleIgnored(t *testing.T) {
	rule := newRule(1, 10, weekend, domain.ModifierPercentage, domain.OperationAdd, "20")
	rule.Active = false

	got := EvaluatePrice(50000, []domain.PricingRule{rule}, target(saturday), money.INR)
	assert.Equal(t, money.Amount(50000), got.FinalPrice)
}

func TestEvaluatePrice_NegativeClampedWithWarning(t *testing.T) {
	rules := []domain.PricingRule{
		newRule(1, 10, weekend, domain.ModifierFlat, domain.OperationSubtract, "600"),
	}

	got := EvaluatePrice(50000, rules, target(saturday), money.INR)

	assert.Equal(t, money.Zero, got.FinalPrice)
	assert.Equal(t, []string{WarningNegativePrice}, got.Warnings)
	require.Len(t, got.AppliedRules, 1)
	assert.Equal(t, money.Amount(-10000), got.AppliedRules[0].PriceAfter)
}

func TestEvaluatePrice_TiesByCreationThenID(t *testing.T) {
	first := newRule(9, 5, weekend, domain.ModifierFlat, domain.OperationSet, "100")
	second := newRule(3, 5, weekend, domain.ModifierFlat, domain.OperationAdd, "50")
	second.CreatedAt = created.Add(time.Hour)

	got := EvaluatePrice(50000, []domain.PricingRule{second, first}, target(saturday), money.INR)
	assert.Equal(t, money.Amount(15000), got.FinalPrice)
	assert.Equal(t, int64(9), got.AppliedRules[0].RuleID)

	// Одинаковое время создания: меньший ID раньше
	second.CreatedAt = created
	got = EvaluatePrice(50000, []domain.PricingRule{first, second}, target(saturday), money.INR)
	assert.Equal(t, int64(3), got.AppliedRules[0].RuleID)
	assert.Equal(t, money.Amount(10000), got.FinalPrice)
}

func TestEvaluatePrice_Deterministic(t *testing.T) {
	rules := []domain.PricingRule{
		newRule(1, 10, weekend, domain.ModifierPercentage, domain.OperationAdd, "20"),
		newRule(2, 10, weekend, domain.ModifierFlat, domain.OperationSubtract, "25.50"),
		newRule(3, 1, weekend, domain.ModifierPercentage, domain.OperationMultiply, "110"),
	}

	first := EvaluatePrice(50000, rules, target(saturday), money.INR)
	second := EvaluatePrice(50000, rules, target(saturday), money.INR)

	assert.Equal(t, first, second)
}

func TestEvaluatePrice_RoundsOnlyAtEnd(t *testing.T) {
	rules := []domain.PricingRule{
		newRule(1, 10, weekend, domain.ModifierPercentage, domain.OperationAdd, "50"),
		newRule(2, 5, weekend, domain.ModifierPercentage, domain.OperationAdd, "50"),
	}

	// 1 → 1.5 → 2.25 → 2; при промежуточном округлении получилось бы 3
	got := EvaluatePrice(1, rules, target(saturday), money.INR)
	assert.Equal(t, money.Amount(2), got.FinalPrice)
}

func TestEvaluatePrice_Operations(t *testing.T) {
	tests := []struct {
		name  string
		kind  domain.ModifierKind
		op    domain.Operation
		value string
		want  money.Amount
	}{
		{name: "flat add in major units", kind: domain.ModifierFlat, op: domain.OperationAdd, value: "50", want: 55000},
		{name: "percentage subtract", kind: domain.ModifierPercentage, op: domain.OperationSubtract, value: "10", want: 45000},
		{name: "flat multiply by factor", kind: domain.ModifierFlat, op: domain.OperationMultiply, value: "1.5", want: 75000},
		{name: "percentage multiply", kind: domain.ModifierPercentage, op: domain.OperationMultiply, value: "80", want: 40000},
		{name: "percentage set of base", kind: domain.ModifierPercentage, op: domain.OperationSet, value: "50", want: 25000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := []domain.PricingRule{newRule(1, 1, weekend, tt.kind, tt.op, tt.value)}
			got := EvaluatePrice(50000, rules, target(saturday), money.INR)
			assert.Equal(t, tt.want, got.FinalPrice)
		})
	}
}

func TestEvaluatePrice_Conditions(t *testing.T) {
	earlyBird := domain.RuleConditions{DaysBefore: &domain.IntBounds{Min: ptr.Ptr(14)}}
	evening := domain.RuleConditions{TimeRange: &domain.TimeRange{Start: "17:00", End: "18:00"}}
	demand := domain.RuleConditions{Occupancy: &domain.IntBounds{Min: ptr.Ptr(70)}}
	holiday := domain.RuleConditions{SpecificDates: []time.Time{saturday}}
	season := domain.RuleConditions{DateRange: &domain.DateRange{
		From: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
	}}

	tests := []struct {
		name   string
		cond   domain.RuleConditions
		target PriceTarget
		fires  bool
	}{
		{name: "early bird too close", cond: earlyBird, target: target(saturday), fires: false},
		{name: "early bird far enough", cond: earlyBird, target: target(saturday.AddDate(0, 0, 14)), fires: true},
		{name: "time range end is exclusive", cond: evening, target: target(saturday), fires: false},
		{name: "demand without occupancy", cond: demand, target: target(saturday), fires: false},
		{name: "demand with occupancy", cond: demand, target: func() PriceTarget {
			tg := target(saturday)
			tg.Occupancy = ptr.Ptr(80)
			return tg
		}(), fires: true},
		{name: "specific date", cond: holiday, target: target(saturday), fires: true},
		{name: "date range inclusive end", cond: season, target: target(saturday), fires: true},
		{name: "outside date range", cond: season, target: target(saturday.AddDate(0, 0, 1)), fires: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := []domain.PricingRule{newRule(1, 1, tt.cond, domain.ModifierPercentage, domain.OperationAdd, "10")}
			got := EvaluatePrice(50000, rules, tt.target, money.INR)
			assert.Equal(t, tt.fires, len(got.AppliedRules) == 1)
		})
	}
}
