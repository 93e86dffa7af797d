package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
	"github.com/m04kA/SMC-SlotBookingService/pkg/types"
)

// ErrInvalidPricingRule is returned when a rule fails construction-time validation
var ErrInvalidPricingRule = errors.New("domain: invalid pricing rule")

// RuleType kind of dynamic pricing rule
type RuleType string

const (
	RuleWeekend     RuleType = "weekend"
	RuleWeekday     RuleType = "weekday"
	RuleHoliday     RuleType = "holiday"
	RulePeakSeason  RuleType = "peak_season"
	RuleOffSeason   RuleType = "off_season"
	RuleLastMinute  RuleType = "last_minute"
	RuleEarlyBird   RuleType = "early_bird"
	RuleDemandBased RuleType = "demand_based"
)

// ModifierKind how the modifier value is interpreted
type ModifierKind string

const (
	ModifierPercentage ModifierKind = "percentage"
	ModifierFlat       ModifierKind = "flat"
)

// Operation how the modifier is applied to the running price
type Operation string

const (
	OperationAdd      Operation = "add"
	OperationSubtract Operation = "subtract"
	OperationMultiply Operation = "multiply"
	OperationSet      Operation = "set"
)

// DateRange inclusive range of calendar dates
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains compares calendar dates only
func (r DateRange) Contains(date time.Time) bool {
	d := dateOnly(date)
	return !d.Before(dateOnly(r.From)) && !d.After(dateOnly(r.To))
}

// TimeRange half-open range of the day [Start, End)
type TimeRange struct {
	Start types.TimeString
	End   types.TimeString
}

// Contains reports whether t falls into [Start, End)
func (r TimeRange) Contains(t types.TimeString) bool {
	m := t.MustMinutes()
	return m >= r.Start.MustMinutes() && m < r.End.MustMinutes()
}

// IntBounds inclusive integer bounds, nil = unbounded
type IntBounds struct {
	Min *int
	Max *int
}

// Contains reports whether v satisfies both bounds
func (b IntBounds) Contains(v int) bool {
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v > *b.Max {
		return false
	}
	return true
}

// IsZero no bound set
func (b IntBounds) IsZero() bool {
	return b.Min == nil && b.Max == nil
}

// RuleConditions condition set of a rule. Only the fields relevant to the rule type are populated.
type RuleConditions struct {
	DaysOfWeek    []time.Weekday
	DateRange     *DateRange
	SpecificDates []time.Time
	TimeRange     *TimeRange
	DaysBefore    *IntBounds
	Occupancy     *IntBounds // percent 0..100
}

// Modifier price change applied by a rule.
// Percentage values are percents; flat values are in major currency units
// (for multiply a flat value is the factor itself).
type Modifier struct {
	Kind      ModifierKind
	Operation Operation
	Value     decimal.Decimal
}

// PricingRule dynamic pricing rule of a listing
type PricingRule struct {
	ID         int64
	TenantID   int64
	ListingID  int64
	Name       string
	Type       RuleType
	Conditions RuleConditions
	Modifier   Modifier
	Priority   int
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewPricingRule validates and builds an active rule
func NewPricingRule(tenantID, listingID int64, name string, ruleType RuleType, cond RuleConditions, mod Modifier, priority int) (*PricingRule, error) {
	rule := &PricingRule{
		TenantID:   tenantID,
		ListingID:  listingID,
		Name:       name,
		Type:       ruleType,
		Conditions: cond,
		Modifier:   mod,
		Priority:   priority,
		Active:     true,
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}

// Validate checks that the condition set matches the rule type and the modifier is well formed
func (r *PricingRule) Validate() error {
	c := r.Conditions

	switch r.Type {
	case RuleWeekend, RuleWeekday:
		if len(c.DaysOfWeek) == 0 {
			return fmt.Errorf("%w: %s rule requires days of week", ErrInvalidPricingRule, r.Type)
		}
	case RuleHoliday:
		if len(c.SpecificDates) == 0 {
			return fmt.Errorf("%w: holiday rule requires specific dates", ErrInvalidPricingRule)
		}
	case RulePeakSeason, RuleOffSeason:
		if c.DateRange == nil {
			return fmt.Errorf("%w: %s rule requires a date range", ErrInvalidPricingRule, r.Type)
		}
	case RuleLastMinute:
		if c.DaysBefore == nil || c.DaysBefore.Max == nil {
			return fmt.Errorf("%w: last_minute rule requires max days before", ErrInvalidPricingRule)
		}
	case RuleEarlyBird:
		if c.DaysBefore == nil || c.DaysBefore.Min == nil {
			return fmt.Errorf("%w: early_bird rule requires min days before", ErrInvalidPricingRule)
		}
	case RuleDemandBased:
		if c.Occupancy == nil || c.Occupancy.IsZero() {
			return fmt.Errorf("%w: demand_based rule requires occupancy bounds", ErrInvalidPricingRule)
		}
	default:
		return fmt.Errorf("%w: unknown rule type %q", ErrInvalidPricingRule, r.Type)
	}

	for _, d := range c.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: invalid weekday %d", ErrInvalidPricingRule, d)
		}
	}
	if c.DateRange != nil && c.DateRange.From.After(c.DateRange.To) {
		return fmt.Errorf("%w: date range start after end", ErrInvalidPricingRule)
	}
	if c.TimeRange != nil {
		if err := c.TimeRange.Start.Validate(); err != nil {
			return fmt.Errorf("%w: time range start: %v", ErrInvalidPricingRule, err)
		}
		if err := c.TimeRange.End.Validate(); err != nil {
			return fmt.Errorf("%w: time range end: %v", ErrInvalidPricingRule, err)
		}
		if !c.TimeRange.Start.IsBefore(c.TimeRange.End) {
			return fmt.Errorf("%w: time range start must be before end", ErrInvalidPricingRule)
		}
	}
	for _, b := range []*IntBounds{c.DaysBefore, c.Occupancy} {
		if b != nil && b.Min != nil && b.Max != nil && *b.Min > *b.Max {
			return fmt.Errorf("%w: bounds min greater than max", ErrInvalidPricingRule)
		}
	}

	return r.Modifier.Validate()
}

// Validate checks kind, operation and value of the modifier
func (m Modifier) Validate() error {
	switch m.Kind {
	case ModifierPercentage, ModifierFlat:
	default:
		return fmt.Errorf("%w: unknown modifier kind %q", ErrInvalidPricingRule, m.Kind)
	}

	switch m.Operation {
	case OperationAdd, OperationSubtract, OperationMultiply, OperationSet:
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidPricingRule, m.Operation)
	}

	if m.Value.IsNegative() {
		return fmt.Errorf("%w: modifier value must not be negative", ErrInvalidPricingRule)
	}
	return nil
}

// AppliedRule rule that fired during evaluation. Prices are rounded for display only.
type AppliedRule struct {
	RuleID      int64
	Name        string
	Type        RuleType
	Kind        ModifierKind
	Operation   Operation
	Value       decimal.Decimal
	Priority    int
	PriceBefore money.Amount
	PriceAfter  money.Amount
}

// PriceEvaluation result of folding the rules over a base price
type PriceEvaluation struct {
	BasePrice    money.Amount
	FinalPrice   money.Amount
	AppliedRules []AppliedRule
	Warnings     []string
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate compares calendar dates ignoring time and location
func SameDate(a, b time.Time) bool {
	return dateOnly(a).Equal(dateOnly(b))
}
