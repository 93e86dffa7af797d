package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/pkg/types"
)

// Request модели

// CreateRuleRequest запрос на создание правила ценообразования
type CreateRuleRequest struct {
	Name       string        `json:"name" validate:"required,max=100"`
	Type       string        `json:"type" validate:"required,oneof=weekend weekday holiday peak_season off_season last_minute early_bird demand_based"`
	Conditions ConditionsDTO `json:"conditions"`
	Modifier   ModifierDTO   `json:"modifier"`
	Priority   int           `json:"priority" validate:"min=0,max=1000"`
}

// ConditionsDTO условия правила; заполняются только поля, нужные типу правила
type ConditionsDTO struct {
	DaysOfWeek    []int         `json:"daysOfWeek,omitempty" validate:"omitempty,dive,min=0,max=6"`
	DateRange     *DateRangeDTO `json:"dateRange,omitempty"`
	SpecificDates []string      `json:"specificDates,omitempty"`
	TimeRange     *TimeRangeDTO `json:"timeRange,omitempty"`
	DaysBefore    *BoundsDTO    `json:"daysBefore,omitempty"`
	Occupancy     *BoundsDTO    `json:"occupancy,omitempty"`
}

// DateRangeDTO диапазон дат "YYYY-MM-DD", включительно
type DateRangeDTO struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// TimeRangeDTO диапазон времени "HH:MM" [start, end)
type TimeRangeDTO struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// BoundsDTO границы, nil = без ограничения
type BoundsDTO struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// ModifierDTO изменение цены
type ModifierDTO struct {
	Kind      string          `json:"kind" validate:"required,oneof=percentage flat"`
	Operation string          `json:"operation" validate:"required,oneof=add subtract multiply set"`
	Value     decimal.Decimal `json:"value"`
}

// ToDomainConditions парсит даты и время условий
func (c ConditionsDTO) ToDomainConditions() (domain.RuleConditions, error) {
	var cond domain.RuleConditions

	for _, d := range c.DaysOfWeek {
		cond.DaysOfWeek = append(cond.DaysOfWeek, time.Weekday(d))
	}

	if c.DateRange != nil {
		from, err := domain.ParseDate(c.DateRange.From)
		if err != nil {
			return cond, fmt.Errorf("date range from: %w", err)
		}
		to, err := domain.ParseDate(c.DateRange.To)
		if err != nil {
			return cond, fmt.Errorf("date range to: %w", err)
		}
		cond.DateRange = &domain.DateRange{From: from, To: to}
	}

	for _, s := range c.SpecificDates {
		d, err := domain.ParseDate(s)
		if err != nil {
			return cond, fmt.Errorf("specific date %q: %w", s, err)
		}
		cond.SpecificDates = append(cond.SpecificDates, d)
	}

	if c.TimeRange != nil {
		start, err := types.NewTimeStringFromString(c.TimeRange.Start)
		if err != nil {
			return cond, fmt.Errorf("time range start: %w", err)
		}
		end, err := types.NewTimeStringFromString(c.TimeRange.End)
		if err != nil {
			return cond, fmt.Errorf("time range end: %w", err)
		}
		cond.TimeRange = &domain.TimeRange{Start: start, End: end}
	}

	if c.DaysBefore != nil {
		cond.DaysBefore = &domain.IntBounds{Min: c.DaysBefore.Min, Max: c.DaysBefore.Max}
	}
	if c.Occupancy != nil {
		cond.Occupancy = &domain.IntBounds{Min: c.Occupancy.Min, Max: c.Occupancy.Max}
	}

	return cond, nil
}

// ToDomainModifier конвертирует модификатор
func (m ModifierDTO) ToDomainModifier() domain.Modifier {
	return domain.Modifier{
		Kind:      domain.ModifierKind(m.Kind),
		Operation: domain.Operation(m.Operation),
		Value:     m.Value,
	}
}

// Response модели

// RuleResponse ответ с данными правила
type RuleResponse struct {
	ID         int64         `json:"id"`
	TenantID   int64         `json:"tenantId"`
	ListingID  int64         `json:"listingId"`
	Name       string        `json:"name"`
	Type       string        `json:"type"`
	Conditions ConditionsDTO `json:"conditions"`
	Modifier   ModifierDTO   `json:"modifier"`
	Priority   int           `json:"priority"`
	Active     bool          `json:"active"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// RuleListResponse ответ со списком правил в порядке применения
type RuleListResponse struct {
	Rules []RuleResponse `json:"rules"`
}

// Методы конвертации

// FromDomainRule конвертирует domain модель в DTO
func FromDomainRule(r *domain.PricingRule) *RuleResponse {
	if r == nil {
		return nil
	}

	return &RuleResponse{
		ID:         r.ID,
		TenantID:   r.TenantID,
		ListingID:  r.ListingID,
		Name:       r.Name,
		Type:       string(r.Type),
		Conditions: fromDomainConditions(r.Conditions),
		Modifier: ModifierDTO{
			Kind:      string(r.Modifier.Kind),
			Operation: string(r.Modifier.Operation),
			Value:     r.Modifier.Value,
		},
		Priority:  r.Priority,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// FromDomainRuleList конвертирует список domain моделей в DTO
func FromDomainRuleList(rules []domain.PricingRule) *RuleListResponse {
	resp := &RuleListResponse{Rules: make([]RuleResponse, 0, len(rules))}
	for i := range rules {
		resp.Rules = append(resp.Rules, *FromDomainRule(&rules[i]))
	}
	return resp
}

func fromDomainConditions(c domain.RuleConditions) ConditionsDTO {
	var dto ConditionsDTO

	for _, d := range c.DaysOfWeek {
		dto.DaysOfWeek = append(dto.DaysOfWeek, int(d))
	}
	if c.DateRange != nil {
		dto.DateRange = &DateRangeDTO{
			From: c.DateRange.From.Format(domain.DateFormat),
			To:   c.DateRange.To.Format(domain.DateFormat),
		}
	}
	for _, d := range c.SpecificDates {
		dto.SpecificDates = append(dto.SpecificDates, d.Format(domain.DateFormat))
	}
	if c.TimeRange != nil {
		dto.TimeRange = &TimeRangeDTO{Start: c.TimeRange.Start.String(), End: c.TimeRange.End.String()}
	}
	if c.DaysBefore != nil {
		dto.DaysBefore = &BoundsDTO{Min: c.DaysBefore.Min, Max: c.DaysBefore.Max}
	}
	if c.Occupancy != nil {
		dto.Occupancy = &BoundsDTO{Min: c.Occupancy.Min, Max: c.Occupancy.Max}
	}

	return dto
}
