package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
)

// WarningNegativePrice цена после правил ушла в минус и обнулена
const WarningNegativePrice = "negative price clamped to zero"

var hundred = decimal.NewFromInt(100)

// PriceTarget слот, для которого считается цена
type PriceTarget struct {
	Date           time.Time
	Slot           domain.Slot
	EvaluationTime time.Time
	// Occupancy загрузка листинга на дату в процентах; nil = неизвестна
	Occupancy *int
}

// EvaluatePrice сворачивает подходящие правила поверх базовой цены.
// Чистая функция: одинаковые входные данные дают одинаковый результат и порядок правил.
// Округление до минорной единицы валюты выполняется один раз, в конце.
func EvaluatePrice(base money.Amount, rules []domain.PricingRule, target PriceTarget, currency money.Currency) domain.PriceEvaluation {
	matched := matchingRules(rules, target)

	baseValue := base.Decimal()
	running := baseValue
	applied := make([]domain.AppliedRule, 0, len(matched))

	for _, rule := range matched {
		before := running
		running = applyModifier(running, baseValue, rule.Modifier, currency)

		applied = append(applied, domain.AppliedRule{
			RuleID:      rule.ID,
			Name:        rule.Name,
			Type:        rule.Type,
			Kind:        rule.Modifier.Kind,
			Operation:   rule.Modifier.Operation,
			Value:       rule.Modifier.Value,
			Priority:    rule.Priority,
			PriceBefore: money.FromDecimal(before),
			PriceAfter:  money.FromDecimal(running),
		})
	}

	result := domain.PriceEvaluation{
		BasePrice:    base,
		AppliedRules: applied,
		Warnings:     []string{},
	}

	if running.IsNegative() {
		result.Warnings = append(result.Warnings, WarningNegativePrice)
		running = decimal.Zero
	}
	result.FinalPrice = money.FromDecimal(running)

	return result
}

// applyModifier применяет модификатор к текущей цене (в минорных единицах).
// set перезаписывает цену на месте, правила с меньшим приоритетом применяются дальше.
func applyModifier(running, base decimal.Decimal, m domain.Modifier, currency money.Currency) decimal.Decimal {
	percent := m.Kind == domain.ModifierPercentage

	switch m.Operation {
	case domain.OperationAdd:
		if percent {
			return running.Add(running.Mul(m.Value).Div(hundred))
		}
		return running.Add(m.Value.Shift(currency.Exponent))

	case domain.OperationSubtract:
		if percent {
			return running.Sub(running.Mul(m.Value).Div(hundred))
		}
		return running.Sub(m.Value.Shift(currency.Exponent))

	case domain.OperationMultiply:
		if percent {
			return running.Mul(m.Value).Div(hundred)
		}
		return running.Mul(m.Value)

	case domain.OperationSet:
		if percent {
			return base.Mul(m.Value).Div(hundred)
		}
		return m.Value.Shift(currency.Exponent)
	}

	return running
}

// matchingRules подходящие правила в порядке применения:
// приоритет по убыванию, затем раньше созданные, затем по ID
func matchingRules(rules []domain.PricingRule, target PriceTarget) []domain.PricingRule {
	matched := make([]domain.PricingRule, 0, len(rules))
	for _, rule := range rules {
		if ruleMatches(rule, target) {
			matched = append(matched, rule)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	return matched
}

func ruleMatches(rule domain.PricingRule, target PriceTarget) bool {
	if !rule.Active {
		return false
	}
	c := rule.Conditions

	if len(c.DaysOfWeek) > 0 && !containsWeekday(c.DaysOfWeek, target.Date.Weekday()) {
		return false
	}
	if c.DateRange != nil && !c.DateRange.Contains(target.Date) {
		return false
	}
	if len(c.SpecificDates) > 0 && !containsDate(c.SpecificDates, target.Date) {
		return false
	}
	if c.TimeRange != nil && !c.TimeRange.Contains(target.Slot.Start) {
		return false
	}
	if c.DaysBefore != nil && !c.DaysBefore.Contains(daysBefore(target.EvaluationTime, target.Date)) {
		return false
	}
	if c.Occupancy != nil {
		// Без данных о загрузке правило не срабатывает
		if target.Occupancy == nil || !c.Occupancy.Contains(*target.Occupancy) {
			return false
		}
	}

	return true
}

// daysBefore количество календарных дней от момента расчёта до даты слота
func daysBefore(evaluationTime, date time.Time) int {
	from := time.Date(evaluationTime.Year(), evaluationTime.Month(), evaluationTime.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func containsWeekday(days []time.Weekday, day time.Weekday) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

func containsDate(dates []time.Time, date time.Time) bool {
	for _, d := range dates {
		if domain.SameDate(d, date) {
			return true
		}
	}
	return false
}
