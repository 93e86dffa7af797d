package booking

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
)

// StatusPatch дополнительные поля, меняющиеся вместе со статусом
type StatusPatch struct {
	PaymentReference *string
}

// priceLineRow jsonb-представление строки расчёта цены
type priceLineRow struct {
	SlotID       string           `json:"slotId"`
	BasePrice    int64            `json:"basePrice"`
	FinalPrice   int64            `json:"finalPrice"`
	AppliedRules []appliedRuleRow `json:"appliedRules"`
	Warnings     []string         `json:"warnings,omitempty"`
}

type appliedRuleRow struct {
	RuleID      int64  `json:"ruleId"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Kind        string `json:"kind"`
	Operation   string `json:"operation"`
	Value       string `json:"value"`
	Priority    int    `json:"priority"`
	PriceBefore int64  `json:"priceBefore"`
	PriceAfter  int64  `json:"priceAfter"`
}

func toPriceLineRows(lines []domain.PriceLine) []priceLineRow {
	rows := make([]priceLineRow, 0, len(lines))
	for _, l := range lines {
		rules := make([]appliedRuleRow, 0, len(l.AppliedRules))
		for _, r := range l.AppliedRules {
			rules = append(rules, appliedRuleRow{
				RuleID:      r.RuleID,
				Name:        r.Name,
				Type:        string(r.Type),
				Kind:        string(r.Kind),
				Operation:   string(r.Operation),
				Value:       r.Value.String(),
				Priority:    r.Priority,
				PriceBefore: int64(r.PriceBefore),
				PriceAfter:  int64(r.PriceAfter),
			})
		}
		rows = append(rows, priceLineRow{
			SlotID:       l.SlotID,
			BasePrice:    int64(l.BasePrice),
			FinalPrice:   int64(l.FinalPrice),
			AppliedRules: rules,
			Warnings:     l.Warnings,
		})
	}
	return rows
}

func fromPriceLineRows(rows []priceLineRow) []domain.PriceLine {
	lines := make([]domain.PriceLine, 0, len(rows))
	for _, row := range rows {
		rules := make([]domain.AppliedRule, 0, len(row.AppliedRules))
		for _, r := range row.AppliedRules {
			value, _ := decimal.NewFromString(r.Value)
			rules = append(rules, domain.AppliedRule{
				RuleID:      r.RuleID,
				Name:        r.Name,
				Type:        domain.RuleType(r.Type),
				Kind:        domain.ModifierKind(r.Kind),
				Operation:   domain.Operation(r.Operation),
				Value:       value,
				Priority:    r.Priority,
				PriceBefore: money.Amount(r.PriceBefore),
				PriceAfter:  money.Amount(r.PriceAfter),
			})
		}
		lines = append(lines, domain.PriceLine{
			SlotID:       row.SlotID,
			BasePrice:    money.Amount(row.BasePrice),
			FinalPrice:   money.Amount(row.FinalPrice),
			AppliedRules: rules,
			Warnings:     row.Warnings,
		})
	}
	return lines
}
