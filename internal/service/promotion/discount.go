package promotion

import (
	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
)

// ComputeDiscount скидка акции для суммы заказа.
// Процент ограничивается MaxDiscount; любая скидка не превышает subtotal.
func ComputeDiscount(p *domain.Promotion, subtotal money.Amount) money.Amount {
	if subtotal <= 0 {
		return money.Zero
	}

	var discount money.Amount
	switch p.DiscountType {
	case domain.DiscountPercentage:
		discount = subtotal.Percent(p.DiscountPercent)
		if p.MaxDiscount != nil {
			discount = money.Min(discount, *p.MaxDiscount)
		}
	case domain.DiscountFlat:
		discount = p.DiscountFlat
	}

	return money.Max(money.Zero, money.Min(discount, subtotal))
}
