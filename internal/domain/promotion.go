package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
)

// ErrInvalidPromotion is returned when a promotion is misconfigured
var ErrInvalidPromotion = errors.New("domain: invalid promotion")

// DiscountType kind of promotion discount
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

// PromotionScope where a code is valid
type PromotionScope string

const (
	ScopeGlobal PromotionScope = "global"
	ScopeTenant PromotionScope = "tenant"
)

// Promotion coupon code or automatic offer
type Promotion struct {
	ID       int64
	Code     string
	Name     string
	Scope    PromotionScope
	TenantID *int64

	// Automatic offers apply without a code once the order has MinSlotCount slots
	Automatic    bool
	MinSlotCount int

	ListingIDs     []int64
	ListingTypes   []string
	UserCategories []string
	MinOrderValue  *money.Amount
	MaxOrderValue  *money.Amount

	DiscountType    DiscountType
	DiscountPercent decimal.Decimal
	DiscountFlat    money.Amount
	MaxDiscount     *money.Amount

	ValidFrom  time.Time
	ValidUntil time.Time

	TotalUsageLimit *int
	PerUserLimit    *int
	UsedCount       int

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PromotionUsage usage ledger entry. Appended only when a booking is confirmed.
type PromotionUsage struct {
	ID          int64
	PromotionID int64
	UserID      int64
	BookingID   int64
	Discount    money.Amount
	UsedAt      time.Time
}

// NormalizeCode codes are case-insensitive
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks discount definition and validity window
func (p *Promotion) Validate() error {
	if !p.Automatic && NormalizeCode(p.Code) == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidPromotion)
	}
	if p.Scope == ScopeTenant && p.TenantID == nil {
		return fmt.Errorf("%w: tenant scoped promotion requires tenant id", ErrInvalidPromotion)
	}
	switch p.DiscountType {
	case DiscountPercentage:
		if p.DiscountPercent.LessThanOrEqual(decimal.Zero) || p.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("%w: percentage must be in (0, 100]", ErrInvalidPromotion)
		}
	case DiscountFlat:
		if p.DiscountFlat <= 0 {
			return fmt.Errorf("%w: flat discount must be positive", ErrInvalidPromotion)
		}
	default:
		return fmt.Errorf("%w: unknown discount type %q", ErrInvalidPromotion, p.DiscountType)
	}
	if !p.ValidUntil.After(p.ValidFrom) {
		return fmt.Errorf("%w: valid until must be after valid from", ErrInvalidPromotion)
	}
	return nil
}

// IsLive active and inside the validity window
func (p *Promotion) IsLive(now time.Time) bool {
	return p.Active && !now.Before(p.ValidFrom) && now.Before(p.ValidUntil)
}

// Snapshot copy stored on the booking
func (p *Promotion) Snapshot() *PromotionSnapshot {
	value := p.DiscountPercent
	if p.DiscountType == DiscountFlat {
		value = p.DiscountFlat.Decimal()
	}
	return &PromotionSnapshot{
		PromotionID:  p.ID,
		Code:         p.Code,
		DiscountType: p.DiscountType,
		Value:        value,
	}
}
