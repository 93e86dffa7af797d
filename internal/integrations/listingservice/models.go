package listingservice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
	"github.com/m04kA/SMC-SlotBookingService/pkg/types"
)

// Listing модель листинга из ListingService. Цены в основных единицах валюты.
type Listing struct {
	ID         int64            `json:"id"`
	TenantID   int64            `json:"tenant_id"`
	Name       string           `json:"name"`
	Type       string           `json:"type"`
	BasePrice  decimal.Decimal  `json:"base_price"`
	Currency   string           `json:"currency"`
	TaxPercent *decimal.Decimal `json:"tax_percent,omitempty"`
	IsActive   bool             `json:"is_active"`
	Window     Window           `json:"availability"`
}

// Window окно доступности листинга. Время "HH:MM", дни недели 0 = воскресенье.
type Window struct {
	OpenTime            string         `json:"open_time"`
	CloseTime           string         `json:"close_time"`
	WorkingDays         []int          `json:"working_days,omitempty"`
	SlotDurationMinutes int            `json:"slot_duration_minutes"`
	BufferMinutes       int            `json:"buffer_minutes"`
	MinNoticeMinutes    int            `json:"min_notice_minutes"`
	MaxAdvanceDays      int            `json:"max_advance_days"`
	InstantBooking      bool           `json:"instant_booking"`
	SlotOverrides       []SlotOverride `json:"slot_overrides,omitempty"`
}

// SlotOverride настройки отдельного слота
type SlotOverride struct {
	SlotID        string           `json:"slot_id"`
	PriceOverride *decimal.Decimal `json:"price_override,omitempty"`
	IsActive      bool             `json:"is_active"`
}

// ToDomain конвертирует ответ сервиса в доменную модель
func (l *Listing) ToDomain() (*domain.Listing, error) {
	currency := money.CurrencyFromCode(l.Currency)

	openTime, err := types.NewTimeStringFromString(l.Window.OpenTime)
	if err != nil {
		return nil, fmt.Errorf("open time: %w", err)
	}
	closeTime, err := types.NewTimeStringFromString(l.Window.CloseTime)
	if err != nil {
		return nil, fmt.Errorf("close time: %w", err)
	}

	workingDays := make([]time.Weekday, 0, len(l.Window.WorkingDays))
	for _, d := range l.Window.WorkingDays {
		workingDays = append(workingDays, time.Weekday(d))
	}

	overrides := make(map[string]domain.SlotOverride, len(l.Window.SlotOverrides))
	for _, o := range l.Window.SlotOverrides {
		override := domain.SlotOverride{Active: o.IsActive}
		if o.PriceOverride != nil {
			price := money.FromMajor(*o.PriceOverride, currency)
			override.PriceOverride = &price
		}
		overrides[o.SlotID] = override
	}

	return &domain.Listing{
		ID:         l.ID,
		TenantID:   l.TenantID,
		Name:       l.Name,
		Type:       l.Type,
		BasePrice:  money.FromMajor(l.BasePrice, currency),
		Currency:   currency.Code,
		TaxPercent: l.TaxPercent,
		Active:     l.IsActive,
		Window: domain.AvailabilityWindow{
			OpenTime:            openTime,
			CloseTime:           closeTime,
			WorkingDays:         workingDays,
			SlotDurationMinutes: l.Window.SlotDurationMinutes,
			BufferMinutes:       l.Window.BufferMinutes,
			MinNoticeMinutes:    l.Window.MinNoticeMinutes,
			MaxAdvanceDays:      l.Window.MaxAdvanceDays,
			InstantBooking:      l.Window.InstantBooking,
			Overrides:           overrides,
		},
	}, nil
}
