package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
	"github.com/m04kA/SMC-SlotBookingService/pkg/types"
)

// ErrInvalidWindow is returned when an availability window is misconfigured
var ErrInvalidWindow = errors.New("domain: invalid availability window")

// SlotOverride per-slot configuration (price override, deactivation)
type SlotOverride struct {
	PriceOverride *money.Amount
	Active        bool
}

// AvailabilityWindow listing operating hours and booking limits.
// Owned by the listing service, read-only here.
type AvailabilityWindow struct {
	OpenTime            types.TimeString
	CloseTime           types.TimeString
	WorkingDays         []time.Weekday // empty = every day
	SlotDurationMinutes int
	BufferMinutes       int
	MinNoticeMinutes    int
	MaxAdvanceDays      int // 0 = unlimited
	InstantBooking      bool
	Overrides           map[string]SlotOverride // keyed by slot id
}

// Listing bookable resource of a tenant (turf, court, room)
type Listing struct {
	ID         int64
	TenantID   int64
	Name       string
	Type       string
	BasePrice  money.Amount
	Currency   string
	TaxPercent *decimal.Decimal
	Active     bool
	Window     AvailabilityWindow
}

// Validate checks the window configuration
func (w AvailabilityWindow) Validate() error {
	open, err := w.OpenTime.Minutes()
	if err != nil {
		return fmt.Errorf("%w: open time: %v", ErrInvalidWindow, err)
	}
	closeAt, err := w.CloseTime.Minutes()
	if err != nil {
		return fmt.Errorf("%w: close time: %v", ErrInvalidWindow, err)
	}
	if open >= closeAt {
		return fmt.Errorf("%w: open time must be before close time", ErrInvalidWindow)
	}
	if w.SlotDurationMinutes < MinSlotDurationMinutes || w.SlotDurationMinutes > MaxSlotDurationMinutes {
		return fmt.Errorf("%w: slot duration must be between %d and %d minutes",
			ErrInvalidWindow, MinSlotDurationMinutes, MaxSlotDurationMinutes)
	}
	if w.BufferMinutes < 0 || w.MinNoticeMinutes < 0 || w.MaxAdvanceDays < 0 {
		return fmt.Errorf("%w: buffer, notice and advance limits must not be negative", ErrInvalidWindow)
	}
	return nil
}

// IsWorkingDay returns true if the listing operates on the weekday
func (w AvailabilityWindow) IsWorkingDay(day time.Weekday) bool {
	if len(w.WorkingDays) == 0 {
		return true
	}
	for _, d := range w.WorkingDays {
		if d == day {
			return true
		}
	}
	return false
}

// Slots generates the day's slots from open time with a step of duration + buffer.
// A slot is emitted only if it ends no later than close time.
func (w AvailabilityWindow) Slots() ([]Slot, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	slots := make([]Slot, 0)
	current := w.OpenTime

	for current.IsBefore(w.CloseTime) {
		end, err := current.AddMinutes(w.SlotDurationMinutes)
		if err != nil || end.IsAfter(w.CloseTime) {
			break
		}
		slots = append(slots, Slot{Start: current, End: end})

		current, err = end.AddMinutes(w.BufferMinutes)
		if err != nil {
			break
		}
	}

	return slots, nil
}

// IsSlotActive returns false if the slot was deactivated by an override
func (w AvailabilityWindow) IsSlotActive(slotID string) bool {
	override, ok := w.Overrides[slotID]
	if !ok {
		return true
	}
	return override.Active
}

// SlotBasePrice returns the slot price override or the listing base price
func (l *Listing) SlotBasePrice(slotID string) money.Amount {
	if override, ok := l.Window.Overrides[slotID]; ok && override.PriceOverride != nil {
		return *override.PriceOverride
	}
	return l.BasePrice
}

// BookingWindow checks that a slot on the date starts within
// [now + min notice, today + max advance days]
func (w AvailabilityWindow) BookingWindow(date time.Time, slot Slot, now time.Time) error {
	start := slot.Start.On(date)

	if start.Before(now.Add(time.Duration(w.MinNoticeMinutes) * time.Minute)) {
		return ErrTooLateToBook
	}

	if w.MaxAdvanceDays > 0 {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		if day.After(today.AddDate(0, 0, w.MaxAdvanceDays)) {
			return ErrTooFarInAdvance
		}
	}

	return nil
}

var (
	// ErrTooLateToBook slot starts before now + minimum notice (or already started)
	ErrTooLateToBook = errors.New("domain: too late to book this slot")

	// ErrTooFarInAdvance date is beyond the max advance window
	ErrTooFarInAdvance = errors.New("domain: date is too far in advance")
)
