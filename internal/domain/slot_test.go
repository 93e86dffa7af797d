package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
	"github.com/m04kA/SMC-SlotBookingService/pkg/ptr"
)

func TestParseSlotID(t *testing.T) {
	slot, err := ParseSlotID("10:00-11:30")
	require.NoError(t, err)
	assert.Equal(t, "10:00-11:30", slot.ID())
	assert.Equal(t, 90, slot.DurationMinutes())

	for _, bad := range []string{"", "10:00", "11:00-10:00", "10:00-25:00", "a-b"} {
		_, err := ParseSlotID(bad)
		assert.ErrorIs(t, err, ErrInvalidSlotID, bad)
	}
}

func TestAvailabilityWindow_Slots(t *testing.T) {
	w := AvailabilityWindow{
		OpenTime:            "06:00",
		CloseTime:           "09:00",
		SlotDurationMinutes: 50,
		BufferMinutes:       10,
	}

	slots, err := w.Slots()
	require.NoError(t, err)

	ids := make([]string, 0, len(slots))
	for _, s := range slots {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{"06:00-06:50", "07:00-07:50", "08:00-08:50"}, ids)
}

func TestAvailabilityWindow_SlotsUntilMidnight(t *testing.T) {
	w := AvailabilityWindow{OpenTime: "22:00", CloseTime: "24:00", SlotDurationMinutes: 60}

	slots, err := w.Slots()
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "23:00-24:00", slots[1].ID())
}

func TestAvailabilityWindow_BookingWindow(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	w := AvailabilityWindow{MinNoticeMinutes: 60, MaxAdvanceDays: 14}
	slot := Slot{Start: "09:30", End: "10:30"}

	assert.ErrorIs(t, w.BookingWindow(now, slot, now), ErrTooLateToBook)
	assert.NoError(t, w.BookingWindow(now, Slot{Start: "10:00", End: "11:00"}, now))
	assert.NoError(t, w.BookingWindow(now.AddDate(0, 0, 14), slot, now))
	assert.ErrorIs(t, w.BookingWindow(now.AddDate(0, 0, 15), slot, now), ErrTooFarInAdvance)
}

func TestListing_SlotBasePrice(t *testing.T) {
	l := &Listing{
		BasePrice: 50000,
		Window: AvailabilityWindow{Overrides: map[string]SlotOverride{
			"18:00-19:00": {PriceOverride: ptr.Ptr(money.Amount(70000)), Active: true},
			"19:00-20:00": {Active: false},
		}},
	}

	assert.Equal(t, money.Amount(70000), l.SlotBasePrice("18:00-19:00"))
	assert.Equal(t, money.Amount(50000), l.SlotBasePrice("10:00-11:00"))
	assert.False(t, l.Window.IsSlotActive("19:00-20:00"))
	assert.True(t, l.Window.IsSlotActive("18:00-19:00"))
}

func TestBooking_HoldAndEnd(t *testing.T) {
	date := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	expires := time.Date(2025, 6, 10, 12, 15, 0, 0, time.UTC)
	b := &Booking{
		BookingDate:   date,
		SlotIDs:       []string{"18:00-19:00", "10:00-11:00"},
		Status:        StatusPending,
		HoldExpiresAt: &expires,
	}

	assert.False(t, b.HoldExpired(expires.Add(-time.Second)))
	assert.True(t, b.HoldExpired(expires))
	assert.False(t, b.OccupiesSlots(expires))
	assert.True(t, b.OccupiesSlots(expires.Add(-time.Minute)))

	end, err := b.EndsAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 14, 19, 0, 0, 0, time.UTC), end)

	b.Status = StatusConfirmed
	assert.False(t, b.HoldExpired(expires.Add(time.Hour)))
	assert.True(t, b.OccupiesSlots(expires.Add(time.Hour)))
}

func TestOccupancyPercent(t *testing.T) {
	assert.Equal(t, 0, OccupancyPercent(nil))
	assert.Equal(t, 25, OccupancyPercent([]SlotAvailability{
		{Available: false}, {Available: true}, {Available: true}, {Available: true},
	}))
	assert.Equal(t, 100, OccupancyPercent([]SlotAvailability{{Available: false}}))
}
