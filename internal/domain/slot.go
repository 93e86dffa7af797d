package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
	"github.com/m04kA/SMC-SlotBookingService/pkg/types"
)

// ErrInvalidSlotID is returned when a slot identifier is not "HH:MM-HH:MM"
var ErrInvalidSlotID = errors.New("domain: invalid slot id")

// Slot is a bookable time range on a listing's day
type Slot struct {
	Start types.TimeString
	End   types.TimeString
}

// ID returns the slot identifier, e.g. "10:00-11:00"
func (s Slot) ID() string {
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}

// DurationMinutes returns the slot length
func (s Slot) DurationMinutes() int {
	return s.End.MustMinutes() - s.Start.MustMinutes()
}

// ParseSlotID parses "HH:MM-HH:MM"
func ParseSlotID(id string) (Slot, error) {
	parts := strings.Split(strings.TrimSpace(id), "-")
	if len(parts) != 2 {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalidSlotID, id)
	}

	start, err := types.NewTimeStringFromString(parts[0])
	if err != nil {
		return Slot{}, fmt.Errorf("%w: %q: %v", ErrInvalidSlotID, id, err)
	}
	end, err := types.NewTimeStringFromString(parts[1])
	if err != nil {
		return Slot{}, fmt.Errorf("%w: %q: %v", ErrInvalidSlotID, id, err)
	}
	if !start.IsBefore(end) {
		return Slot{}, fmt.Errorf("%w: %q: start must be before end", ErrInvalidSlotID, id)
	}

	return Slot{Start: start, End: end}, nil
}

// SlotAvailability slot with its availability on a date
type SlotAvailability struct {
	Slot      Slot
	Available bool
	Price     money.Amount
}

// OccupancyPercent share of the day's slots that are not available, 0..100
func OccupancyPercent(slots []SlotAvailability) int {
	if len(slots) == 0 {
		return 0
	}

	var taken int
	for _, s := range slots {
		if !s.Available {
			taken++
		}
	}
	return taken * 100 / len(slots)
}
