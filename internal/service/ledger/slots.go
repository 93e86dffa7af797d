package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
)

// validateSlots проверяет запрошенные слоты по окну доступности листинга
// и возвращает их отсортированными по времени начала
func validateSlots(listing *domain.Listing, date time.Time, slotIDs []string, now time.Time) ([]domain.Slot, error) {
	if listing == nil {
		return nil, fmt.Errorf("%w: listing is required", ErrValidation)
	}
	if !listing.Active {
		return nil, fmt.Errorf("%w: listing %d is not active", ErrValidation, listing.ID)
	}
	if len(slotIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one slot is required", ErrValidation)
	}
	if len(slotIDs) > domain.MaxSlotsPerBooking {
		return nil, fmt.Errorf("%w: at most %d slots per booking", ErrValidation, domain.MaxSlotsPerBooking)
	}
	if !listing.Window.IsWorkingDay(date.Weekday()) {
		return nil, fmt.Errorf("%w: listing is closed on %s", ErrValidation, date.Format(domain.DateFormat))
	}

	daySlots, err := listing.Window.Slots()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	known := make(map[string]domain.Slot, len(daySlots))
	for _, s := range daySlots {
		known[s.ID()] = s
	}

	seen := make(map[string]struct{}, len(slotIDs))
	result := make([]domain.Slot, 0, len(slotIDs))
	for _, id := range slotIDs {
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate slot %s", ErrValidation, id)
		}
		seen[id] = struct{}{}

		slot, ok := known[id]
		if !ok {
			return nil, fmt.Errorf("%w: slot %s does not exist", ErrValidation, id)
		}
		if !listing.Window.IsSlotActive(id) {
			return nil, fmt.Errorf("%w: slot %s is not active", ErrValidation, id)
		}
		if err := listing.Window.BookingWindow(date, slot, now); err != nil {
			return nil, fmt.Errorf("%w: slot %s: %v", ErrValidation, id, err)
		}
		result = append(result, slot)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Start.IsBefore(result[j].Start)
	})

	return result, nil
}

func slotIDsOf(slots []domain.Slot) []string {
	ids := make([]string, len(slots))
	for i, s := range slots {
		ids[i] = s.ID()
	}
	return ids
}

// lockKey ключ распределённой блокировки слота. Хеш-тег {tenant:listing:date} кладёт
// все ключи одного резервирования в один слот Redis Cluster.
func lockKey(tenantID, listingID int64, date time.Time, slotID string) string {
	return fmt.Sprintf("slotlock:{%d:%d:%s}:%s", tenantID, listingID, date.Format(domain.DateFormat), slotID)
}

// conflictingSlots запрошенные слоты, интервалы которых пересекаются с занятыми.
// Сравниваются интервалы, а не идентификаторы: после смены длительности слотов
// у листинга "10:00-10:30" пересекается с ранее забронированным "10:00-11:00".
func conflictingSlots(requested []domain.Slot, occupied []domain.Slot) []string {
	taken := make([]string, 0)
	for _, slot := range requested {
		if isOccupied(slot, occupied) {
			taken = append(taken, slot.ID())
		}
	}

	sort.Strings(taken)
	return taken
}

// overlaps проверяет РЕАЛЬНОЕ пересечение интервалов.
// Слоты, которые только граничат (10:00-11:00 и 11:00-12:00), не пересекаются.
func overlaps(a, b domain.Slot) bool {
	return a.Start.MustMinutes() < b.End.MustMinutes() && b.Start.MustMinutes() < a.End.MustMinutes()
}

// occupiedRanges интервалы, занятые бронированиями на момент now.
// Истёкшие холды не учитываются.
func occupiedRanges(bookings []*domain.Booking, now time.Time) []domain.Slot {
	ranges := make([]domain.Slot, 0)
	for _, b := range bookings {
		if !b.OccupiesSlots(now) {
			continue
		}
		for _, id := range b.SlotIDs {
			slot, err := domain.ParseSlotID(id)
			if err != nil {
				continue
			}
			ranges = append(ranges, slot)
		}
	}
	return ranges
}

func isOccupied(slot domain.Slot, occupied []domain.Slot) bool {
	for _, o := range occupied {
		if overlaps(slot, o) {
			return true
		}
	}
	return false
}
