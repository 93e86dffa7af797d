package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SlotBookingService/internal/infra/storage/booking"
)

// memRepo хранилище в памяти; Create отклоняет пересекающиеся активные слоты,
// как exclusion-ограничение booking_slots
type memRepo struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]*domain.Booking
}

func newMemRepo() *memRepo {
	return &memRepo{bookings: make(map[int64]*domain.Booking)}
}

func clone(b *domain.Booking) *domain.Booking {
	c := *b
	c.SlotIDs = append([]string(nil), b.SlotIDs...)
	c.History = append([]domain.StatusChange(nil), b.History...)
	return &c
}

func sameKey(b *domain.Booking, tenantID, listingID int64, date time.Time) bool {
	return b.TenantID == tenantID && b.ListingID == listingID && domain.SameDate(b.BookingDate, date)
}

// overlapsAny пересекается ли хотя бы один слот бронирования с одним из slots
func overlapsAny(b *domain.Booking, slots []domain.Slot) bool {
	for _, id := range b.SlotIDs {
		held, err := domain.ParseSlotID(id)
		if err != nil {
			continue
		}
		for _, s := range slots {
			if overlaps(held, s) {
				return true
			}
		}
	}
	return false
}

func parseSlots(ids []string) []domain.Slot {
	slots := make([]domain.Slot, 0, len(ids))
	for _, id := range ids {
		if s, err := domain.ParseSlotID(id); err == nil {
			slots = append(slots, s)
		}
	}
	return slots
}

func (r *memRepo) Create(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.bookings {
		if b.IsActive() && sameKey(b, booking.TenantID, booking.ListingID, booking.BookingDate) && overlapsAny(b, parseSlots(booking.SlotIDs)) {
			return nil, bookingRepo.ErrSlotTaken
		}
	}

	r.nextID++
	booking.ID = r.nextID
	r.bookings[booking.ID] = clone(booking)
	return booking, nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return clone(b), nil
}

func (r *memRepo) FindActiveOverlapping(_ context.Context, tenantID, listingID int64, date time.Time, slots []domain.Slot) ([]*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*domain.Booking, 0)
	for _, b := range r.bookings {
		if b.IsActive() && sameKey(b, tenantID, listingID, date) && overlapsAny(b, slots) {
			result = append(result, clone(b))
		}
	}
	return result, nil
}

func (r *memRepo) ListActiveOnDate(_ context.Context, tenantID, listingID int64, date time.Time) ([]*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*domain.Booking, 0)
	for _, b := range r.bookings {
		if b.IsActive() && sameKey(b, tenantID, listingID, date) {
			result = append(result, clone(b))
		}
	}
	return result, nil
}

func (r *memRepo) TransitionStatus(_ context.Context, id int64, from []domain.BookingStatus, change domain.StatusChange, patch bookingRepo.StatusPatch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if b.Status == s {
			b.Status = change.Status
			b.AppendHistory(change)
			if patch.PaymentReference != nil {
				b.PaymentReference = patch.PaymentReference
			}
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) ListExpiredHolds(_ context.Context, now time.Time, _ uint64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int64, 0)
	for id, b := range r.bookings {
		if b.HoldExpired(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *memRepo) ListFinished(_ context.Context, now time.Time, _ uint64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int64, 0)
	for id, b := range r.bookings {
		if b.Status != domain.StatusConfirmed {
			continue
		}
		if endsAt, err := b.EndsAt(); err == nil && !now.Before(endsAt) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *memRepo) status(id int64) domain.BookingStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookings[id].Status
}

type noTx struct{}

func (noTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
