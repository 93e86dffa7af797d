package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SlotBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SlotBookingService/pkg/logger"
	"github.com/m04kA/SMC-SlotBookingService/pkg/ptr"
)

type fakeRepo struct {
	bookings   map[int64]*domain.Booking
	lastFilter domain.BookingFilter
	listErr    error
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeRepo) List(_ context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	r.lastFilter = filter
	if r.listErr != nil {
		return nil, r.listErr
	}
	var result []*domain.Booking
	for _, b := range r.bookings {
		if filter.UserID != nil && b.UserID != *filter.UserID {
			continue
		}
		if filter.TenantID != nil && b.TenantID != *filter.TenantID {
			continue
		}
		result = append(result, b)
	}
	return result, nil
}

func (r *fakeRepo) SetAdminNotes(_ context.Context, id int64, notes string) error {
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	b.AdminNotes = &notes
	return nil
}

func newFixture() (*Service, *fakeRepo) {
	repo := &fakeRepo{bookings: map[int64]*domain.Booking{
		1: {
			ID:          1,
			Reference:   "ref-1",
			TenantID:    10,
			ListingID:   100,
			UserID:      500,
			BookingDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			SlotIDs:     []string{"18:00-19:00"},
			Status:      domain.StatusCancelled,
			Pricing:     domain.PricingBreakdown{Currency: "INR", Subtotal: 120000, Discount: 10000, Total: 110000},
		},
		2: {ID: 2, TenantID: 20, UserID: 600, Status: domain.StatusConfirmed},
	}}
	return NewService(repo, logger.NewNop()), repo
}

func TestService_GetByID(t *testing.T) {
	svc, _ := newFixture()
	ctx := context.Background()

	t.Run("owner", func(t *testing.T) {
		resp, err := svc.GetByID(ctx, domain.Principal{UserID: 500, Role: domain.RoleCustomer}, 1)
		require.NoError(t, err)
		assert.Equal(t, "ref-1", resp.Reference)
		assert.Equal(t, "2026-03-14", resp.BookingDate)
		assert.Equal(t, "1200.00", resp.Pricing.Subtotal)
		assert.Equal(t, "100.00", resp.Pricing.Discount)
		assert.Equal(t, "1100.00", resp.Pricing.Total)
	})

	t.Run("tenant admin", func(t *testing.T) {
		_, err := svc.GetByID(ctx, domain.Principal{UserID: 1, TenantID: ptr.Ptr(int64(10)), Role: domain.RoleTenantAdmin}, 1)
		require.NoError(t, err)
	})

	t.Run("admin of another tenant", func(t *testing.T) {
		_, err := svc.GetByID(ctx, domain.Principal{UserID: 1, TenantID: ptr.Ptr(int64(20)), Role: domain.RoleTenantAdmin}, 1)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("other customer", func(t *testing.T) {
		_, err := svc.GetByID(ctx, domain.Principal{UserID: 600, Role: domain.RoleCustomer}, 1)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.GetByID(ctx, domain.Principal{UserID: 500}, 99)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}

func TestService_GetUserBookings(t *testing.T) {
	svc, repo := newFixture()

	resp, err := svc.GetUserBookings(context.Background(), domain.Principal{UserID: 500}, &models.GetUserBookingsRequest{
		Status: ptr.Ptr("cancelled"),
	})

	require.NoError(t, err)
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, []domain.BookingStatus{domain.StatusCancelled}, repo.lastFilter.Statuses)
	assert.Equal(t, uint64(defaultListLimit), repo.lastFilter.Limit)

	_, err = svc.GetUserBookings(context.Background(), domain.Principal{UserID: 500}, &models.GetUserBookingsRequest{
		Status: ptr.Ptr("no_show"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_GetTenantBookings(t *testing.T) {
	svc, repo := newFixture()
	admin := domain.Principal{UserID: 1, TenantID: ptr.Ptr(int64(10)), Role: domain.RoleTenantAdmin}

	resp, err := svc.GetTenantBookings(context.Background(), admin, &models.GetTenantBookingsRequest{
		TenantID: 10,
		Date:     ptr.Ptr("2026-03-14"),
		Limit:    1000,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Bookings, 1)
	assert.Equal(t, uint64(maxListLimit), repo.lastFilter.Limit)
	require.NotNil(t, repo.lastFilter.Date)

	_, err = svc.GetTenantBookings(context.Background(), admin, &models.GetTenantBookingsRequest{TenantID: 20})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.GetTenantBookings(context.Background(), admin, &models.GetTenantBookingsRequest{TenantID: 10, Date: ptr.Ptr("14.03.2026")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	repo.listErr = errors.New("db down")
	_, err = svc.GetTenantBookings(context.Background(), admin, &models.GetTenantBookingsRequest{TenantID: 10})
	assert.ErrorIs(t, err, ErrInternal)
}

func TestService_UpdateAdminNotes(t *testing.T) {
	svc, repo := newFixture()
	admin := domain.Principal{UserID: 1, TenantID: ptr.Ptr(int64(10)), Role: domain.RoleTenantAdmin}

	// заметки можно менять и у отменённого бронирования
	resp, err := svc.UpdateAdminNotes(context.Background(), admin, 1, &models.UpdateAdminNotesRequest{Notes: " refund issued "})
	require.NoError(t, err)
	assert.Equal(t, "refund issued", *resp.AdminNotes)
	assert.Equal(t, "refund issued", *repo.bookings[1].AdminNotes)

	_, err = svc.UpdateAdminNotes(context.Background(), domain.Principal{UserID: 500}, 1, &models.UpdateAdminNotesRequest{Notes: "x"})
	assert.ErrorIs(t, err, ErrAccessDenied)
}
