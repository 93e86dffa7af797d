package booking

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/pkg/dbmetrics"
)

func newRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(dbmetrics.Wrap(db, nil)), mock
}

func pendingBooking() *domain.Booking {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	expires := now.Add(15 * time.Minute)
	return &domain.Booking{
		Reference:     "4f0c7f0e-5d0a-4c1e-9a54-1b3a7d2f9e11",
		TenantID:      1,
		ListingID:     10,
		UserID:        100,
		BookingDate:   time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
		SlotIDs:       []string{"18:00-19:00"},
		Status:        domain.StatusPending,
		HoldExpiresAt: &expires,
		History: []domain.StatusChange{
			{Status: domain.StatusPending, Actor: domain.ActorUser, At: now},
		},
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepo(t)
	created := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(42, created, created))
	mock.ExpectExec("INSERT INTO booking_slots").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO booking_status_history").
		WillReturnResult(sqlmock.NewResult(1, 1))

	b, err := repo.Create(context.Background(), pendingBooking())
	require.NoError(t, err)
	assert.Equal(t, int64(42), b.ID)
	assert.Equal(t, created, b.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolationIsSlotTaken(t *testing.T) {
	repo, mock := newRepo(t)
	created := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(43, created, created))
	mock.ExpectExec("INSERT INTO booking_slots").
		WillReturnError(&pq.Error{Code: pgUniqueViolation, Constraint: "booking_slots_active_uniq"})

	_, err := repo.Create(context.Background(), pendingBooking())
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_StoresSlotIntervals(t *testing.T) {
	repo, mock := newRepo(t)
	created := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO bookings (.+)promotion_id,promotion_code,promotion_type,promotion_value(.+)").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(42, created, created))
	mock.ExpectExec("INSERT INTO booking_slots \\(booking_id,tenant_id,listing_id,booking_date,slot_id,start_minute,end_minute,active\\)").
		WithArgs(int64(42), int64(1), int64(10), "2025-06-14", "18:00-19:00", 1080, 1140, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO booking_status_history").
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := repo.Create(context.Background(), pendingBooking())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_OverlapViolationIsSlotTaken(t *testing.T) {
	repo, mock := newRepo(t)
	created := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(44, created, created))
	mock.ExpectExec("INSERT INTO booking_slots").
		WillReturnError(&pq.Error{Code: pgExclusionViolation, Constraint: "ex_booking_slots_active_overlap"})

	_, err := repo.Create(context.Background(), pendingBooking())
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveOverlapping_FiltersByInterval(t *testing.T) {
	repo, mock := newRepo(t)
	slot, err := domain.ParseSlotID("10:00-10:30")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM bookings b JOIN booking_slots s ON s.booking_id = b.id " +
		"WHERE (.+)s.start_minute < \\$5 AND s.end_minute > \\$6(.+)ORDER BY b.id ASC").
		WithArgs(true, "2025-06-14", int64(10), int64(1), 630, 600).
		WillReturnRows(sqlmock.NewRows(bookingColumns))

	holders, err := repo.FindActiveOverlapping(context.Background(), 1, 10,
		time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), []domain.Slot{slot})
	require.NoError(t, err)
	assert.Empty(t, holders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(bookingColumns))

	_, err := repo.GetByID(context.Background(), 7)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatus_CompareAndSwapMiss(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.TransitionStatus(context.Background(), 5,
		[]domain.BookingStatus{domain.StatusPending},
		domain.StatusChange{Status: domain.StatusConfirmed, Actor: domain.ActorPayment, At: time.Now()},
		StatusPatch{})

	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatus_CancelReleasesSlots(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE booking_slots SET active").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO booking_status_history").
		WillReturnResult(sqlmock.NewResult(1, 1))

	ok, err := repo.TransitionStatus(context.Background(), 5,
		[]domain.BookingStatus{domain.StatusPending, domain.StatusConfirmed},
		domain.StatusChange{
			Status:   domain.StatusCancelled,
			Actor:    domain.ActorSystem,
			Reason:   "hold expired",
			Metadata: map[string]string{"source": "sweeper"},
			At:       time.Now(),
		},
		StatusPatch{})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListExpiredHolds(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Date(2025, 6, 10, 12, 30, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id FROM bookings WHERE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(3))

	ids, err := repo.ListExpiredHolds(context.Background(), now, 100)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapPQError(t *testing.T) {
	assert.ErrorIs(t, mapPQError(&pq.Error{Code: pgSerializationFailure}, "op"), ErrSerialization)
	assert.ErrorIs(t, mapPQError(&pq.Error{Code: pgExclusionViolation}, "op"), ErrSlotTaken)
	assert.ErrorIs(t, mapPQError(assert.AnError, "op"), ErrExecQuery)
}
