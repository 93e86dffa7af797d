package cancel_booking

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SlotBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SlotBookingService/internal/integrations/notification"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/ledger"
	"github.com/m04kA/SMC-SlotBookingService/pkg/logger"
	"github.com/m04kA/SMC-SlotBookingService/pkg/ptr"
)

type fakeRepo struct {
	booking *domain.Booking
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	if r.booking == nil || r.booking.ID != id {
		return nil, bookingRepo.ErrBookingNotFound
	}
	cp := *r.booking
	return &cp, nil
}

type fakeLedger struct {
	booking *domain.Booking
	err     error
	got     ledger.TransitionRequest
	calls   int
}

func (f *fakeLedger) Cancel(_ context.Context, _ int64, req ledger.TransitionRequest) (*domain.Booking, error) {
	f.calls++
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	b := *f.booking
	b.Status = domain.StatusCancelled
	return &b, nil
}

type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) Notify(_ context.Context, event string, _ *domain.Booking) {
	f.events = append(f.events, event)
}

func newFixture() (*UseCase, *fakeLedger, *fakeNotifier) {
	b := &domain.Booking{ID: 7, TenantID: 1, UserID: 100, Status: domain.StatusConfirmed}
	l := &fakeLedger{booking: b}
	n := &fakeNotifier{}
	return NewUseCase(&fakeRepo{booking: b}, l, n, logger.NewNop()), l, n
}

func TestExecute_OwnerCancels(t *testing.T) {
	uc, l, n := newFixture()

	resp, err := uc.Execute(context.Background(), &Request{
		Principal: domain.Principal{UserID: 100, Role: domain.RoleCustomer},
		BookingID: 7,
	})

	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Booking.Status)
	assert.Equal(t, domain.ActorUser, l.got.Actor)
	assert.Equal(t, defaultUserReason, l.got.Reason)
	assert.Equal(t, []string{notification.EventBookingCancelled}, n.events)
}

func TestExecute_AdminCancelsWithReason(t *testing.T) {
	uc, l, _ := newFixture()
	admin := domain.Principal{UserID: 1, TenantID: ptr.Ptr(int64(1)), Role: domain.RoleTenantAdmin}

	_, err := uc.Execute(context.Background(), &Request{Principal: admin, BookingID: 7, Reason: "venue closed"})

	require.NoError(t, err)
	assert.Equal(t, domain.ActorAdmin, l.got.Actor)
	assert.Equal(t, "venue closed", l.got.Reason)
	assert.Equal(t, int64(1), *l.got.ActorID)
}

func TestExecute_Rejections(t *testing.T) {
	t.Run("stranger", func(t *testing.T) {
		uc, l, _ := newFixture()
		_, err := uc.Execute(context.Background(), &Request{Principal: domain.Principal{UserID: 5}, BookingID: 7})
		assert.ErrorIs(t, err, ErrAccessDenied)
		assert.Zero(t, l.calls)
	})

	t.Run("not found", func(t *testing.T) {
		uc, _, _ := newFixture()
		_, err := uc.Execute(context.Background(), &Request{Principal: domain.Principal{UserID: 100}, BookingID: 8})
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("reason too long", func(t *testing.T) {
		uc, _, _ := newFixture()
		_, err := uc.Execute(context.Background(), &Request{
			Principal: domain.Principal{UserID: 100},
			BookingID: 7,
			Reason:    strings.Repeat("x", domain.MaxCancellationReasonLength+1),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	tests := []struct {
		name      string
		ledgerErr error
		wantErr   error
	}{
		{name: "already cancelled", ledgerErr: ledger.ErrAlreadyReleased, wantErr: ErrAlreadyCancelled},
		{name: "completed", ledgerErr: fmt.Errorf("%w: cannot cancel completed booking", ledger.ErrInvalidTransition), wantErr: ErrCannotCancel},
		{name: "storage", ledgerErr: fmt.Errorf("%w: db", ledger.ErrInternal), wantErr: ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, l, n := newFixture()
			l.err = tt.ledgerErr

			_, err := uc.Execute(context.Background(), &Request{Principal: domain.Principal{UserID: 100}, BookingID: 7})

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, n.events)
		})
	}
}

func TestCancelForPayment(t *testing.T) {
	uc, l, n := newFixture()

	_, err := uc.CancelForPayment(context.Background(), &PaymentFailureRequest{BookingID: 7, PaymentReference: "pay_9"})

	require.NoError(t, err)
	assert.Equal(t, domain.ActorPayment, l.got.Actor)
	assert.Equal(t, defaultPaymentReason, l.got.Reason)
	assert.Equal(t, "pay_9", l.got.Metadata["paymentReference"])
	assert.Equal(t, []string{notification.EventBookingCancelled}, n.events)
}
