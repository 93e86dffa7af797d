package payment_callback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SlotBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SlotBookingService/internal/integrations/payment"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SlotBookingService/internal/usecase/cancel_booking"
	"github.com/m04kA/SMC-SlotBookingService/internal/usecase/confirm_booking"
	"github.com/m04kA/SMC-SlotBookingService/pkg/logger"
)

type fakePayment struct {
	result *payment.CallbackResult
	err    error
}

func (f *fakePayment) VerifyCallback(_ context.Context, _ []byte, _ string) (*payment.CallbackResult, error) {
	return f.result, f.err
}

type fakeRepo struct {
	booking *domain.Booking
}

func (r *fakeRepo) GetByReference(_ context.Context, reference string) (*domain.Booking, error) {
	if r.booking == nil || r.booking.Reference != reference {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return r.booking, nil
}

type fakeConfirmer struct {
	got *confirm_booking.PaymentRequest
	err error
}

func (f *fakeConfirmer) ConfirmPaid(_ context.Context, req *confirm_booking.PaymentRequest) (*confirm_booking.Response, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &confirm_booking.Response{Booking: &models.BookingResponse{ID: req.BookingID, Status: "confirmed"}}, nil
}

type fakeCanceller struct {
	got *cancel_booking.PaymentFailureRequest
	err error
}

func (f *fakeCanceller) CancelForPayment(_ context.Context, req *cancel_booking.PaymentFailureRequest) (*cancel_booking.Response, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &cancel_booking.Response{Booking: &models.BookingResponse{ID: req.BookingID, Status: "cancelled"}}, nil
}

type fixture struct {
	uc        *UseCase
	payment   *fakePayment
	repo      *fakeRepo
	confirmer *fakeConfirmer
	canceller *fakeCanceller
}

func newFixture(success bool) *fixture {
	f := &fixture{
		payment: &fakePayment{result: &payment.CallbackResult{
			Success:          success,
			BookingReference: "BK-1",
			PaymentReference: "pay_1",
			Reason:           "card declined",
		}},
		repo:      &fakeRepo{booking: &domain.Booking{ID: 11, Reference: "BK-1", Status: domain.StatusPending}},
		confirmer: &fakeConfirmer{},
		canceller: &fakeCanceller{},
	}
	f.uc = NewUseCase(f.payment, f.repo, f.confirmer, f.canceller, logger.NewNop())
	return f
}

var validRequest = &Request{Payload: []byte(`{"order":"x"}`), Signature: "sig"}

func TestExecute_SuccessConfirms(t *testing.T) {
	f := newFixture(true)

	resp, err := f.uc.Execute(context.Background(), validRequest)

	require.NoError(t, err)
	assert.Equal(t, "confirmed", resp.Booking.Status)
	require.NotNil(t, f.confirmer.got)
	assert.Equal(t, int64(11), f.confirmer.got.BookingID)
	assert.Equal(t, "pay_1", f.confirmer.got.PaymentReference)
	assert.Nil(t, f.canceller.got)
}

func TestExecute_FailureCancels(t *testing.T) {
	f := newFixture(false)

	_, err := f.uc.Execute(context.Background(), validRequest)

	assert.ErrorIs(t, err, ErrPaymentVerificationFailed)
	require.NotNil(t, f.canceller.got)
	assert.Equal(t, "payment failed: card declined", f.canceller.got.Reason)
	assert.Equal(t, "pay_1", f.canceller.got.PaymentReference)
	assert.Nil(t, f.confirmer.got)
}

func TestExecute_FailureRedelivered(t *testing.T) {
	f := newFixture(false)
	f.canceller.err = cancel_booking.ErrAlreadyCancelled

	_, err := f.uc.Execute(context.Background(), validRequest)

	assert.ErrorIs(t, err, ErrPaymentVerificationFailed)
}

func TestExecute_FailureAfterConfirmIgnored(t *testing.T) {
	f := newFixture(false)
	f.repo.booking.Status = domain.StatusConfirmed

	resp, err := f.uc.Execute(context.Background(), validRequest)

	require.NoError(t, err)
	assert.True(t, resp.AlreadyConfirmed)
	assert.Nil(t, f.canceller.got)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		setup   func(f *fixture)
		wantErr error
	}{
		{
			name:    "empty signature",
			req:     &Request{Payload: []byte("{}")},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "bad signature",
			req:     validRequest,
			setup:   func(f *fixture) { f.payment.err = payment.ErrInvalidSignature },
			wantErr: ErrInvalidSignature,
		},
		{
			name:    "payment service down",
			req:     validRequest,
			setup:   func(f *fixture) { f.payment.err = errors.New("connection refused") },
			wantErr: ErrInternal,
		},
		{
			name:    "unknown booking",
			req:     validRequest,
			setup:   func(f *fixture) { f.payment.result.BookingReference = "BK-404" },
			wantErr: ErrBookingNotFound,
		},
		{
			name:    "hold expired before payment",
			req:     validRequest,
			setup:   func(f *fixture) { f.confirmer.err = confirm_booking.ErrHoldExpired },
			wantErr: ErrHoldExpired,
		},
		{
			name:    "confirm storage failure",
			req:     validRequest,
			setup:   func(f *fixture) { f.confirmer.err = confirm_booking.ErrInternal },
			wantErr: ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(true)
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.uc.Execute(context.Background(), tt.req)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
