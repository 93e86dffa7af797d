package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/infra/locks"
	bookingRepo "github.com/m04kA/SMC-SlotBookingService/internal/infra/storage/booking"
)

const defaultLockTTL = 10 * time.Second

// Service журнал занятости слотов. Ожидающее бронирование и есть холд:
// пока оно в статусе pending и не истекло, его слоты заняты.
type Service struct {
	bookingRepo  BookingRepository
	locker       Locker
	txManager    TransactionManager
	metrics      Metrics
	logger       Logger
	timeProvider TimeProvider
	cfg          Config
}

// NewService создает новый экземпляр ledger
func NewService(
	bookingRepo BookingRepository,
	locker Locker,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
	cfg Config,
) *Service {
	if cfg.DefaultHoldTTL <= 0 {
		cfg.DefaultHoldTTL = domain.DefaultHoldTTLMinutes * time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}

	return &Service{
		bookingRepo:  bookingRepo,
		locker:       locker,
		txManager:    txManager,
		metrics:      metrics,
		logger:       logger,
		timeProvider: &RealTimeProvider{},
		cfg:          cfg,
	}
}

// SetTimeProvider устанавливает кастомный провайдер времени (для тестирования)
func (s *Service) SetTimeProvider(tp TimeProvider) {
	s.timeProvider = tp
}

// CheckAndReserve атомарно проверяет слоты и создаёт ожидающее бронирование (холд).
// Пересекающиеся попытки разрешаются так, что выигрывает ровно одна;
// непересекающиеся не блокируют друг друга.
func (s *Service) CheckAndReserve(ctx context.Context, req ReserveRequest) (*domain.Booking, error) {
	now := s.timeProvider.Now()

	slots, err := validateSlots(req.Listing, req.Date, req.SlotIDs, now)
	if err != nil {
		s.logger.Warn("CheckAndReserve: validation failed: %v", err)
		return nil, err
	}

	listing := req.Listing
	slotIDs := slotIDsOf(slots)

	keys := make([]string, len(slotIDs))
	keyToSlot := make(map[string]string, len(slotIDs))
	for i, id := range slotIDs {
		keys[i] = lockKey(listing.TenantID, listing.ID, req.Date, id)
		keyToSlot[keys[i]] = id
	}

	unlock, err := s.locker.Acquire(ctx, keys, s.cfg.LockTTL)
	if err != nil {
		var locked *locks.LockedError
		if errors.As(err, &locked) {
			conflict := make([]string, 0, len(locked.Keys))
			for _, k := range locked.Keys {
				conflict = append(conflict, keyToSlot[k])
			}
			s.metrics.IncSlotConflict("lock")
			s.logger.Info("CheckAndReserve: slots %v of listing=%d on %s are locked by another request",
				conflict, listing.ID, req.Date.Format(domain.DateFormat))
			return nil, &SlotConflictError{SlotIDs: conflict}
		}
		// Без блокировки корректность обеспечивает уникальный индекс хранилища
		s.logger.Warn("CheckAndReserve: lock unavailable, relying on storage constraint: %v", err)
		unlock = func() {}
	}
	defer unlock()

	holdTTL := req.HoldTTL
	if holdTTL <= 0 {
		holdTTL = s.cfg.DefaultHoldTTL
	}
	holdExpiresAt := now.Add(holdTTL)

	actor := req.Actor
	if actor == "" {
		actor = domain.ActorUser
	}

	booking := &domain.Booking{
		Reference:     uuid.NewString(),
		TenantID:      listing.TenantID,
		ListingID:     listing.ID,
		UserID:        req.UserID,
		BookingDate:   req.Date,
		SlotIDs:       slotIDs,
		Status:        domain.StatusPending,
		Customer:      req.Customer,
		Pricing:       domain.PricingBreakdown{Currency: listing.Currency},
		HoldExpiresAt: &holdExpiresAt,
	}
	booking.AppendHistory(domain.StatusChange{
		Status:  domain.StatusPending,
		Actor:   actor,
		ActorID: req.ActorID,
		Reason:  "slots reserved",
		At:      now,
	})

	// Цена считается до вставки: холд без итоговой суммы не должен попасть в хранилище
	if req.Price != nil {
		if err := req.Price(ctx, booking); err != nil {
			s.logger.Warn("CheckAndReserve: pricing of slots %v of listing=%d failed: %v", slotIDs, listing.ID, err)
			return nil, fmt.Errorf("%w: %w", ErrPricing, err)
		}
	}

	var (
		expired  []*domain.Booking
		conflict []string
		raced    bool
	)

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		expired = expired[:0]

		holders, err := s.bookingRepo.FindActiveOverlapping(ctx, listing.TenantID, listing.ID, req.Date, slots)
		if err != nil {
			return err
		}

		// Ленивое истечение: просроченные холды освобождаются в той же транзакции
		blocking := make([]*domain.Booking, 0, len(holders))
		for _, h := range holders {
			if !h.HoldExpired(now) {
				blocking = append(blocking, h)
				continue
			}
			ok, err := s.bookingRepo.TransitionStatus(ctx, h.ID,
				[]domain.BookingStatus{domain.StatusPending},
				systemChange(domain.StatusCancelled, reasonHoldExpired, now),
				bookingRepo.StatusPatch{})
			if err != nil {
				return err
			}
			if ok {
				expired = append(expired, h)
			}
		}

		if taken := conflictingSlots(slots, occupiedRanges(blocking, now)); len(taken) > 0 {
			conflict = taken
			return ErrSlotConflict
		}

		if _, err := s.bookingRepo.Create(ctx, booking); err != nil {
			if errors.Is(err, bookingRepo.ErrSlotTaken) {
				raced = true
			}
			return err
		}
		return nil
	})

	if err != nil {
		if conflict != nil {
			s.metrics.IncSlotConflict("check")
			s.logger.Info("CheckAndReserve: slots %v of listing=%d on %s already taken",
				conflict, listing.ID, req.Date.Format(domain.DateFormat))
			return nil, &SlotConflictError{SlotIDs: conflict}
		}
		if raced {
			s.metrics.IncSlotConflict("insert")
			taken := s.resolveConflict(ctx, listing, req.Date, slots, now)
			s.logger.Info("CheckAndReserve: lost insert race for slots %v of listing=%d", taken, listing.ID)
			return nil, &SlotConflictError{SlotIDs: taken}
		}
		s.logger.Error("CheckAndReserve: failed to reserve slots %v of listing=%d: %v", slotIDs, listing.ID, err)
		return nil, fmt.Errorf("%w: CheckAndReserve - reserve: %v", ErrInternal, err)
	}

	for _, e := range expired {
		s.metrics.IncBookingTransition(string(domain.StatusCancelled), string(domain.ActorSystem))
		s.logger.Info("CheckAndReserve: released expired hold booking id=%d", e.ID)
	}
	s.metrics.IncBookingTransition(string(domain.StatusPending), string(actor))
	s.logger.Info("CheckAndReserve: booking id=%d holds slots %v of listing=%d on %s until %s",
		booking.ID, slotIDs, listing.ID, req.Date.Format(domain.DateFormat), holdExpiresAt.Format(time.RFC3339))

	return booking, nil
}

// resolveConflict определяет, какие именно слоты заняли, после проигранной гонки на вставке.
// Слот занят, если его интервал пересекается с интервалом чужого слота, даже с другим идентификатором.
func (s *Service) resolveConflict(ctx context.Context, listing *domain.Listing, date time.Time, slots []domain.Slot, now time.Time) []string {
	holders, err := s.bookingRepo.FindActiveOverlapping(ctx, listing.TenantID, listing.ID, date, slots)
	if err != nil {
		s.logger.Warn("resolveConflict: failed to load slot holders: %v", err)
		return slotIDsOf(slots)
	}

	taken := conflictingSlots(slots, occupiedRanges(holders, now))
	if len(taken) == 0 {
		return slotIDsOf(slots)
	}
	return taken
}

// Release снимает холд: pending → cancelled, слоты освобождаются.
// Повторный вызов возвращает ErrAlreadyReleased, после подтверждения ErrAlreadyConfirmed;
// состояние бронирования в этих случаях не меняется.
func (s *Service) Release(ctx context.Context, id int64, req TransitionRequest) (*domain.Booking, error) {
	return s.transition(ctx, "Release", id, domain.StatusCancelled, req, bookingRepo.StatusPatch{},
		func(b *domain.Booking, _ time.Time) error {
			switch b.Status {
			case domain.StatusPending:
				return nil
			case domain.StatusCancelled:
				return ErrAlreadyReleased
			default:
				return ErrAlreadyConfirmed
			}
		})
}

// Cancel отменяет ожидающее или подтверждённое бронирование и освобождает слоты
func (s *Service) Cancel(ctx context.Context, id int64, req TransitionRequest) (*domain.Booking, error) {
	return s.transition(ctx, "Cancel", id, domain.StatusCancelled, req, bookingRepo.StatusPatch{},
		func(b *domain.Booking, _ time.Time) error {
			switch {
			case b.CanBeCancelled():
				return nil
			case b.Status == domain.StatusCancelled:
				return ErrAlreadyReleased
			default:
				return fmt.Errorf("%w: cannot cancel %s booking", ErrInvalidTransition, b.Status)
			}
		})
}

// Complete переводит подтверждённое бронирование в completed после окончания последнего слота
func (s *Service) Complete(ctx context.Context, id int64) (*domain.Booking, error) {
	req := TransitionRequest{Actor: domain.ActorSystem, Reason: reasonCompleted}
	return s.transition(ctx, "Complete", id, domain.StatusCompleted, req, bookingRepo.StatusPatch{},
		func(b *domain.Booking, now time.Time) error {
			if b.Status != domain.StatusConfirmed {
				return fmt.Errorf("%w: cannot complete %s booking", ErrInvalidTransition, b.Status)
			}
			endsAt, err := b.EndsAt()
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInternal, err)
			}
			if now.Before(endsAt) {
				return fmt.Errorf("%w: booking ends at %s", ErrInvalidTransition, endsAt.Format(time.RFC3339))
			}
			return nil
		})
}

// Confirm переводит pending → confirmed.
// Истёкший холд снимается и возвращается ErrHoldExpired (кроме подтверждения администратором).
// Повторное подтверждение возвращает бронирование вместе с ErrAlreadyConfirmed.
func (s *Service) Confirm(ctx context.Context, id int64, req ConfirmRequest) (*domain.Booking, error) {
	now := s.timeProvider.Now()

	var (
		booking *domain.Booking
		expired bool
		state   error
	)

	err := s.withRetry(ctx, func(ctx context.Context) error {
		expired, state = false, nil

		b, err := s.bookingRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		booking = b

		switch b.Status {
		case domain.StatusCancelled:
			state = ErrAlreadyReleased
			return nil
		case domain.StatusConfirmed, domain.StatusCompleted:
			state = ErrAlreadyConfirmed
			return nil
		}

		if !req.Override && b.HoldExpired(now) {
			change := systemChange(domain.StatusCancelled, reasonHoldExpired, now)
			ok, err := s.bookingRepo.TransitionStatus(ctx, b.ID, []domain.BookingStatus{domain.StatusPending}, change, bookingRepo.StatusPatch{})
			if err != nil {
				return err
			}
			if ok {
				b.Status = domain.StatusCancelled
				b.AppendHistory(change)
				expired = true
			}
			state = ErrHoldExpired
			return nil
		}

		change := statusChange(domain.StatusConfirmed, req.TransitionRequest, now)
		if req.Override && change.Reason == "" {
			change.Reason = "confirmed by admin override"
		}
		ok, err := s.bookingRepo.TransitionStatus(ctx, b.ID, []domain.BookingStatus{domain.StatusPending}, change,
			bookingRepo.StatusPatch{PaymentReference: req.PaymentReference})
		if err != nil {
			return err
		}
		if !ok {
			return errStatusChanged
		}

		b.Status = domain.StatusConfirmed
		b.PaymentReference = req.PaymentReference
		b.AppendHistory(change)
		return nil
	})

	if err != nil {
		return nil, s.mapError("Confirm", id, err)
	}

	if expired {
		s.metrics.IncBookingTransition(string(domain.StatusCancelled), string(domain.ActorSystem))
		s.logger.Info("Confirm: hold of booking id=%d expired, slots released", id)
	}
	if state != nil {
		s.logger.Info("Confirm: booking id=%d not confirmed: %v", id, state)
		return booking, state
	}

	s.metrics.IncBookingTransition(string(domain.StatusConfirmed), string(req.Actor))
	s.logger.Info("Confirm: booking id=%d confirmed by %s", id, req.Actor)
	return booking, nil
}

// Availability слоты листинга на дату с признаком доступности.
// Истёкшие холды считаются свободными ещё до того, как их отменит воркер.
func (s *Service) Availability(ctx context.Context, listing *domain.Listing, date time.Time) ([]domain.SlotAvailability, error) {
	now := s.timeProvider.Now()

	if !listing.Active || !listing.Window.IsWorkingDay(date.Weekday()) {
		return []domain.SlotAvailability{}, nil
	}

	daySlots, err := listing.Window.Slots()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	bookings, err := s.bookingRepo.ListActiveOnDate(ctx, listing.TenantID, listing.ID, date)
	if err != nil {
		s.logger.Error("Availability: failed to load bookings of listing=%d: %v", listing.ID, err)
		return nil, fmt.Errorf("%w: Availability - list bookings: %v", ErrInternal, err)
	}
	occupied := occupiedRanges(bookings, now)

	result := make([]domain.SlotAvailability, 0, len(daySlots))
	for _, slot := range daySlots {
		available := listing.Window.IsSlotActive(slot.ID()) &&
			listing.Window.BookingWindow(date, slot, now) == nil &&
			!isOccupied(slot, occupied)

		result = append(result, domain.SlotAvailability{
			Slot:      slot,
			Available: available,
			Price:     listing.SlotBasePrice(slot.ID()),
		})
	}

	return result, nil
}

// ExpireHolds отменяет ожидающие бронирования с истёкшим холдом
func (s *Service) ExpireHolds(ctx context.Context, limit uint64) (*SweepResult, error) {
	now := s.timeProvider.Now()

	ids, err := s.bookingRepo.ListExpiredHolds(ctx, now, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: ExpireHolds - list: %v", ErrInternal, err)
	}

	result := &SweepResult{Processed: make([]*domain.Booking, 0, len(ids))}
	req := TransitionRequest{Actor: domain.ActorSystem, Reason: reasonHoldExpired}

	for _, id := range ids {
		b, err := s.transition(ctx, "ExpireHolds", id, domain.StatusCancelled, req, bookingRepo.StatusPatch{},
			func(b *domain.Booking, now time.Time) error {
				if !b.HoldExpired(now) {
					return fmt.Errorf("%w: hold is still valid", ErrInvalidTransition)
				}
				return nil
			})
		if err != nil {
			if errors.Is(err, ErrInternal) {
				result.Failed++
			}
			continue
		}
		result.Processed = append(result.Processed, b)
	}

	return result, nil
}

// CompleteFinished завершает подтверждённые бронирования, время которых прошло
func (s *Service) CompleteFinished(ctx context.Context, limit uint64) (*SweepResult, error) {
	now := s.timeProvider.Now()

	ids, err := s.bookingRepo.ListFinished(ctx, now, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: CompleteFinished - list: %v", ErrInternal, err)
	}

	result := &SweepResult{Processed: make([]*domain.Booking, 0, len(ids))}
	for _, id := range ids {
		b, err := s.Complete(ctx, id)
		if err != nil {
			if errors.Is(err, ErrInternal) {
				result.Failed++
			}
			continue
		}
		result.Processed = append(result.Processed, b)
	}

	return result, nil
}

var errStatusChanged = errors.New("ledger: status changed concurrently")

// withRetry выполняет fn в транзакции. Если compare-and-swap проиграл гонку,
// fn выполняется ещё раз и видит уже новый статус.
func (s *Service) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	err := s.txManager.Do(ctx, fn)
	if errors.Is(err, errStatusChanged) {
		err = s.txManager.Do(ctx, fn)
	}
	return err
}

// transition общий путь перехода статуса: блокировка строки, проверка, compare-and-swap
func (s *Service) transition(
	ctx context.Context,
	op string,
	id int64,
	to domain.BookingStatus,
	req TransitionRequest,
	patch bookingRepo.StatusPatch,
	check func(b *domain.Booking, now time.Time) error,
) (*domain.Booking, error) {
	now := s.timeProvider.Now()

	var (
		booking *domain.Booking
		state   error
	)

	err := s.withRetry(ctx, func(ctx context.Context) error {
		state = nil

		b, err := s.bookingRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		booking = b

		if err := check(b, now); err != nil {
			state = err
			return nil
		}

		change := statusChange(to, req, now)
		ok, err := s.bookingRepo.TransitionStatus(ctx, b.ID, []domain.BookingStatus{b.Status}, change, patch)
		if err != nil {
			return err
		}
		if !ok {
			return errStatusChanged
		}

		b.Status = to
		b.AppendHistory(change)
		return nil
	})

	if err != nil {
		return nil, s.mapError(op, id, err)
	}
	if state != nil {
		s.logger.Info("%s: booking id=%d left as %s: %v", op, id, booking.Status, state)
		return booking, state
	}

	s.metrics.IncBookingTransition(string(to), string(req.Actor))
	s.logger.Info("%s: booking id=%d moved to %s by %s", op, id, to, req.Actor)
	return booking, nil
}

// mapError переводит ошибки хранилища в ошибки ledger.
// Проигранный compare-and-swap перечитывает статус и возвращает соответствующую ошибку.
func (s *Service) mapError(op string, id int64, err error) error {
	switch {
	case errors.Is(err, bookingRepo.ErrBookingNotFound):
		return ErrNotFound
	case errors.Is(err, errStatusChanged):
		s.logger.Info("%s: booking id=%d changed concurrently", op, id)
		return ErrInvalidTransition
	default:
		s.logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
		return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
	}
}

func statusChange(to domain.BookingStatus, req TransitionRequest, now time.Time) domain.StatusChange {
	return domain.StatusChange{
		Status:   to,
		Actor:    req.Actor,
		ActorID:  req.ActorID,
		Reason:   req.Reason,
		Metadata: req.Metadata,
		At:       now,
	}
}

func systemChange(to domain.BookingStatus, reason string, now time.Time) domain.StatusChange {
	return domain.StatusChange{
		Status: to,
		Actor:  domain.ActorSystem,
		Reason: reason,
		At:     now,
	}
}
