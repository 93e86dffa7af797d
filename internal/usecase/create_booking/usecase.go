package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/integrations/listingservice"
	"github.com/m04kA/SMC-SlotBookingService/internal/integrations/notification"
	"github.com/m04kA/SMC-SlotBookingService/internal/integrations/payment"
	"github.com/m04kA/SMC-SlotBookingService/internal/integrations/userservice"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/ledger"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/promotion"
	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
)

const reasonCreateFailed = "booking creation failed"

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo   BookingRepository
	listingClient ListingClient
	userClient    UserServiceClient
	ledger        Ledger
	pricing       PricingService
	promotions    PromotionService
	payment       PaymentClient
	notifier      Notifier
	timeProvider  TimeProvider
	logger        Logger
	cfg           Config
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	listingClient ListingClient,
	userClient UserServiceClient,
	ledger Ledger,
	pricing PricingService,
	promotions PromotionService,
	payment PaymentClient,
	notifier Notifier,
	logger Logger,
	cfg Config,
) *UseCase {
	return &UseCase{
		bookingRepo:   bookingRepo,
		listingClient: listingClient,
		userClient:    userClient,
		ledger:        ledger,
		pricing:       pricing,
		promotions:    promotions,
		payment:       payment,
		notifier:      notifier,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
		cfg:           cfg,
	}
}

// SetTimeProvider устанавливает кастомный провайдер времени (для тестирования)
func (uc *UseCase) SetTimeProvider(tp TimeProvider) {
	uc.timeProvider = tp
}

// Execute резервирует слоты, считает цену и создаёт платёжный заказ.
// Если после резервирования что-то пошло не так, холд снимается до возврата ошибки.
// Неподходящий промокод не прерывает оформление: бронирование создаётся без скидки.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: user=%d, tenant=%d, listing=%d, date=%s, slots=%v",
		req.Principal.UserID, req.TenantID, req.ListingID, req.Date.Format(domain.DateFormat), req.SlotIDs)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	// 2. Листинг и его окно доступности
	listing, err := uc.listingClient.GetListing(ctx, req.TenantID, req.ListingID)
	if err != nil {
		if errors.Is(err, listingservice.ErrListingNotFound) {
			uc.logger.Warn("CreateBooking: listing id=%d not found in tenant=%d", req.ListingID, req.TenantID)
			return nil, ErrListingNotFound
		}
		uc.logger.Error("CreateBooking: failed to get listing id=%d: %v", req.ListingID, err)
		return nil, fmt.Errorf("%w: failed to get listing: %v", ErrInternal, err)
	}

	// 3. Профиль клиента. UserService может быть недоступен, тогда хватает данных запроса.
	profile, err := uc.userClient.GetCustomerWithGracefulDegradation(ctx, req.Principal.UserID)
	if err != nil && !errors.Is(err, userservice.ErrCustomerNotFound) && !errors.Is(err, userservice.ErrServiceDegraded) {
		uc.logger.Error("CreateBooking: failed to get customer profile for user=%d: %v", req.Principal.UserID, err)
		return nil, fmt.Errorf("%w: failed to get customer: %v", ErrInternal, err)
	}
	customer, err := buildCustomerSnapshot(req.Customer, profile)
	if err != nil {
		uc.logger.Warn("CreateBooking: no customer name for user=%d", req.Principal.UserID)
		return nil, err
	}

	// 4. Загрузка дня для правил demand_based
	occupancy := uc.occupancy(ctx, listing, req)

	// 5. Резервирование слотов. Цена, скидка и налог считаются под блокировкой слотов,
	// холд сохраняется сразу с итоговой суммой.
	var (
		rejection *string
		priceErr  error
	)
	hold, err := uc.ledger.CheckAndReserve(ctx, ledger.ReserveRequest{
		Listing:  listing,
		Date:     req.Date,
		SlotIDs:  req.SlotIDs,
		UserID:   req.Principal.UserID,
		Customer: customer,
		HoldTTL:  uc.cfg.HoldTTL,
		Actor:    req.Principal.Actor(),
		ActorID:  &req.Principal.UserID,
		Price: func(ctx context.Context, b *domain.Booking) error {
			rejection, priceErr = uc.price(ctx, listing, b, req, now, occupancy)
			return priceErr
		},
	})
	if err != nil {
		var conflict *ledger.SlotConflictError
		switch {
		case priceErr != nil:
			return nil, priceErr
		case errors.As(err, &conflict):
			uc.logger.Warn("CreateBooking: slots %v already taken", conflict.SlotIDs)
			return nil, err
		case errors.Is(err, ledger.ErrValidation):
			uc.logger.Warn("CreateBooking: slots rejected: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		default:
			uc.logger.Error("CreateBooking: reservation failed: %v", err)
			return nil, fmt.Errorf("%w: reservation failed: %v", ErrPersistence, err)
		}
	}

	// Холд снимается на любом неуспешном выходе
	succeeded := false
	defer func() {
		if !succeeded {
			uc.releaseHold(ctx, hold.ID)
		}
	}()

	// 6. Платёжный заказ. Бесплатное бронирование подтверждается без оплаты.
	if hold.Pricing.Total > 0 {
		token, err := uc.payment.Authorize(ctx, hold.Pricing.Total, hold.Pricing.Currency, hold.Reference)
		if err != nil {
			if errors.Is(err, payment.ErrAuthorizationDeclined) {
				uc.logger.Warn("CreateBooking: payment declined for booking id=%d: %v", hold.ID, err)
				return nil, ErrPaymentDeclined
			}
			uc.logger.Error("CreateBooking: payment authorization failed for booking id=%d: %v", hold.ID, err)
			return nil, fmt.Errorf("%w: payment authorization failed: %v", ErrInternal, err)
		}
		if err := uc.bookingRepo.SetPaymentOrderToken(ctx, hold.ID, token); err != nil {
			uc.logger.Error("CreateBooking: failed to save order token of booking id=%d: %v", hold.ID, err)
			return nil, fmt.Errorf("%w: failed to save order token: %v", ErrPersistence, err)
		}
		hold.PaymentOrderToken = &token
	}

	succeeded = true
	uc.notifier.Notify(ctx, notification.EventBookingCreated, hold)

	uc.logger.Info("CreateBooking: successfully created booking id=%d ref=%s total=%s",
		hold.ID, hold.Reference, hold.Pricing.Total.Format(money.CurrencyFromCode(hold.Pricing.Currency)))

	return &Response{
		Booking:            models.FromDomainBooking(hold),
		PromotionRejection: rejection,
	}, nil
}

// occupancy процент занятых слотов дня. Ошибка чтения не критична: правила по загрузке просто не сработают.
func (uc *UseCase) occupancy(ctx context.Context, listing *domain.Listing, req *Request) *int {
	slots, err := uc.ledger.Availability(ctx, listing, req.Date)
	if err != nil {
		uc.logger.Warn("CreateBooking: occupancy unavailable for listing=%d: %v", listing.ID, err)
		return nil
	}
	occupancy := domain.OccupancyPercent(slots)
	return &occupancy
}

// price заполняет расчёт стоимости холда до его сохранения.
// Возвращает причину отказа промокода, если он не подошёл.
func (uc *UseCase) price(ctx context.Context, listing *domain.Listing, hold *domain.Booking, req *Request, now time.Time, occupancy *int) (*string, error) {
	slots := make([]domain.Slot, 0, len(hold.SlotIDs))
	for _, id := range hold.SlotIDs {
		slot, err := domain.ParseSlotID(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		slots = append(slots, slot)
	}

	lines, err := uc.pricing.QuoteSlots(ctx, listing, req.Date, slots, now, occupancy)
	if err != nil {
		uc.logger.Error("CreateBooking: pricing failed for slots %v of listing=%d: %v", hold.SlotIDs, listing.ID, err)
		return nil, fmt.Errorf("%w: pricing failed: %v", ErrInternal, err)
	}

	currency := money.CurrencyFromCode(listing.Currency)
	var subtotal money.Amount
	for _, l := range lines {
		subtotal += l.FinalPrice
	}

	var rejection *string
	selection, err := uc.promotions.SelectBestPromotion(ctx, promotion.SelectRequest{
		Code: req.CouponCode,
		Order: promotion.Order{
			TenantID:     listing.TenantID,
			UserID:       hold.UserID,
			UserCategory: hold.Customer.Category,
			ListingID:    listing.ID,
			ListingType:  listing.Type,
			SlotCount:    len(slots),
			Subtotal:     subtotal,
		},
		Now: now,
	})
	if err != nil {
		var ineligible *promotion.IneligibleError
		if !errors.As(err, &ineligible) {
			uc.logger.Error("CreateBooking: promotion selection failed for user=%d, listing=%d: %v", hold.UserID, listing.ID, err)
			return nil, fmt.Errorf("%w: promotion selection failed: %v", ErrInternal, err)
		}
		uc.logger.Info("CreateBooking: coupon %s not applied: %s", ineligible.Code, ineligible.Reason)
		rejection = &ineligible.Reason
	}

	var discount money.Amount
	if selection != nil {
		discount = selection.Discount
		hold.Promotion = selection.Promotion.Snapshot()
	}

	taxPercent := uc.cfg.DefaultTaxPercent
	if listing.TaxPercent != nil {
		taxPercent = *listing.TaxPercent
	}
	taxable := subtotal - discount
	tax := taxable.Percent(taxPercent)

	hold.Pricing = domain.PricingBreakdown{
		Currency:   currency.Code,
		Lines:      lines,
		Subtotal:   subtotal,
		Discount:   discount,
		TaxPercent: taxPercent,
		Tax:        tax,
		Total:      taxable + tax,
	}

	return rejection, nil
}

// releaseHold снимает холд и не зависит от отмены контекста запроса
func (uc *UseCase) releaseHold(ctx context.Context, id int64) {
	releaseCtx := context.WithoutCancel(ctx)
	_, err := uc.ledger.Release(releaseCtx, id, ledger.TransitionRequest{
		Actor:  domain.ActorSystem,
		Reason: reasonCreateFailed,
	})
	if err != nil && !errors.Is(err, ledger.ErrAlreadyReleased) {
		uc.logger.Error("CreateBooking: failed to release hold of booking id=%d: %v", id, err)
		return
	}
	uc.logger.Info("CreateBooking: hold of booking id=%d released", id)
}
