package get_availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/integrations/listingservice"
)

// UseCase use case для получения доступных слотов листинга с ценами
type UseCase struct {
	listingClient ListingClient
	ledger        Ledger
	pricing       PricingService
	timeProvider  TimeProvider
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(listingClient ListingClient, ledger Ledger, pricing PricingService, logger Logger) *UseCase {
	return &UseCase{
		listingClient: listingClient,
		ledger:        ledger,
		pricing:       pricing,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// SetTimeProvider устанавливает кастомный провайдер времени (для тестирования)
func (uc *UseCase) SetTimeProvider(tp TimeProvider) {
	uc.timeProvider = tp
}

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailability: user=%d, tenant=%d, listing=%d, date=%s",
		req.UserID, req.TenantID, req.ListingID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailability: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	// 2. Листинг и его окно доступности
	listing, err := uc.listingClient.GetListing(ctx, req.TenantID, req.ListingID)
	if err != nil {
		if errors.Is(err, listingservice.ErrListingNotFound) {
			uc.logger.Warn("GetAvailability: listing id=%d not found in tenant=%d", req.ListingID, req.TenantID)
			return nil, ErrListingNotFound
		}
		uc.logger.Error("GetAvailability: failed to get listing id=%d: %v", req.ListingID, err)
		return nil, fmt.Errorf("%w: failed to get listing: %v", ErrInternal, err)
	}

	// 3. Дата в пределах окна бронирования
	if err := validateDate(req.Date, now, listing.Window.MaxAdvanceDays); err != nil {
		uc.logger.Warn("GetAvailability: date validation failed: %v", err)
		return nil, err
	}

	resp := &Response{
		Date:      req.Date,
		TenantID:  req.TenantID,
		ListingID: req.ListingID,
		Currency:  listing.Currency,
		Slots:     []Slot{},
	}

	// 4. Занятость слотов
	availability, err := uc.ledger.Availability(ctx, listing, req.Date)
	if err != nil {
		uc.logger.Error("GetAvailability: failed to get availability of listing id=%d: %v", req.ListingID, err)
		return nil, fmt.Errorf("%w: failed to get availability: %v", ErrInternal, err)
	}
	if len(availability) == 0 {
		uc.logger.Info("GetAvailability: listing id=%d has no slots on %s", req.ListingID, req.Date.Format(domain.DateFormat))
		return resp, nil
	}

	occupancy := domain.OccupancyPercent(availability)
	resp.Occupancy = occupancy

	// 5. Цены по правилам на момент запроса
	slots := make([]domain.Slot, len(availability))
	for i, a := range availability {
		slots[i] = a.Slot
	}

	lines, err := uc.pricing.QuoteSlots(ctx, listing, req.Date, slots, now, &occupancy)
	if err != nil {
		uc.logger.Error("GetAvailability: failed to quote slots of listing id=%d: %v", req.ListingID, err)
		return nil, fmt.Errorf("%w: failed to quote slots: %v", ErrInternal, err)
	}
	prices := make(map[string]domain.PriceLine, len(lines))
	for _, line := range lines {
		prices[line.SlotID] = line
	}

	resp.Slots = make([]Slot, 0, len(availability))
	for _, a := range availability {
		slot := Slot{
			ID:              a.Slot.ID(),
			StartTime:       a.Slot.Start.String(),
			EndTime:         a.Slot.End.String(),
			DurationMinutes: a.Slot.DurationMinutes(),
			Available:       a.Available,
			BasePrice:       a.Price,
			Price:           a.Price,
		}
		if line, ok := prices[slot.ID]; ok {
			slot.Price = line.FinalPrice
		}
		resp.Slots = append(resp.Slots, slot)
	}

	uc.logger.Info("GetAvailability: %d slots for listing=%d on %s, occupancy=%d%%",
		len(resp.Slots), req.ListingID, req.Date.Format(domain.DateFormat), occupancy)

	return resp, nil
}
