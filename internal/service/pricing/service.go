package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	ruleRepo "github.com/m04kA/SMC-SlotBookingService/internal/infra/storage/pricing"
	listingClient "github.com/m04kA/SMC-SlotBookingService/internal/integrations/listingservice"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/pricing/models"
	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
)

// Service сервис правил ценообразования: расчёт цен слотов и управление правилами
type Service struct {
	ruleRepo      RuleRepository
	listingClient ListingClient
	metrics       Metrics
	logger        Logger
}

// NewService создает новый экземпляр сервиса ценообразования
func NewService(
	ruleRepo RuleRepository,
	listingClient ListingClient,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		ruleRepo:      ruleRepo,
		listingClient: listingClient,
		metrics:       metrics,
		logger:        logger,
	}
}

// QuoteSlots считает цену каждого слота по активным правилам листинга.
// Правила загружаются один раз на весь набор слотов.
func (s *Service) QuoteSlots(ctx context.Context, listing *domain.Listing, date time.Time, slots []domain.Slot, now time.Time, occupancy *int) ([]domain.PriceLine, error) {
	rules, err := s.ruleRepo.ListByListing(ctx, listing.TenantID, listing.ID, true)
	if err != nil {
		s.logger.Error("QuoteSlots: failed to load rules of listing=%d: %v", listing.ID, err)
		return nil, fmt.Errorf("%w: QuoteSlots - load rules: %v", ErrInternal, err)
	}

	currency := money.CurrencyFromCode(listing.Currency)
	lines := make([]domain.PriceLine, 0, len(slots))

	for _, slot := range slots {
		eval := EvaluatePrice(listing.SlotBasePrice(slot.ID()), rules, PriceTarget{
			Date:           date,
			Slot:           slot,
			EvaluationTime: now,
			Occupancy:      occupancy,
		}, currency)

		for _, w := range eval.Warnings {
			s.metrics.IncPricingWarning(listing.ID)
			s.logger.Warn("QuoteSlots: listing=%d slot=%s on %s: %s (rules fired: %d)",
				listing.ID, slot.ID(), date.Format(domain.DateFormat), w, len(eval.AppliedRules))
		}

		lines = append(lines, domain.PriceLine{
			SlotID:       slot.ID(),
			BasePrice:    eval.BasePrice,
			FinalPrice:   eval.FinalPrice,
			AppliedRules: eval.AppliedRules,
			Warnings:     eval.Warnings,
		})
	}

	return lines, nil
}

// CreateRule создает правило. Доступно только администратору тенанта.
func (s *Service) CreateRule(ctx context.Context, principal domain.Principal, tenantID, listingID int64, req *models.CreateRuleRequest) (*models.RuleResponse, error) {
	s.logger.Info("CreateRule: creating %s rule for listing=%d of tenant=%d by user=%d",
		req.Type, listingID, tenantID, principal.UserID)

	if err := s.checkListingAccess(ctx, principal, tenantID, listingID); err != nil {
		return nil, err
	}

	cond, err := req.Conditions.ToDomainConditions()
	if err != nil {
		s.logger.Warn("CreateRule: invalid conditions: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	rule, err := domain.NewPricingRule(tenantID, listingID, req.Name, domain.RuleType(req.Type),
		cond, req.Modifier.ToDomainModifier(), req.Priority)
	if err != nil {
		s.logger.Warn("CreateRule: validation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	created, err := s.ruleRepo.Create(ctx, rule)
	if err != nil {
		s.logger.Error("CreateRule: repository error: %v", err)
		return nil, fmt.Errorf("%w: CreateRule - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("CreateRule: successfully created rule id=%d", created.ID)
	return models.FromDomainRule(created), nil
}

// ListRules правила листинга в порядке применения
func (s *Service) ListRules(ctx context.Context, principal domain.Principal, tenantID, listingID int64, includeInactive bool) (*models.RuleListResponse, error) {
	if err := s.checkListingAccess(ctx, principal, tenantID, listingID); err != nil {
		return nil, err
	}

	rules, err := s.ruleRepo.ListByListing(ctx, tenantID, listingID, !includeInactive)
	if err != nil {
		s.logger.Error("ListRules: repository error for listing=%d: %v", listingID, err)
		return nil, fmt.Errorf("%w: ListRules - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainRuleList(rules), nil
}

// DeactivateRule деактивирует правило. Правила не удаляются, чтобы история расчётов оставалась объяснимой.
func (s *Service) DeactivateRule(ctx context.Context, principal domain.Principal, tenantID, listingID, ruleID int64) error {
	if err := s.checkListingAccess(ctx, principal, tenantID, listingID); err != nil {
		return err
	}

	if err := s.ruleRepo.Deactivate(ctx, tenantID, listingID, ruleID); err != nil {
		if errors.Is(err, ruleRepo.ErrRuleNotFound) {
			s.logger.Warn("DeactivateRule: rule id=%d not found in listing=%d", ruleID, listingID)
			return ErrRuleNotFound
		}
		s.logger.Error("DeactivateRule: repository error for rule id=%d: %v", ruleID, err)
		return fmt.Errorf("%w: DeactivateRule - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("DeactivateRule: rule id=%d deactivated by user=%d", ruleID, principal.UserID)
	return nil
}

// checkListingAccess проверяет права администратора и принадлежность листинга тенанту
func (s *Service) checkListingAccess(ctx context.Context, principal domain.Principal, tenantID, listingID int64) error {
	if !principal.CanManageTenant(tenantID) {
		s.logger.Warn("checkListingAccess: user=%d is not an admin of tenant=%d", principal.UserID, tenantID)
		return ErrAccessDenied
	}

	if _, err := s.listingClient.GetListing(ctx, tenantID, listingID); err != nil {
		if errors.Is(err, listingClient.ErrListingNotFound) {
			s.logger.Warn("checkListingAccess: listing id=%d not found in tenant=%d", listingID, tenantID)
			return ErrListingNotFound
		}
		s.logger.Error("checkListingAccess: failed to get listing id=%d: %v", listingID, err)
		return fmt.Errorf("%w: checkListingAccess - failed to get listing: %v", ErrInternal, err)
	}

	return nil
}
