package promotion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	promotionRepo "github.com/m04kA/SMC-SlotBookingService/internal/infra/storage/promotion"
)

const (
	usageRecorded  = "recorded"
	usageDuplicate = "duplicate"
	usageRejected  = "rejected"

	// serialization_failure
	pqSerializationFailure = "40001"
	maxSerializableRetries = 3
)

// Service подбор скидки к заказу и учёт использований акций.
// Подбор только читает данные; использование записывается при подтверждении бронирования.
type Service struct {
	repo      PromotionRepository
	txManager TransactionManager
	metrics   Metrics
	logger    Logger
}

// NewService создает новый экземпляр сервиса промо-акций
func NewService(repo PromotionRepository, txManager TransactionManager, metrics Metrics, logger Logger) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		metrics:   metrics,
		logger:    logger,
	}
}

// SelectBestPromotion подбирает одну акцию к заказу.
// С кодом: проверяет код и возвращает *IneligibleError с причиной отказа.
// Без кода: из автоматических акций выбирает последнюю по началу действия,
// порог по числу слотов которой заказ проходит. Nil без ошибки означает, что скидки нет.
func (s *Service) SelectBestPromotion(ctx context.Context, req SelectRequest) (*Selection, error) {
	if req.Code != nil && strings.TrimSpace(*req.Code) != "" {
		return s.selectByCode(ctx, *req.Code, req.Order, req.Now)
	}
	return s.selectAutomatic(ctx, req.Order, req.Now)
}

func (s *Service) selectByCode(ctx context.Context, code string, order Order, now time.Time) (*Selection, error) {
	code = domain.NormalizeCode(code)

	p, err := s.repo.GetByCode(ctx, code, order.TenantID)
	if err != nil {
		if errors.Is(err, promotionRepo.ErrPromotionNotFound) {
			return nil, s.reject(code, ReasonNotFound)
		}
		s.logger.Error("SelectBestPromotion: failed to get code %s: %v", code, err)
		return nil, fmt.Errorf("%w: SelectBestPromotion - get by code: %v", ErrInternal, err)
	}

	if reason := checkStatic(p, order, now); reason != "" {
		return nil, s.reject(code, reason)
	}

	reason, err := s.checkUsage(ctx, p, order.UserID, now)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return nil, s.reject(code, reason)
	}

	selection := &Selection{Promotion: p, Discount: ComputeDiscount(p, order.Subtotal)}
	s.logger.Info("SelectBestPromotion: code %s accepted for user=%d, discount=%d", code, order.UserID, selection.Discount)
	return selection, nil
}

func (s *Service) selectAutomatic(ctx context.Context, order Order, now time.Time) (*Selection, error) {
	offers, err := s.repo.ListAutomatic(ctx, order.TenantID, now)
	if err != nil {
		s.logger.Error("SelectBestPromotion: failed to list automatic offers of tenant=%d: %v", order.TenantID, err)
		return nil, fmt.Errorf("%w: SelectBestPromotion - list automatic: %v", ErrInternal, err)
	}

	// offers упорядочены по valid_from DESC, id DESC: первая подходящая и есть самая поздняя
	for _, p := range offers {
		if reason := checkStatic(p, order, now); reason != "" {
			continue
		}
		reason, err := s.checkUsage(ctx, p, order.UserID, now)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			continue
		}

		selection := &Selection{Promotion: p, Discount: ComputeDiscount(p, order.Subtotal)}
		s.logger.Info("SelectBestPromotion: automatic offer id=%d applied for user=%d, discount=%d",
			p.ID, order.UserID, selection.Discount)
		return selection, nil
	}

	return nil, nil
}

// checkStatic проверки, не требующие обращения к журналу использований
func checkStatic(p *domain.Promotion, order Order, now time.Time) string {
	switch {
	case !p.Active:
		return ReasonInactive
	case now.Before(p.ValidFrom):
		return ReasonNotStarted
	case !now.Before(p.ValidUntil):
		return ReasonExpired
	case p.Scope == domain.ScopeTenant && (p.TenantID == nil || *p.TenantID != order.TenantID):
		return ReasonScopeMismatch
	case len(p.ListingIDs) > 0 && !containsInt64(p.ListingIDs, order.ListingID):
		return ReasonListing
	case len(p.ListingTypes) > 0 && !containsFold(p.ListingTypes, order.ListingType):
		return ReasonListingType
	case len(p.UserCategories) > 0 && !containsFold(p.UserCategories, order.UserCategory):
		return ReasonUserCategory
	case p.MinSlotCount > 0 && order.SlotCount < p.MinSlotCount:
		return ReasonMinSlotCount
	case p.MinOrderValue != nil && order.Subtotal < *p.MinOrderValue:
		return ReasonMinOrderValue
	case p.MaxOrderValue != nil && order.Subtotal > *p.MaxOrderValue:
		return ReasonMaxOrderValue
	}
	return ""
}

// checkUsage проверяет лимиты использований. Действующие холды со скидкой этой акции
// занимают место в общем лимите до подтверждения или истечения.
func (s *Service) checkUsage(ctx context.Context, p *domain.Promotion, userID int64, now time.Time) (string, error) {
	if p.TotalUsageLimit != nil {
		if p.UsedCount >= *p.TotalUsageLimit {
			return ReasonUsageLimit, nil
		}
		held, err := s.repo.CountActiveHolds(ctx, p.ID, now)
		if err != nil {
			s.logger.Error("SelectBestPromotion: failed to count holds of promotion=%d: %v", p.ID, err)
			return "", fmt.Errorf("%w: SelectBestPromotion - count holds: %v", ErrInternal, err)
		}
		if p.UsedCount+held >= *p.TotalUsageLimit {
			return ReasonUsageLimit, nil
		}
	}
	if p.PerUserLimit == nil {
		return "", nil
	}

	used, err := s.repo.CountUserUsages(ctx, p.ID, userID)
	if err != nil {
		s.logger.Error("SelectBestPromotion: failed to count usages of promotion=%d by user=%d: %v", p.ID, userID, err)
		return "", fmt.Errorf("%w: SelectBestPromotion - count usages: %v", ErrInternal, err)
	}
	if used >= *p.PerUserLimit {
		return ReasonPerUserUsageLimit, nil
	}
	return "", nil
}

func (s *Service) reject(code, reason string) error {
	s.metrics.IncPromotionRejected(reason)
	s.logger.Info("SelectBestPromotion: code %s rejected: %s", code, reason)
	return &IneligibleError{Code: code, Reason: reason}
}

// RecordUsage добавляет запись в журнал использований и увеличивает счётчик акции.
// Выполняется в serializable транзакции; при превышении любого лимита
// ничего не записывается и возвращается ErrUsageLimitReached.
// Повторная запись для того же бронирования ничего не меняет.
func (s *Service) RecordUsage(ctx context.Context, req RecordUsageRequest) error {
	if req.PromotionID <= 0 || req.BookingID <= 0 {
		return fmt.Errorf("%w: promotion id and booking id are required", ErrInvalidInput)
	}

	s.logger.Info("RecordUsage: promotion=%d user=%d booking=%d discount=%d",
		req.PromotionID, req.UserID, req.BookingID, req.Discount)

	var result string
	err := s.withSerializableRetry(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.recordUsage(ctx, req)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrUsageLimitReached) {
			s.metrics.IncPromotionUsage(usageRejected)
			s.logger.Warn("RecordUsage: promotion=%d booking=%d: %v", req.PromotionID, req.BookingID, err)
			return err
		}
		if errors.Is(err, ErrPromotionNotFound) {
			return err
		}
		s.logger.Error("RecordUsage: failed for promotion=%d booking=%d: %v", req.PromotionID, req.BookingID, err)
		return fmt.Errorf("%w: RecordUsage - %v", ErrInternal, err)
	}

	s.metrics.IncPromotionUsage(result)
	s.logger.Info("RecordUsage: promotion=%d booking=%d %s", req.PromotionID, req.BookingID, result)
	return nil
}

func (s *Service) recordUsage(ctx context.Context, req RecordUsageRequest) (string, error) {
	// блокирует строку акции до конца транзакции
	p, err := s.repo.GetByID(ctx, req.PromotionID)
	if err != nil {
		if errors.Is(err, promotionRepo.ErrPromotionNotFound) {
			return "", ErrPromotionNotFound
		}
		return "", err
	}

	inserted, err := s.repo.InsertUsage(ctx, &domain.PromotionUsage{
		PromotionID: req.PromotionID,
		UserID:      req.UserID,
		BookingID:   req.BookingID,
		Discount:    req.Discount,
		UsedAt:      req.UsedAt,
	})
	if err != nil {
		return "", err
	}
	if !inserted {
		return usageDuplicate, nil
	}

	if p.PerUserLimit != nil {
		used, err := s.repo.CountUserUsages(ctx, p.ID, req.UserID)
		if err != nil {
			return "", err
		}
		if used > *p.PerUserLimit {
			return "", fmt.Errorf("%w: %s", ErrUsageLimitReached, ReasonPerUserUsageLimit)
		}
	}

	ok, err := s.repo.IncrementUsedCount(ctx, p.ID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUsageLimitReached, ReasonUsageLimit)
	}

	return usageRecorded, nil
}

// withSerializableRetry повторяет транзакцию при конфликте сериализации
func (s *Service) withSerializableRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= maxSerializableRetries; attempt++ {
		err = s.txManager.DoSerializable(ctx, fn)
		if !isSerializationFailure(err) {
			return err
		}
		s.logger.Warn("RecordUsage: serialization failure, attempt %d/%d", attempt, maxSerializableRetries)
	}
	return err
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqSerializationFailure
}

func containsInt64(values []int64, v int64) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func containsFold(values []string, v string) bool {
	for _, x := range values {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}
