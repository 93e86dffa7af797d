package promotion

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	promotionRepo "github.com/m04kA/SMC-SlotBookingService/internal/infra/storage/promotion"
)

type memRepo struct {
	mu          sync.Mutex
	promotions  map[int64]*domain.Promotion
	usages      []domain.PromotionUsage
	activeHolds map[int64]int
}

func newMemRepo(promotions ...*domain.Promotion) *memRepo {
	r := &memRepo{promotions: make(map[int64]*domain.Promotion), activeHolds: make(map[int64]int)}
	for _, p := range promotions {
		r.promotions[p.ID] = p
	}
	return r
}

// GetByCode в порядке хранилища: акция тенанта, затем глобальная, затем чужая
func (r *memRepo) GetByCode(_ context.Context, code string, tenantID int64) (*domain.Promotion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rank := func(p *domain.Promotion) int {
		switch {
		case p.TenantID != nil && *p.TenantID == tenantID:
			return 0
		case p.TenantID == nil:
			return 1
		default:
			return 2
		}
	}

	var found *domain.Promotion
	for _, p := range r.promotions {
		if p.Code != domain.NormalizeCode(code) {
			continue
		}
		if found == nil || rank(p) < rank(found) || (rank(p) == rank(found) && p.ID > found.ID) {
			found = p
		}
	}
	if found == nil {
		return nil, promotionRepo.ErrPromotionNotFound
	}
	cp := *found
	return &cp, nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*domain.Promotion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.promotions[id]
	if !ok {
		return nil, promotionRepo.ErrPromotionNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) ListAutomatic(_ context.Context, tenantID int64, now time.Time) ([]*domain.Promotion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*domain.Promotion
	for _, p := range r.promotions {
		if !p.Automatic || !p.IsLive(now) {
			continue
		}
		if p.Scope == domain.ScopeTenant && (p.TenantID == nil || *p.TenantID != tenantID) {
			continue
		}
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].ValidFrom.Equal(result[j].ValidFrom) {
			return result[i].ValidFrom.After(result[j].ValidFrom)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *memRepo) CountUserUsages(_ context.Context, promotionID, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for _, u := range r.usages {
		if u.PromotionID == promotionID && u.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) CountActiveHolds(_ context.Context, promotionID int64, _ time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeHolds[promotionID], nil
}

func (r *memRepo) InsertUsage(_ context.Context, usage *domain.PromotionUsage) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.usages {
		if u.PromotionID == usage.PromotionID && u.BookingID == usage.BookingID {
			return false, nil
		}
	}
	usage.ID = int64(len(r.usages) + 1)
	r.usages = append(r.usages, *usage)
	return true, nil
}

func (r *memRepo) IncrementUsedCount(_ context.Context, promotionID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.promotions[promotionID]
	if !ok {
		return false, nil
	}
	if p.TotalUsageLimit != nil && p.UsedCount >= *p.TotalUsageLimit {
		return false, nil
	}
	p.UsedCount++
	return true, nil
}

func (r *memRepo) usedCount(id int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.promotions[id].UsedCount
}

// memTx сериализует транзакции и откатывает изменения репозитория при ошибке
type memTx struct {
	mu   sync.Mutex
	repo *memRepo
}

func (t *memTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.repo.mu.Lock()
	usages := append([]domain.PromotionUsage(nil), t.repo.usages...)
	counts := make(map[int64]int, len(t.repo.promotions))
	for id, p := range t.repo.promotions {
		counts[id] = p.UsedCount
	}
	t.repo.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.repo.mu.Lock()
		t.repo.usages = usages
		for id, p := range t.repo.promotions {
			p.UsedCount = counts[id]
		}
		t.repo.mu.Unlock()
		return err
	}
	return nil
}

type nopMetrics struct{}

func (nopMetrics) IncPromotionRejected(string) {}
func (nopMetrics) IncPromotionUsage(string)    {}
