package promotion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
	"github.com/m04kA/SMC-SlotBookingService/pkg/psqlbuilder"
)

var promotionColumns = []string{
	"id",
	"code",
	"name",
	"scope",
	"tenant_id",
	"automatic",
	"min_slot_count",
	"listing_ids",
	"listing_types",
	"user_categories",
	"min_order_value",
	"max_order_value",
	"discount_type",
	"discount_percent",
	"discount_flat",
	"max_discount",
	"valid_from",
	"valid_until",
	"total_usage_limit",
	"per_user_limit",
	"used_count",
	"active",
	"created_at",
	"updated_at",
}

// Repository репозиторий промо-акций и журнала их использования
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория промо-акций
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByCode ищет акцию по коду. Порядок: акция тенанта, затем глобальная, затем акция
// другого тенанта. Несовпадение тенанта проверяет вызывающая сторона, чтобы вернуть понятную причину.
func (r *Repository) GetByCode(ctx context.Context, code string, tenantID int64) (*domain.Promotion, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(promotionColumns...).
		From("promotions").
		Where(squirrel.Eq{"code": domain.NormalizeCode(code)}).
		OrderByClause("CASE WHEN tenant_id = ? THEN 0 WHEN tenant_id IS NULL THEN 1 ELSE 2 END", tenantID).
		OrderBy("id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByCode - build select query: %v", ErrBuildQuery, err)
	}

	p, err := scanPromotion(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPromotionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByCode - scan promotion: %v", ErrScanRow, err)
	}

	return p, nil
}

// GetByID получает акцию. Внутри транзакции строка блокируется (FOR UPDATE),
// что сериализует учёт использований одной акции.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Promotion, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(promotionColumns...).
		From("promotions").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	p, err := scanPromotion(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPromotionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan promotion: %w", ErrScanRow, err)
	}

	return p, nil
}

// ListAutomatic активные автоматические акции тенанта и глобальные,
// действующие в момент now, от последней по началу действия
func (r *Repository) ListAutomatic(ctx context.Context, tenantID int64, now time.Time) ([]*domain.Promotion, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(promotionColumns...).
		From("promotions").
		Where(squirrel.Eq{"automatic": true, "active": true}).
		Where(squirrel.LtOrEq{"valid_from": now}).
		Where(squirrel.Gt{"valid_until": now}).
		Where(squirrel.Or{
			squirrel.Eq{"scope": string(domain.ScopeGlobal)},
			squirrel.Eq{"tenant_id": tenantID},
		}).
		OrderBy("valid_from DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListAutomatic - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListAutomatic - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	promotions := make([]*domain.Promotion, 0)
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListAutomatic - scan row: %v", ErrScanRow, err)
		}
		promotions = append(promotions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListAutomatic - rows error: %v", ErrScanRow, err)
	}

	return promotions, nil
}

// CountUserUsages количество использований акции пользователем
func (r *Repository) CountUserUsages(ctx context.Context, promotionID, userID int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("promotion_usages").
		Where(squirrel.Eq{"promotion_id": promotionID, "user_id": userID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountUserUsages - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountUserUsages - scan count: %w", ErrScanRow, err)
	}

	return count, nil
}

// CountActiveHolds число ожидающих оплаты бронирований с акцией, холд которых ещё действует
func (r *Repository) CountActiveHolds(ctx context.Context, promotionID int64, now time.Time) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("bookings").
		Where(squirrel.Eq{"promotion_id": promotionID, "status": string(domain.StatusPending)}).
		Where(squirrel.Gt{"hold_expires_at": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountActiveHolds - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountActiveHolds - scan count: %w", ErrScanRow, err)
	}

	return count, nil
}

// InsertUsage добавляет запись в журнал использования.
// Повторная запись для того же бронирования игнорируется, возвращается false.
func (r *Repository) InsertUsage(ctx context.Context, usage *domain.PromotionUsage) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("promotion_usages").
		Columns("promotion_id", "user_id", "booking_id", "discount", "used_at").
		Values(usage.PromotionID, usage.UserID, usage.BookingID, usage.Discount, usage.UsedAt).
		Suffix("ON CONFLICT (promotion_id, booking_id) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: InsertUsage - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&usage.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: InsertUsage - execute insert: %w", ErrExecQuery, err)
	}

	return true, nil
}

// IncrementUsedCount увеличивает счётчик, только если общий лимит не исчерпан
func (r *Repository) IncrementUsedCount(ctx context.Context, promotionID int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("promotions").
		Set("used_count", squirrel.Expr("used_count + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": promotionID}).
		Where(squirrel.Or{
			squirrel.Eq{"total_usage_limit": nil},
			squirrel.Expr("used_count < total_usage_limit"),
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: IncrementUsedCount - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: IncrementUsedCount - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: IncrementUsedCount - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected == 1, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPromotion(row rowScanner) (*domain.Promotion, error) {
	var (
		p               domain.Promotion
		tenantID        sql.NullInt64
		code            sql.NullString
		name            sql.NullString
		listingIDs      pq.Int64Array
		listingTypes    pq.StringArray
		userCategories  pq.StringArray
		minOrderValue   sql.NullInt64
		maxOrderValue   sql.NullInt64
		discountPercent decimal.NullDecimal
		discountFlat    sql.NullInt64
		maxDiscount     sql.NullInt64
		totalLimit      sql.NullInt64
		perUserLimit    sql.NullInt64
		createdAt       sql.NullTime
		updatedAt       sql.NullTime
	)

	err := row.Scan(
		&p.ID,
		&code,
		&name,
		&p.Scope,
		&tenantID,
		&p.Automatic,
		&p.MinSlotCount,
		&listingIDs,
		&listingTypes,
		&userCategories,
		&minOrderValue,
		&maxOrderValue,
		&p.DiscountType,
		&discountPercent,
		&discountFlat,
		&maxDiscount,
		&p.ValidFrom,
		&p.ValidUntil,
		&totalLimit,
		&perUserLimit,
		&p.UsedCount,
		&p.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Code = code.String
	p.Name = name.String
	if tenantID.Valid {
		id := tenantID.Int64
		p.TenantID = &id
	}
	p.ListingIDs = []int64(listingIDs)
	p.ListingTypes = []string(listingTypes)
	p.UserCategories = []string(userCategories)
	p.MinOrderValue = nullAmount(minOrderValue)
	p.MaxOrderValue = nullAmount(maxOrderValue)
	p.DiscountPercent = discountPercent.Decimal
	p.DiscountFlat = money.Amount(discountFlat.Int64)
	p.MaxDiscount = nullAmount(maxDiscount)
	p.TotalUsageLimit = nullInt(totalLimit)
	p.PerUserLimit = nullInt(perUserLimit)
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return &p, nil
}

func nullAmount(v sql.NullInt64) *money.Amount {
	if !v.Valid {
		return nil
	}
	a := money.Amount(v.Int64)
	return &a
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
