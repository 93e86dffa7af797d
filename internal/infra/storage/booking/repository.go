package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SlotBookingService/pkg/psqlbuilder"
)

const (
	pgUniqueViolation      = "23505"
	pgExclusionViolation   = "23P01"
	pgSerializationFailure = "40001"
)

var bookingColumns = []string{
	"id",
	"reference",
	"tenant_id",
	"listing_id",
	"user_id",
	"booking_date",
	"slot_ids",
	"status",
	"customer_name",
	"customer_mobile",
	"customer_email",
	"customer_category",
	"currency",
	"subtotal",
	"discount",
	"tax_percent",
	"tax",
	"total",
	"price_lines",
	"promotion_id",
	"promotion_code",
	"promotion_type",
	"promotion_value",
	"hold_expires_at",
	"payment_order_token",
	"payment_reference",
	"admin_notes",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями.
// Активные слоты хранятся в booking_slots с частичным уникальным индексом
// (tenant_id, listing_id, booking_date, slot_id) WHERE active.
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает бронирование вместе со слотами и начальной историей статусов.
// Должен вызываться внутри транзакции: при нарушении уникальности слота
// возвращает ErrSlotTaken и транзакция откатывается целиком.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	endsAt, err := booking.EndsAt()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - compute ends_at: %v", ErrBuildQuery, err)
	}

	lines, err := json.Marshal(toPriceLineRows(booking.Pricing.Lines))
	if err != nil {
		return nil, fmt.Errorf("%w: Create - price lines: %v", ErrEncode, err)
	}

	promotion := []interface{}{nil, nil, nil, nil}
	if p := booking.Promotion; p != nil {
		promotion = []interface{}{p.PromotionID, p.Code, string(p.DiscountType), p.Value}
	}

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"reference",
			"tenant_id",
			"listing_id",
			"user_id",
			"booking_date",
			"slot_ids",
			"status",
			"customer_name",
			"customer_mobile",
			"customer_email",
			"customer_category",
			"currency",
			"subtotal",
			"discount",
			"tax_percent",
			"tax",
			"total",
			"price_lines",
			"promotion_id",
			"promotion_code",
			"promotion_type",
			"promotion_value",
			"hold_expires_at",
			"ends_at",
		).
		Values(
			booking.Reference,
			booking.TenantID,
			booking.ListingID,
			booking.UserID,
			booking.BookingDate.Format(domain.DateFormat),
			pq.Array(booking.SlotIDs),
			booking.Status,
			booking.Customer.Name,
			booking.Customer.Mobile,
			booking.Customer.Email,
			booking.Customer.Category,
			booking.Pricing.Currency,
			booking.Pricing.Subtotal,
			booking.Pricing.Discount,
			booking.Pricing.TaxPercent,
			booking.Pricing.Tax,
			booking.Pricing.Total,
			string(lines),
			promotion[0],
			promotion[1],
			promotion[2],
			promotion[3],
			booking.HoldExpiresAt,
			endsAt,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&booking.ID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}
	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	slotsInsert := psqlbuilder.Insert("booking_slots").
		Columns("booking_id", "tenant_id", "listing_id", "booking_date", "slot_id", "start_minute", "end_minute", "active")
	for _, slotID := range booking.SlotIDs {
		slot, err := domain.ParseSlotID(slotID)
		if err != nil {
			return nil, fmt.Errorf("%w: Create - %v", ErrBuildQuery, err)
		}
		slotsInsert = slotsInsert.Values(
			booking.ID,
			booking.TenantID,
			booking.ListingID,
			booking.BookingDate.Format(domain.DateFormat),
			slotID,
			slot.Start.MustMinutes(),
			slot.End.MustMinutes(),
			true,
		)
	}

	query, args, err = slotsInsert.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build slots insert: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return nil, mapPQError(err, "Create - insert slots")
	}

	for _, change := range booking.History {
		if err := r.insertHistory(ctx, executor, booking.ID, change); err != nil {
			return nil, err
		}
	}

	return booking, nil
}

// GetByID получает бронирование с историей статусов.
// Внутри транзакции строка блокируется (FOR UPDATE).
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, "GetByID")
}

// GetByReference получает бронирование по публичному идентификатору
func (r *Repository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"reference": reference}, "GetByReference")
}

func (r *Repository) getOne(ctx context.Context, where squirrel.Sqlizer, op string) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(where)

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan booking: %v", ErrScanRow, op, err)
	}

	history, err := r.getHistory(ctx, executor, booking.ID)
	if err != nil {
		return nil, err
	}
	booking.History = history

	return booking, nil
}

// FindActiveOverlapping возвращает бронирования, слоты которых пересекаются по времени
// хотя бы с одним из slots на дату. Внутри транзакции найденные бронирования блокируются.
func (r *Repository) FindActiveOverlapping(ctx context.Context, tenantID, listingID int64, date time.Time, slots []domain.Slot) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	columns := make([]string, len(bookingColumns))
	for i, c := range bookingColumns {
		columns[i] = "b." + c
	}

	selectBuilder := psqlbuilder.Select(columns...).
		From("bookings b").
		Join("booking_slots s ON s.booking_id = b.id").
		Where(squirrel.Eq{
			"s.tenant_id":    tenantID,
			"s.listing_id":   listingID,
			"s.booking_date": date.Format(domain.DateFormat),
			"s.active":       true,
		}).
		Where(overlapCondition(slots)).
		OrderBy("b.id ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE OF b")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindActiveOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindActiveOverlapping - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, err
	}

	// Бронирование с несколькими совпавшими слотами приходит несколькими строками
	seen := make(map[int64]struct{}, len(bookings))
	unique := make([]*domain.Booking, 0, len(bookings))
	for _, b := range bookings {
		if _, ok := seen[b.ID]; ok {
			continue
		}
		seen[b.ID] = struct{}{}
		unique = append(unique, b)
	}

	return unique, nil
}

// overlapCondition слот занят, если его интервал [start, end) пересекается с запрошенным
func overlapCondition(slots []domain.Slot) squirrel.Or {
	cond := make(squirrel.Or, 0, len(slots))
	for _, slot := range slots {
		cond = append(cond, squirrel.And{
			squirrel.Lt{"s.start_minute": slot.End.MustMinutes()},
			squirrel.Gt{"s.end_minute": slot.Start.MustMinutes()},
		})
	}
	return cond
}

// ListActiveOnDate получает бронирования листинга на дату, которые занимают слоты
func (r *Repository) ListActiveOnDate(ctx context.Context, tenantID, listingID int64, date time.Time) ([]*domain.Booking, error) {
	return r.List(ctx, domain.BookingFilter{
		TenantID:  &tenantID,
		ListingID: &listingID,
		Date:      &date,
		Statuses:  domain.ActiveStatuses,
	})
}

// List получает бронирования по фильтру, сначала новые
func (r *Repository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).From("bookings")

	if filter.TenantID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"tenant_id": *filter.TenantID})
	}
	if filter.ListingID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"listing_id": *filter.ListingID})
	}
	if filter.UserID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"user_id": *filter.UserID})
	}
	if filter.Date != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"booking_date": filter.Date.Format(domain.DateFormat)})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statuses})
	}

	selectBuilder = selectBuilder.OrderBy("booking_date DESC", "id DESC")
	if filter.Limit > 0 {
		selectBuilder = selectBuilder.Limit(filter.Limit)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// TransitionStatus меняет статус, только если текущий входит в from (compare-and-swap).
// Возвращает false, если бронирование уже в другом статусе.
// При переходе в cancelled слоты освобождаются, запись истории добавляется всегда.
func (r *Repository) TransitionStatus(ctx context.Context, id int64, from []domain.BookingStatus, change domain.StatusChange, patch StatusPatch) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	fromStrings := make([]string, len(from))
	for i, s := range from {
		fromStrings[i] = string(s)
	}

	updateBuilder := psqlbuilder.Update("bookings").
		Set("status", change.Status).
		Set("updated_at", change.At).
		Where(squirrel.Eq{"id": id, "status": fromStrings})

	if patch.PaymentReference != nil {
		updateBuilder = updateBuilder.Set("payment_reference", *patch.PaymentReference)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: TransitionStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, mapPQError(err, "TransitionStatus - execute update")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: TransitionStatus - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	if change.Status == domain.StatusCancelled {
		query, args, err = psqlbuilder.Update("booking_slots").
			Set("active", false).
			Where(squirrel.Eq{"booking_id": id, "active": true}).
			ToSql()
		if err != nil {
			return false, fmt.Errorf("%w: TransitionStatus - build release query: %v", ErrBuildQuery, err)
		}
		if _, err := executor.ExecContext(ctx, query, args...); err != nil {
			return false, fmt.Errorf("%w: TransitionStatus - release slots: %v", ErrExecQuery, err)
		}
	}

	if err := r.insertHistory(ctx, executor, id, change); err != nil {
		return false, err
	}

	return true, nil
}

// SetPaymentOrderToken сохраняет токен заказа платёжного сервиса
func (r *Repository) SetPaymentOrderToken(ctx context.Context, id int64, token string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("bookings").
		Set("payment_order_token", token).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	return r.execOne(ctx, executor, updateBuilder, "SetPaymentOrderToken")
}

// SetAdminNotes единственное поле, изменяемое у завершённых и отменённых бронирований
func (r *Repository) SetAdminNotes(ctx context.Context, id int64, notes string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("bookings").
		Set("admin_notes", notes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	return r.execOne(ctx, executor, updateBuilder, "SetAdminNotes")
}

// ListExpiredHolds ID ожидающих бронирований с истёкшим холдом
func (r *Repository) ListExpiredHolds(ctx context.Context, now time.Time, limit uint64) ([]int64, error) {
	return r.listIDs(ctx, squirrel.And{
		squirrel.Eq{"status": string(domain.StatusPending)},
		squirrel.LtOrEq{"hold_expires_at": now},
	}, "hold_expires_at ASC", limit, "ListExpiredHolds")
}

// ListFinished ID подтверждённых бронирований, последний слот которых закончился
func (r *Repository) ListFinished(ctx context.Context, now time.Time, limit uint64) ([]int64, error) {
	return r.listIDs(ctx, squirrel.And{
		squirrel.Eq{"status": string(domain.StatusConfirmed)},
		squirrel.LtOrEq{"ends_at": now},
	}, "ends_at ASC", limit, "ListFinished")
}

func (r *Repository) listIDs(ctx context.Context, where squirrel.Sqlizer, orderBy string, limit uint64, op string) ([]int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("id").
		From("bookings").
		Where(where).
		OrderBy(orderBy)
	if limit > 0 {
		selectBuilder = selectBuilder.Limit(limit)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %s - scan id: %v", ErrScanRow, op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, op, err)
	}

	return ids, nil
}

func (r *Repository) execOne(ctx context.Context, executor DBExecutor, builder squirrel.UpdateBuilder, op string) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}
	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

func (r *Repository) insertHistory(ctx context.Context, executor DBExecutor, bookingID int64, change domain.StatusChange) error {
	var metadata sql.NullString
	if len(change.Metadata) > 0 {
		raw, err := json.Marshal(change.Metadata)
		if err != nil {
			return fmt.Errorf("%w: insertHistory - metadata: %v", ErrEncode, err)
		}
		metadata = sql.NullString{String: string(raw), Valid: true}
	}

	query, args, err := psqlbuilder.Insert("booking_status_history").
		Columns("booking_id", "status", "actor", "actor_id", "reason", "metadata", "created_at").
		Values(bookingID, change.Status, change.Actor, change.ActorID, change.Reason, metadata, change.At).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: insertHistory - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: insertHistory - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

func (r *Repository) getHistory(ctx context.Context, executor DBExecutor, bookingID int64) ([]domain.StatusChange, error) {
	query, args, err := psqlbuilder.Select("status", "actor", "actor_id", "reason", "metadata", "created_at").
		From("booking_status_history").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getHistory - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getHistory - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	history := make([]domain.StatusChange, 0)
	for rows.Next() {
		var (
			change   domain.StatusChange
			actorID  sql.NullInt64
			reason   sql.NullString
			metadata []byte
		)
		if err := rows.Scan(&change.Status, &change.Actor, &actorID, &reason, &metadata, &change.At); err != nil {
			return nil, fmt.Errorf("%w: getHistory - scan row: %v", ErrScanRow, err)
		}
		if actorID.Valid {
			id := actorID.Int64
			change.ActorID = &id
		}
		change.Reason = reason.String
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &change.Metadata); err != nil {
				return nil, fmt.Errorf("%w: getHistory - metadata: %v", ErrScanRow, err)
			}
		}
		history = append(history, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getHistory - rows error: %v", ErrScanRow, err)
	}

	return history, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanBooking сканирует строку с колонками bookingColumns
func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b              domain.Booking
		lines          []byte
		promotionID    sql.NullInt64
		promotionCode  sql.NullString
		promotionType  sql.NullString
		promotionValue decimal.NullDecimal
		holdExpiresAt  sql.NullTime
		orderToken     sql.NullString
		paymentRef     sql.NullString
		adminNotes     sql.NullString
		createdAt      sql.NullTime
		updatedAt      sql.NullTime
	)

	err := row.Scan(
		&b.ID,
		&b.Reference,
		&b.TenantID,
		&b.ListingID,
		&b.UserID,
		&b.BookingDate,
		pq.Array(&b.SlotIDs),
		&b.Status,
		&b.Customer.Name,
		&b.Customer.Mobile,
		&b.Customer.Email,
		&b.Customer.Category,
		&b.Pricing.Currency,
		&b.Pricing.Subtotal,
		&b.Pricing.Discount,
		&b.Pricing.TaxPercent,
		&b.Pricing.Tax,
		&b.Pricing.Total,
		&lines,
		&promotionID,
		&promotionCode,
		&promotionType,
		&promotionValue,
		&holdExpiresAt,
		&orderToken,
		&paymentRef,
		&adminNotes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.BookingDate = domain.DateOf(b.BookingDate)

	if len(lines) > 0 {
		var rows []priceLineRow
		if err := json.Unmarshal(lines, &rows); err != nil {
			return nil, fmt.Errorf("price lines: %w", err)
		}
		b.Pricing.Lines = fromPriceLineRows(rows)
	}

	if promotionID.Valid {
		b.Promotion = &domain.PromotionSnapshot{
			PromotionID:  promotionID.Int64,
			Code:         promotionCode.String,
			DiscountType: domain.DiscountType(promotionType.String),
			Value:        promotionValue.Decimal,
		}
	}

	if holdExpiresAt.Valid {
		t := holdExpiresAt.Time
		b.HoldExpiresAt = &t
	}
	b.PaymentOrderToken = nullString(orderToken)
	b.PaymentReference = nullString(paymentRef)
	b.AdminNotes = nullString(adminNotes)
	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return &b, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// mapPQError переводит коды ошибок PostgreSQL в ошибки репозитория
func mapPQError(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation, pgExclusionViolation:
			return fmt.Errorf("%w: %s: %s", ErrSlotTaken, op, pqErr.Constraint)
		case pgSerializationFailure:
			return fmt.Errorf("%w: %s", ErrSerialization, op)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrExecQuery, op, err)
}
