package pricing

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SlotBookingService/pkg/psqlbuilder"
)

var ruleColumns = []string{
	"id",
	"tenant_id",
	"listing_id",
	"name",
	"rule_type",
	"conditions",
	"modifier_kind",
	"operation",
	"value",
	"priority",
	"active",
	"created_at",
	"updated_at",
}

// Repository репозиторий правил динамического ценообразования
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория правил
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет правило. Правило должно быть провалидировано заранее.
func (r *Repository) Create(ctx context.Context, rule *domain.PricingRule) (*domain.PricingRule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	conditions, err := json.Marshal(toConditionsRow(rule.Conditions))
	if err != nil {
		return nil, fmt.Errorf("%w: Create: %v", ErrEncode, err)
	}

	query, args, err := psqlbuilder.Insert("pricing_rules").
		Columns(
			"tenant_id",
			"listing_id",
			"name",
			"rule_type",
			"conditions",
			"modifier_kind",
			"operation",
			"value",
			"priority",
			"active",
		).
		Values(
			rule.TenantID,
			rule.ListingID,
			rule.Name,
			string(rule.Type),
			string(conditions),
			string(rule.Modifier.Kind),
			string(rule.Modifier.Operation),
			rule.Modifier.Value,
			rule.Priority,
			rule.Active,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&rule.ID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}
	rule.CreatedAt = createdAt.Time
	rule.UpdatedAt = updatedAt.Time

	return rule, nil
}

// ListByListing правила листинга в порядке применения:
// priority DESC, затем более ранние (created_at, id)
func (r *Repository) ListByListing(ctx context.Context, tenantID, listingID int64, onlyActive bool) ([]domain.PricingRule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(ruleColumns...).
		From("pricing_rules").
		Where(squirrel.Eq{"tenant_id": tenantID, "listing_id": listingID}).
		OrderBy("priority DESC", "created_at ASC", "id ASC")

	if onlyActive {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"active": true})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByListing - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByListing - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	rules := make([]domain.PricingRule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListByListing - scan row: %v", ErrScanRow, err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByListing - rows error: %v", ErrScanRow, err)
	}

	return rules, nil
}

// Deactivate выключает правило, строка остаётся в таблице
func (r *Repository) Deactivate(ctx context.Context, tenantID, listingID, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("pricing_rules").
		Set("active", false).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID, "listing_id": listingID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Deactivate - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Deactivate - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Deactivate - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrRuleNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner) (*domain.PricingRule, error) {
	var (
		rule       domain.PricingRule
		conditions []byte
		createdAt  sql.NullTime
		updatedAt  sql.NullTime
	)

	err := row.Scan(
		&rule.ID,
		&rule.TenantID,
		&rule.ListingID,
		&rule.Name,
		&rule.Type,
		&conditions,
		&rule.Modifier.Kind,
		&rule.Modifier.Operation,
		&rule.Modifier.Value,
		&rule.Priority,
		&rule.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	var condRow conditionsRow
	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &condRow); err != nil {
			return nil, fmt.Errorf("conditions: %w", err)
		}
	}
	rule.Conditions, err = condRow.toDomain()
	if err != nil {
		return nil, err
	}

	rule.CreatedAt = createdAt.Time
	rule.UpdatedAt = updatedAt.Time

	return &rule, nil
}
