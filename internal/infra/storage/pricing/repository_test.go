package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/pkg/dbmetrics"
)

func newRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(dbmetrics.Wrap(db, nil)), mock
}

func TestListByListing_DecodesConditions(t *testing.T) {
	repo, mock := newRepo(t)
	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(ruleColumns).
		AddRow(1, 7, 10, "Weekend", "weekend", []byte(`{"daysOfWeek":[0,6],"timeRange":{"start":"18:00","end":"22:00"}}`),
			"percentage", "add", "20", 10, true, created, created).
		AddRow(2, 7, 10, "Early bird", "early_bird", []byte(`{"daysBefore":{"min":14}}`),
			"percentage", "subtract", "5", 1, true, created, created)

	mock.ExpectQuery("SELECT (.+) FROM pricing_rules WHERE (.+) ORDER BY priority DESC, created_at ASC, id ASC").
		WillReturnRows(rows)

	rules, err := repo.ListByListing(context.Background(), 7, 10, true)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, domain.RuleWeekend, rules[0].Type)
	assert.Equal(t, []time.Weekday{time.Sunday, time.Saturday}, rules[0].Conditions.DaysOfWeek)
	require.NotNil(t, rules[0].Conditions.TimeRange)
	assert.Equal(t, "18:00", rules[0].Conditions.TimeRange.Start.String())
	assert.True(t, decimal.NewFromInt(20).Equal(rules[0].Modifier.Value))

	require.NotNil(t, rules[1].Conditions.DaysBefore)
	assert.Equal(t, 14, *rules[1].Conditions.DaysBefore.Min)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivate_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec("UPDATE pricing_rules SET active").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Deactivate(context.Background(), 7, 10, 99)
	assert.ErrorIs(t, err, ErrRuleNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConditionsRoundTrip(t *testing.T) {
	cond := domain.RuleConditions{
		DateRange: &domain.DateRange{
			From: time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		},
		SpecificDates: []time.Time{time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)},
	}

	got, err := toConditionsRow(cond).toDomain()
	require.NoError(t, err)
	assert.Equal(t, cond, got)
}
