package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassificationConfig(t *testing.T) {
	ms, mock := newTestDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, status_group FROM classification_status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "status_group"}).
			AddRow("completed", "converted").
			AddRow("delivered", "delivered").
			AddRow("returned", "returned_full").
			AddRow("partial-return", "returned_partial"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, value FROM report_setting")).
		WithArgs(settingReturnCharge).
		WillReturnRows(sqlmock.NewRows([]string{"name", "value"}).AddRow("return_charge", "60.00"))

	cfg, err := ms.Classification().ClassificationConfig(context.Background())
	require.NoError(t, err)
	assert.True(t, cfg.Converted.Has("completed"))
	assert.True(t, cfg.Delivered.Has("delivered"))
	assert.True(t, cfg.ReturnedFull.Has("returned"))
	assert.True(t, cfg.ReturnedPartial.Has("partial-return"))
	assert.True(t, cfg.ReturnCharge.Equal(decimal.NewFromInt(60)))
}

func TestClassificationConfigWithoutReturnCharge(t *testing.T) {
	ms, mock := newTestDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM classification_status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "status_group"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM report_setting")).
		WillReturnRows(sqlmock.NewRows([]string{"name", "value"}))

	cfg, err := ms.Classification().ClassificationConfig(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cfg.Converted)
	assert.True(t, cfg.ReturnCharge.IsZero())
}

func TestSetClassificationConfig(t *testing.T) {
	ms, mock := newTestDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM classification_status")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO classification_status (status, status_group) VALUES (?, ?), (?, ?)")).
		WithArgs("completed", "converted", "returned", "returned_full").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_setting")).
		WithArgs(settingReturnCharge, "60").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := ms.Classification().SetClassificationConfig(context.Background(), &entity.ClassificationInsert{
		Converted:    []string{"wc-completed", "completed", " "},
		ReturnedFull: []string{"returned"},
		ReturnCharge: decimal.NewFromInt(60),
	})
	assert.NoError(t, err)
}

func TestUnitCost(t *testing.T) {
	ms, mock := newTestDB(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("FROM product_cost WHERE item_id = ?")).
		WithArgs(int64(51)).
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "cost"}).AddRow(51, "40.50"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM product_cost WHERE item_id = ?")).
		WithArgs(int64(52)).
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "cost"}))

	cost, ok, err := ms.Costs().UnitCost(ctx, 51)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, cost.Equal(decimal.RequireFromString("40.5")))

	cost, ok, err = ms.Costs().UnitCost(ctx, 52)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, cost.IsZero())
}

func TestUnitCosts(t *testing.T) {
	ms, mock := newTestDB(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("FROM product_cost WHERE item_id IN (?, ?)")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "cost"}).AddRow(2, "10"))

	costs, err := ms.Costs().UnitCosts(ctx, []int64{1, 2})
	require.NoError(t, err)
	assert.Len(t, costs, 1)
	assert.True(t, costs[2].Equal(decimal.NewFromInt(10)))

	costs, err = ms.Costs().UnitCosts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, costs)
}

func TestTotalSpendUsesCalendarDays(t *testing.T) {
	ms, mock := newTestDB(t)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 7, 23, 59, 59, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SUM(s.spend_usd * a.usd_to_local_rate)")).
		WithArgs("2024-03-01", "2024-03-07").
		WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow("1234.567"))

	spend, err := ms.AdSpend().TotalSpend(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, "1234.57", spend.StringFixed(2))
}

func TestTotalExpenses(t *testing.T) {
	ms, mock := newTestDB(t)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM expense")).
		WithArgs("2024-03-01", "2024-03-01").
		WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow("500"))

	total, err := ms.Expenses().TotalExpenses(context.Background(), day, day)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(500)))
}

func TestAddAdAccountDuplicateExternalId(t *testing.T) {
	ms, mock := newTestDB(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ad_account")).
		WillReturnError(&mysql.MySQLError{Number: errDupEntry, Message: "Duplicate entry 'act_1'"})

	_, err := ms.AdSpend().AddAdAccount(context.Background(), &entity.AdAccount{
		Name:       "Meta",
		ExternalId: "act_1",
		UsdToLocal: decimal.NewFromInt(120),
		IsActive:   true,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, gerr.AlreadyExists)
}
