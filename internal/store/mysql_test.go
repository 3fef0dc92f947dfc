package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*MYSQLStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	ms := NewWithDB(sqlx.NewDb(db, "sqlmock"))
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		ms.Close()
	})
	return ms, mock
}

func TestPing(t *testing.T) {
	ms, mock := newTestDB(t)
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	assert.NoError(t, ms.Ping(context.Background()))
}

func TestMySQLErrorClassification(t *testing.T) {
	ms, _ := newTestDB(t)

	deadlock := &mysql.MySQLError{Number: errLockDeadlock}
	dup := &mysql.MySQLError{Number: errDupEntry}

	assert.True(t, ms.IsErrorRepeat(deadlock))
	assert.True(t, ms.IsErrorRepeat(errors.Join(errors.New("wrapped"), deadlock)))
	assert.False(t, ms.IsErrorRepeat(dup))
	assert.True(t, ms.IsErrUniqueViolation(dup))
	assert.False(t, ms.IsErrUniqueViolation(errors.New("boom")))
}

func TestTxRetriesDeadlock(t *testing.T) {
	ms, mock := newTestDB(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE order_fact").WillReturnError(&mysql.MySQLError{Number: errLockDeadlock})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE order_fact").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	calls := 0
	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		calls++
		return ExecNamed(ctx, rep.DB(), "UPDATE order_fact SET notes = :notes", map[string]any{"notes": "x"})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestTxNestedRunsInOuterTransaction(t *testing.T) {
	ms, mock := newTestDB(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE order_fact").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.False(t, ms.InTx())
	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		require.True(t, rep.InTx())
		return rep.Tx(ctx, func(ctx context.Context, inner dependency.Repository) error {
			return ExecNamed(ctx, inner.DB(), "UPDATE order_fact SET notes = :notes", map[string]any{"notes": "x"})
		})
	})
	require.NoError(t, err)
}

func TestBulkInsertSortsColumns(t *testing.T) {
	ms, mock := newTestDB(t)

	mock.ExpectExec(`INSERT INTO t \(a, b\) VALUES \(\?, \?\), \(\?, \?\)`).
		WithArgs(1, 2, 3, 4).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := BulkInsert(context.Background(), ms.DB(), "t", []map[string]any{
		{"b": 2, "a": 1},
		{"a": 3, "b": 4},
	})
	assert.NoError(t, err)
}
